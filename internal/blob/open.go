package blob

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/school-food-safety/backend/internal/config"
)

// Open builds the store selected by PHOTO_BACKEND. S3 credentials and region
// come from the default AWS chain.
func Open(ctx context.Context, cfg config.PhotoConfig) (Store, error) {
	switch cfg.Backend {
	case config.PhotoBackendS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
	case config.PhotoBackendLocal, "":
		return NewLocalStore(cfg.LocalDir), nil
	default:
		return nil, fmt.Errorf("unsupported photo backend %q", cfg.Backend)
	}
}
