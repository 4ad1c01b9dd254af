package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server     ServerConfig     `envconfig:"SERVER"`
	Log        LogConfig        `envconfig:"LOG"`
	Database   DatabaseConfig   `envconfig:"DB"`
	JWT        JWTConfig        `envconfig:"JWT"`
	Argon2     Argon2Config     `envconfig:"ARGON2"`
	CORS       CORSConfig       `envconfig:"CORS"`
	Monitoring MonitoringConfig `envconfig:"PROMETHEUS"`
	Photos     PhotoConfig      `envconfig:"PHOTO"`
	Inspection InspectionConfig `envconfig:"INSPECTION"`
}

type ServerConfig struct {
	Port string `split_words:"true" default:"8080"`
	Env  string `split_words:"true" default:"development"`
}

type LogConfig struct {
	Level  string `split_words:"true" default:"info"`
	Format string `split_words:"true"`
}

type DatabaseConfig struct {
	Driver   string `split_words:"true" default:"postgres"`
	Host     string `split_words:"true" default:"localhost"`
	Port     string `split_words:"true" default:"5432"`
	User     string `split_words:"true" default:"postgres"`
	Password string `split_words:"true"`
	Name     string `split_words:"true" default:"food_safety"`
	SSLMode  string `split_words:"true" default:"disable"`
	DSN      string `split_words:"true"`
}

type JWTConfig struct {
	Secret        string        `split_words:"true"`
	AccessExpiry  time.Duration `split_words:"true" default:"15m"`
	RefreshExpiry time.Duration `split_words:"true" default:"168h"`
}

type Argon2Config struct {
	Memory      uint32 `split_words:"true" default:"65536"`
	Iterations  uint32 `split_words:"true" default:"3"`
	Parallelism uint8  `split_words:"true" default:"2"`
	SaltLength  uint32 `split_words:"true" default:"16"`
	KeyLength   uint32 `split_words:"true" default:"32"`
}

type CORSConfig struct {
	Origins []string `split_words:"true" default:"http://localhost:3000"`
}

type MonitoringConfig struct {
	Enabled bool `split_words:"true" default:"true"`
}

// PhotoConfig selects where uploaded inspection photos are kept.
type PhotoConfig struct {
	Backend        string `split_words:"true" default:"local"`
	Root           string `split_words:"true" default:"inspectPhotos"`
	LocalDir       string `split_words:"true" default:"."`
	S3Bucket       string `split_words:"true"`
	S3Prefix       string `split_words:"true"`
	MaxUploadBytes int64  `split_words:"true" default:"5242880"`
}

type InspectionConfig struct {
	// AtomicCreate writes the inspection and its school update in one
	// transaction instead of the default best-effort follow-up write.
	AtomicCreate bool `split_words:"true" default:"false"`
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

func Load() (*Config, error) {
	godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Photos.Backend {
	case PhotoBackendLocal:
	case PhotoBackendS3:
		if c.Photos.S3Bucket == "" {
			return fmt.Errorf("PHOTO_S3_BUCKET is required when PHOTO_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported PHOTO_BACKEND %q", c.Photos.Backend)
	}

	if c.Photos.MaxUploadBytes <= 0 {
		return fmt.Errorf("PHOTO_MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// ConnectionString returns DSN when set, otherwise builds one for the driver.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}

	switch d.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.Name)
	case DriverSQLite:
		return d.Name + ".db"
	default:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	}
}
