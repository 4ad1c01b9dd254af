// Command cleanup removes inspection photos whose inspection has been deleted.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/school-food-safety/backend/internal/blob"
	"github.com/school-food-safety/backend/internal/config"
	"github.com/school-food-safety/backend/internal/database"
	"github.com/school-food-safety/backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "cleanup",
		Usage: "delete orphaned inspection photos",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "only remove photos uploaded at least this long ago",
				Value: 7 * 24 * time.Hour,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "list the photos without deleting them",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("cleanup failed")
	}
}

func run(cCtx *cli.Context) error {
	ctx := cCtx.Context

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	store, err := blob.Open(ctx, cfg.Photos)
	if err != nil {
		return err
	}

	photos := services.NewPhotoService(db, store, log, cfg.Photos.Root, cfg.Photos.MaxUploadBytes)

	cutoff := time.Now().Add(-cCtx.Duration("older-than"))
	orphans, err := photos.ListOrphans(ctx, cutoff)
	if err != nil {
		return err
	}

	dryRun := cCtx.Bool("dry-run")
	removed := 0
	for _, p := range orphans {
		entry := log.WithFields(logrus.Fields{
			"photo_id":      p.ID,
			"inspection_id": p.InspectionID,
			"path":          p.StoragePath,
		})
		if dryRun {
			entry.Info("orphaned photo")
			continue
		}
		if err := photos.Delete(ctx, p.ID); err != nil {
			entry.WithError(err).Warn("failed to delete orphaned photo")
			continue
		}
		removed++
	}

	log.WithFields(logrus.Fields{
		"found":   len(orphans),
		"removed": removed,
		"dry_run": dryRun,
		"cutoff":  cutoff.UTC().Format(time.RFC3339),
	}).Info("cleanup completed")
	return nil
}
