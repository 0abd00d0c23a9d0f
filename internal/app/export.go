package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/filmfriends/backend/internal/config"
	"github.com/filmfriends/backend/internal/db"
	"github.com/filmfriends/backend/internal/export"
	"github.com/filmfriends/backend/internal/logging"
	"github.com/filmfriends/backend/internal/repositories"
	"github.com/filmfriends/backend/internal/storage"
)

func runExport(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 || args[0] != "likes" {
		return errors.New("expected export target: likes")
	}
	if cfg.ObjectStore.Bucket == "" {
		return errors.New("export likes: FILMFRIENDS_OBJECT_STORE_BUCKET is not set")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return err
	}

	exporter := export.LikesExporter{
		Source:  repositories.NewPostgresLikeRepository(pool),
		Storage: store,
	}

	location, snapshot, err := exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("export likes: %w", err)
	}

	logging.FromContext(ctx).Info("exported likes snapshot",
		"location", location,
		"users", snapshot.Users,
		"likes", snapshot.Likes,
	)
	return nil
}
