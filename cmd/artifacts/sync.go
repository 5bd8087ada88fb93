package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-py/restockd/internal/cache"
	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/drive"
	"github.com/andresuchdata/autopo-py/restockd/internal/storage"
	"github.com/andresuchdata/autopo-py/restockd/internal/syncer"
)

func newSource(c *cli.Context, cfg *config.Config) (syncer.Source, error) {
	switch c.String("source") {
	case "s3":
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		return storage.NewBucket(client, c.String("prefix")), nil

	case "drive":
		svc, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		folderID := c.String("folder-id")
		if folderID == "" {
			if folderID, err = svc.FindFolderByPath(c.Context, c.String("folder-path")); err != nil {
				return nil, err
			}
		}
		return drive.NewFolder(svc, folderID), nil

	default:
		return nil, fmt.Errorf("unknown source %q, want s3 or drive", c.String("source"))
	}
}

func runSync(c *cli.Context, cfg *config.Config) error {
	source, err := newSource(c, cfg)
	if err != nil {
		return err
	}

	report, err := syncer.NewSyncer(source, cfg.Artifacts).Sync(c.Context)
	if err != nil {
		return err
	}
	for _, p := range report.Fetched {
		fmt.Fprintln(c.App.Writer, "fetched  ", p)
	}
	for _, p := range report.Converted {
		fmt.Fprintln(c.App.Writer, "converted", p)
	}
	for _, name := range report.Skipped {
		log.Debug().Str("name", name).Msg("Skipped unknown remote file")
	}

	if c.Bool("flush-cache") {
		decisionCache, err := cache.NewDecisionCache(cfg.Cache)
		if err != nil {
			return fmt.Errorf("flush cache: %w", err)
		}
		if err := decisionCache.InvalidateAll(c.Context); err != nil {
			return fmt.Errorf("flush cache: %w", err)
		}
		log.Info().Msg("Decision cache flushed")
	}
	return nil
}

func runPush(c *cli.Context, cfg *config.Config) error {
	client, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return err
	}
	return pushRestockArtifacts(c.Context, c.App.Writer, client, cfg.Artifacts, c.String("prefix"))
}

func pushRestockArtifacts(ctx context.Context, w io.Writer, store storage.ObjectStorage, a config.ArtifactConfig, prefix string) error {
	for _, name := range []string{a.RestockModelFile, a.RestockScalerXFile, a.RestockScalerYFile, a.RestockManifestFile} {
		data, err := os.ReadFile(a.RestockPath(name))
		if os.IsNotExist(err) {
			log.Warn().Str("file", name).Msg("Not present locally, skipping upload")
			continue
		}
		if err != nil {
			return err
		}
		key := filepath.ToSlash(filepath.Join(prefix, name))
		if err := store.UploadObject(ctx, key, data); err != nil {
			return err
		}
		fmt.Fprintln(w, "uploaded", key)
	}
	return nil
}
