package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
	"github.com/andresuchdata/autopo-py/restockd/internal/pipeline/scalers"
)

func runFitScalers(c *cli.Context, cfg *config.Config) error {
	table, err := frame.ReadTable(c.String("input"))
	if err != nil {
		return fmt.Errorf("read training table: %w", err)
	}

	res, err := scalers.Fit(table, scalers.DefaultOptions())
	if err != nil {
		return err
	}

	outDir := c.String("out-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	a := cfg.Artifacts
	if err := res.Write(outDir, a.RestockScalerXFile, a.RestockScalerYFile, a.RestockManifestFile); err != nil {
		return err
	}

	log.Info().
		Str("dir", outDir).
		Int("rows", res.Rows).
		Int("features", len(res.Manifest.Numerical)).
		Msg("Scaler artifacts written")
	return nil
}
