// restockd/cmd/artifacts/main.go
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Configure("artifacts", cfg.Server.Mode)

	if err := newApp(cfg).Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("artifacts command failed")
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "artifacts",
		Usage: "Prepare, fetch and verify the model artifacts both services load",
		Commands: []*cli.Command{
			{
				Name:  "fit-scalers",
				Usage: "Fit scaler_X, scaler_y and the feature manifest from the training table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Usage:    "Training table (CSV or XLSX)",
						Required: true,
						EnvVars:  []string{"TRAINING_DATA_PATH"},
					},
					&cli.StringFlag{
						Name:  "out-dir",
						Usage: "Directory to write the artifacts to",
						Value: cfg.Artifacts.RestockDir,
					},
				},
				Action: func(c *cli.Context) error {
					return runFitScalers(c, cfg)
				},
			},
			{
				Name:  "sync",
				Usage: "Download artifacts from an S3-compatible bucket or a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Where to fetch from: s3 or drive",
						Value: "s3",
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Bucket prefix (s3)",
						Value: cfg.Storage.Prefix,
					},
					&cli.StringFlag{
						Name:  "folder-id",
						Usage: "Drive folder id (drive)",
						Value: cfg.Drive.FolderID,
					},
					&cli.StringFlag{
						Name:  "folder-path",
						Usage: "Drive folder path from the root, used when no folder id is set",
					},
					&cli.BoolFlag{
						Name:  "flush-cache",
						Usage: "Drop cached decisions after a successful sync",
					},
				},
				Action: func(c *cli.Context) error {
					return runSync(c, cfg)
				},
			},
			{
				Name:  "push",
				Usage: "Upload the local restock artifacts to the bucket",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Bucket prefix",
						Value: cfg.Storage.Prefix,
					},
				},
				Action: func(c *cli.Context) error {
					return runPush(c, cfg)
				},
			},
			{
				Name:  "check",
				Usage: "Load every artifact and print its status",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit with an error when any capability is unavailable",
					},
				},
				Action: func(c *cli.Context) error {
					return runCheck(c, cfg)
				},
			},
		},
	}
}
