package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
	"github.com/andresuchdata/autopo-py/restockd/internal/config"
)

func runCheck(c *cli.Context, cfg *config.Config) error {
	store := artifact.Load(c.Context, cfg)
	statuses := store.Status()

	out, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))

	if c.Bool("strict") {
		for _, s := range statuses {
			if !s.Available {
				return fmt.Errorf("%s unavailable: %s", s.Name, s.Error)
			}
		}
	}
	return nil
}
