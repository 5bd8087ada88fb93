// Package syncer pulls artifact files from a remote source into the local
// artifact directories the services load from.
package syncer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
	"github.com/andresuchdata/autopo-py/restockd/internal/storage"
)

const maxConcurrentFetches = 4

// Source is a flat remote listing, either a bucket prefix or a Drive folder.
type Source interface {
	List(ctx context.Context) ([]storage.ObjectInfo, error)
	Fetch(ctx context.Context, obj storage.ObjectInfo, destPath string) error
}

// Report lists local paths written by a sync and remote names ignored.
type Report struct {
	Fetched   []string
	Converted []string
	Skipped   []string
}

type Syncer struct {
	source Source
	routes map[string]string
}

// NewSyncer routes every configured artifact file name to its directory.
func NewSyncer(source Source, cfg config.ArtifactConfig) *Syncer {
	routes := make(map[string]string)
	for _, name := range []string{cfg.WarehousesFile, cfg.LanesFile, cfg.TransportsFile, cfg.HistoryFile, cfg.ShipmentsFile} {
		routes[name] = cfg.DataDir
	}
	for _, name := range []string{cfg.CostModelFile, cfg.ForecasterFile, cfg.ForecastYFile, cfg.ForecastColsFile} {
		routes[name] = cfg.ModelDir
	}
	for _, name := range []string{cfg.RestockModelFile, cfg.RestockScalerXFile, cfg.RestockScalerYFile, cfg.RestockManifestFile} {
		routes[name] = cfg.RestockDir
	}
	delete(routes, "")
	return &Syncer{source: source, routes: routes}
}

type job struct {
	obj     storage.ObjectInfo
	dest    string
	convert bool
}

// Sync downloads every known artifact. An XLSX object stands in for a CSV
// table of the same stem unless the CSV itself is also present.
func (s *Syncer) Sync(ctx context.Context) (*Report, error) {
	objects, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	report := &Report{}
	present := make(map[string]bool, len(objects))
	for _, obj := range objects {
		present[objectName(obj)] = true
	}

	var jobs []job
	for _, obj := range objects {
		name := objectName(obj)
		if dir, ok := s.routes[name]; ok {
			jobs = append(jobs, job{obj: obj, dest: filepath.Join(dir, name)})
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			csvName := strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
			if dir, ok := s.routes[csvName]; ok && !present[csvName] {
				jobs = append(jobs, job{obj: obj, dest: filepath.Join(dir, csvName), convert: true})
				continue
			}
		}
		report.Skipped = append(report.Skipped, name)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := s.run(gctx, j); err != nil {
				return fmt.Errorf("sync %s: %w", objectName(j.obj), err)
			}
			mu.Lock()
			defer mu.Unlock()
			if j.convert {
				report.Converted = append(report.Converted, j.dest)
			} else {
				report.Fetched = append(report.Fetched, j.dest)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(report.Fetched)
	sort.Strings(report.Converted)
	sort.Strings(report.Skipped)
	log.Info().
		Int("fetched", len(report.Fetched)).
		Int("converted", len(report.Converted)).
		Int("skipped", len(report.Skipped)).
		Msg("Artifact sync finished")
	return report, nil
}

// run downloads next to the destination and renames into place so a loader
// never sees a partial file.
func (s *Syncer) run(ctx context.Context, j job) error {
	if err := os.MkdirAll(filepath.Dir(j.dest), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp := j.dest + ".part"
	if j.convert {
		tmp = j.dest + ".part.xlsx"
	}
	defer os.Remove(tmp)

	if err := s.source.Fetch(ctx, j.obj, tmp); err != nil {
		return err
	}

	if j.convert {
		table, err := frame.ReadXLSX(tmp)
		if err != nil {
			return err
		}
		csvTmp := j.dest + ".part"
		defer os.Remove(csvTmp)
		if err := table.WriteCSV(csvTmp); err != nil {
			return err
		}
		tmp = csvTmp
	}

	if err := os.Rename(tmp, j.dest); err != nil {
		return fmt.Errorf("move into place: %w", err)
	}
	log.Debug().Str("path", j.dest).Bool("converted", j.convert).Msg("Artifact synced")
	return nil
}

func objectName(obj storage.ObjectInfo) string {
	if obj.Name != "" {
		return obj.Name
	}
	return path.Base(obj.Key)
}
