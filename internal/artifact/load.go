package artifact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/features"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
	"github.com/andresuchdata/autopo-py/restockd/internal/metrics"
	"github.com/andresuchdata/autopo-py/restockd/internal/model"
)

// Load reads the requested capabilities (all of them when caps is empty)
// concurrently. A capability that fails to load is recorded in the store's
// status and logged; Load itself never fails.
func Load(ctx context.Context, cfg *config.Config, caps ...Capability) *Store {
	if len(caps) == 0 {
		caps = []Capability{CapCostModel, CapForecaster, CapReferences, CapHistory, CapRestock}
	}

	var (
		mu       sync.Mutex
		contents Contents
		failures = make(map[Capability]error)
		took     = make(map[Capability]time.Duration)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range caps {
		c := c
		g.Go(func() error {
			start := time.Now()
			err := gctx.Err()
			if err == nil {
				err = loadCapability(cfg, c, &mu, &contents)
			}

			mu.Lock()
			defer mu.Unlock()
			took[c] = time.Since(start)
			metrics.SetArtifactAvailable(string(c), err == nil)
			if err != nil {
				failures[c] = err
				log.Error().Err(err).Str("capability", string(c)).Msg("Failed to load artifact")
				return nil
			}
			log.Info().Str("capability", string(c)).Dur("took", took[c]).Msg("Artifact loaded")
			return nil
		})
	}
	_ = g.Wait()

	store := NewStore(contents, failures)
	for c, d := range took {
		store.setLoadTime(c, d)
	}
	return store
}

func loadCapability(cfg *config.Config, c Capability, mu *sync.Mutex, out *Contents) error {
	a := cfg.Artifacts
	switch c {
	case CapCostModel:
		m, err := model.LoadTreeEnsemble(a.ModelPath(a.CostModelFile))
		if err != nil {
			return fmt.Errorf("cost model: %w", err)
		}
		mu.Lock()
		out.CostModel = m
		mu.Unlock()

	case CapForecaster:
		f, err := loadForecaster(cfg)
		if err != nil {
			return err
		}
		mu.Lock()
		out.Forecaster = f
		mu.Unlock()

	case CapReferences:
		refs, err := loadReferences(a)
		if err != nil {
			return err
		}
		mu.Lock()
		out.References = refs
		mu.Unlock()

	case CapHistory:
		h, err := frame.ReadCSV(a.DataPath(a.HistoryFile))
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		mu.Lock()
		out.History = h
		mu.Unlock()

	case CapRestock:
		r, err := loadRestock(a)
		if err != nil {
			return err
		}
		mu.Lock()
		out.Restock = r
		mu.Unlock()

	default:
		return fmt.Errorf("unknown capability %q", c)
	}
	return nil
}

func loadForecaster(cfg *config.Config) (*Forecaster, error) {
	a := cfg.Artifacts
	cols, err := features.LoadColumns(a.ModelPath(a.ForecastColsFile))
	if err != nil {
		return nil, fmt.Errorf("forecaster features: %w", err)
	}
	net, err := model.LoadLSTMForecaster(a.ModelPath(a.ForecasterFile), len(cols), cfg.Forecast.HiddenSize)
	if err != nil {
		return nil, fmt.Errorf("forecaster: %w", err)
	}
	if cfg.Forecast.NumLayers > 0 && net.Layers() != cfg.Forecast.NumLayers {
		return nil, fmt.Errorf("forecaster: %d layers stored, %d configured", net.Layers(), cfg.Forecast.NumLayers)
	}
	target, err := model.LoadTargetScaler(a.ModelPath(a.ForecastYFile))
	if err != nil {
		return nil, fmt.Errorf("forecaster target scaler: %w", err)
	}
	return &Forecaster{
		Model:  net,
		Schema: features.NewSchema(cols, cfg.Forecast.Categorical, nil),
		Target: target,
	}, nil
}

func loadReferences(a config.ArtifactConfig) (*References, error) {
	tables := []struct {
		name string
		file string
		keys []string
		dst  **frame.Frame
	}{
		{"warehouses", a.WarehousesFile, []string{"warehouse_id"}, nil},
		{"lanes", a.LanesFile, []string{"warehouse_id", "transport_id"}, nil},
		{"transports", a.TransportsFile, []string{"transport_id"}, nil},
	}
	refs := &References{}
	tables[0].dst, tables[1].dst, tables[2].dst = &refs.Warehouses, &refs.Lanes, &refs.Transports

	for _, t := range tables {
		f, err := frame.ReadCSV(a.DataPath(t.file))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.name, err)
		}
		for _, k := range t.keys {
			if !f.Has(k) {
				return nil, fmt.Errorf("%s: missing key column %q", t.name, k)
			}
		}
		*t.dst = f
	}
	return refs, nil
}

func loadRestock(a config.ArtifactConfig) (*Restock, error) {
	manifest, err := features.LoadManifest(a.RestockPath(a.RestockManifestFile))
	if err != nil {
		return nil, fmt.Errorf("restock manifest: %w", err)
	}
	scalerX, err := model.LoadMinMaxScaler(a.RestockPath(a.RestockScalerXFile))
	if err != nil {
		return nil, fmt.Errorf("restock scaler_X: %w", err)
	}
	scalerY, err := model.LoadMinMaxScaler(a.RestockPath(a.RestockScalerYFile))
	if err != nil {
		return nil, fmt.Errorf("restock scaler_y: %w", err)
	}
	net, err := model.LoadRestockNet(a.RestockPath(a.RestockModelFile))
	if err != nil {
		return nil, fmt.Errorf("restock model: %w", err)
	}

	width := len(manifest.Numerical)
	switch {
	case scalerX.Features() != width:
		return nil, fmt.Errorf("restock scaler_X has %d features, manifest lists %d", scalerX.Features(), width)
	case scalerY.Features() != 1:
		return nil, fmt.Errorf("restock scaler_y has %d features, want 1", scalerY.Features())
	case net.InputSize() != width:
		return nil, fmt.Errorf("restock model takes %d features, manifest lists %d", net.InputSize(), width)
	}

	return &Restock{
		Model:    net,
		ScalerX:  scalerX,
		ScalerY:  scalerY,
		Manifest: manifest,
		Schema:   manifest.Schema(),
	}, nil
}
