package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/features"
	"github.com/andresuchdata/autopo-py/restockd/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	root := t.TempDir()
	cfg.Artifacts.DataDir = filepath.Join(root, "data")
	cfg.Artifacts.ModelDir = filepath.Join(root, "models")
	cfg.Artifacts.RestockDir = filepath.Join(root, "restock")
	return cfg
}

const trainingCSV = `Product ID,Date,Lag_Sales_D-1,Lag_Sales_D-2,Lag_Sales_D-7,Lag_Inventory_D-1,Rolling_Mean_7D,Price,Discount,Holiday/Promotion,Competitor Pricing,Region,Weather Condition,Seasonality,Category_ID,Target_Sales_D+7
P1,2024-01-01,1,2,3,40,2,9.5,0,0,9.9,North,Sunny,Winter,0,14
P1,2024-01-02,2,1,3,38,2,9.5,5,1,9.7,South,Rainy,Winter,0,21
P2,2024-01-01,5,4,6,80,5,3.0,0,0,3.1,North,Sunny,Spring,2,35
`

func TestFitScalersCommand(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(input, []byte(trainingCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	app := newApp(cfg)
	if err := app.Run([]string{"artifacts", "fit-scalers", "--input", input}); err != nil {
		t.Fatalf("fit-scalers: %v", err)
	}

	manifest, err := features.LoadManifest(cfg.Artifacts.RestockPath(cfg.Artifacts.RestockManifestFile))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	// 9 numeric columns plus Region_South, Weather Condition_Sunny, Seasonality_Winter
	if len(manifest.Numerical) != 12 {
		t.Errorf("numerical = %v", manifest.Numerical)
	}
	for _, name := range []string{cfg.Artifacts.RestockScalerXFile, cfg.Artifacts.RestockScalerYFile} {
		if _, err := os.Stat(cfg.Artifacts.RestockPath(name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	app := newApp(cfg)
	app.Writer = &out

	if err := app.Run([]string{"artifacts", "check"}); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out.String(), `"available": false`) {
		t.Errorf("output = %s", out.String())
	}

	strict := newApp(cfg)
	strict.Writer = &bytes.Buffer{}
	if err := strict.Run([]string{"artifacts", "check", "--strict"}); err == nil {
		t.Error("strict check should fail with no artifacts on disk")
	}
}

func TestSyncCommand_UnknownSource(t *testing.T) {
	if err := newApp(testConfig(t)).Run([]string{"artifacts", "sync", "--source", "ftp"}); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

type recordingStorage struct {
	uploaded map[string][]byte
}

func (r *recordingStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (r *recordingStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return nil
}

func (r *recordingStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	r.uploaded[key] = data
	return nil
}

func TestPushRestockArtifacts(t *testing.T) {
	cfg := testConfig(t)
	a := cfg.Artifacts
	if err := os.MkdirAll(a.RestockDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(a.RestockPath(a.RestockScalerXFile), []byte(`{"data_min":[0]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &recordingStorage{uploaded: map[string][]byte{}}
	var out bytes.Buffer
	if err := pushRestockArtifacts(context.Background(), &out, store, a, "prod"); err != nil {
		t.Fatal(err)
	}
	if len(store.uploaded) != 1 {
		t.Fatalf("uploaded = %v", store.uploaded)
	}
	if _, ok := store.uploaded["prod/"+a.RestockScalerXFile]; !ok {
		t.Errorf("uploaded keys = %v", store.uploaded)
	}
}
