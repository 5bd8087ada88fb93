package scalers

import (
	"reflect"
	"testing"

	"github.com/andresuchdata/autopo-py/restockd/internal/features"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
	"github.com/andresuchdata/autopo-py/restockd/internal/model"
)

func trainingTable() *frame.Frame {
	return frame.New(
		[]string{"Product ID", "Date", "Lag_Sales_D-1", "Price", "Region", "Target_Sales_D+7"},
		[][]string{
			{"P2", "2024-01-02", "10", "", "South", "70"},
			{"P1", "2024-01-02", "4", "2.5", "North", "30"},
			{"P1", "2024-01-01", "2", "3.5", "West", "10"},
		},
	)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Numerical = []string{"Lag_Sales_D-1", "Price"}
	opts.Categorical = []string{"Region"}
	return opts
}

func TestFit(t *testing.T) {
	res, err := Fit(trainingTable(), testOptions())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	wantCols := []string{"Lag_Sales_D-1", "Price", "Region_South", "Region_West"}
	if !reflect.DeepEqual(res.Manifest.Numerical, wantCols) {
		t.Fatalf("numerical = %v, want %v", res.Manifest.Numerical, wantCols)
	}
	if !reflect.DeepEqual(res.Manifest.Vocabulary["Region"], []string{"North", "South", "West"}) {
		t.Errorf("vocabulary = %v", res.Manifest.Vocabulary)
	}

	wantMin := []float64{2, 2.5, 0, 0}
	wantMax := []float64{10, 3.5, 1, 1}
	if !reflect.DeepEqual(res.ScalerX.DataMin, wantMin) || !reflect.DeepEqual(res.ScalerX.DataMax, wantMax) {
		t.Errorf("scaler_X min/max = %v/%v", res.ScalerX.DataMin, res.ScalerX.DataMax)
	}
	if res.ScalerY.DataMin[0] != 10 || res.ScalerY.DataMax[0] != 70 {
		t.Errorf("scaler_y min/max = %v/%v", res.ScalerY.DataMin, res.ScalerY.DataMax)
	}
}

func TestFit_MissingColumn(t *testing.T) {
	opts := testOptions()
	opts.Target = "Target_Sales_D+14"
	if _, err := Fit(trainingTable(), opts); err == nil {
		t.Fatal("expected error for missing target column")
	}
}

func TestResult_WriteLoadsBack(t *testing.T) {
	res, err := Fit(trainingTable(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := res.Write(dir, "scaler_X.json", "scaler_y.json", "model_features.json"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	manifest, err := features.LoadManifest(dir + "/model_features.json")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if _, level, ok := manifest.Schema().Indicator("Region_West"); !ok || level != "West" {
		t.Error("Region_West should round-trip as an indicator")
	}
	scalerX, err := model.LoadMinMaxScaler(dir + "/scaler_X.json")
	if err != nil {
		t.Fatalf("LoadMinMaxScaler: %v", err)
	}
	if scalerX.Features() != len(manifest.Numerical) {
		t.Errorf("scaler width %d, manifest %d", scalerX.Features(), len(manifest.Numerical))
	}
}

func TestFit_BlankCategoryIsNotALevel(t *testing.T) {
	table := frame.New(
		[]string{"Product ID", "Date", "Lag_Sales_D-1", "Price", "Region", "Target_Sales_D+7"},
		[][]string{
			{"P1", "2024-01-01", "1", "1", "", "5"},
			{"P1", "2024-01-02", "2", "1", "North", "6"},
			{"P1", "2024-01-03", "3", "1", "South", "7"},
		},
	)
	res, err := Fit(table, testOptions())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if want := []string{"Lag_Sales_D-1", "Price", "Region_South"}; !reflect.DeepEqual(res.Manifest.Numerical, want) {
		t.Fatalf("numerical = %v, want %v", res.Manifest.Numerical, want)
	}
	if !reflect.DeepEqual(res.Manifest.Vocabulary["Region"], []string{"North", "South"}) {
		t.Errorf("vocabulary = %v", res.Manifest.Vocabulary["Region"])
	}
	if res.ScalerX.Features() != 3 {
		t.Errorf("scaler_X width = %d, want 3", res.ScalerX.Features())
	}
}
