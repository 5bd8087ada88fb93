package features

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
)

func TestNewSchema_IndicatorsFromColumnNames(t *testing.T) {
	s := NewSchema(
		[]string{"Price", "Weather_Rainy", "Weather Condition_Sunny", "Region_North"},
		[]string{"Region", "Weather", "Weather Condition"},
		nil,
	)

	tests := []struct {
		col    string
		source string
		level  string
		ok     bool
	}{
		{"Price", "", "", false},
		{"Weather_Rainy", "Weather", "Rainy", true},
		{"Weather Condition_Sunny", "Weather Condition", "Sunny", true},
		{"Region_North", "Region", "North", true},
	}
	for _, tt := range tests {
		source, level, ok := s.Indicator(tt.col)
		if ok != tt.ok || source != tt.source || level != tt.level {
			t.Errorf("Indicator(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.col, source, level, ok, tt.source, tt.level, tt.ok)
		}
	}
}

func TestNewSchema_VocabularyDropsFirstLevel(t *testing.T) {
	s := NewSchema([]string{"Region_North", "Region_South"}, []string{"Region"},
		map[string][]string{"Region": {"East", "North", "South"}})

	if _, _, ok := s.Indicator("Region_East"); ok {
		t.Error("reference level must not get an indicator")
	}
	if _, level, ok := s.Indicator("Region_South"); !ok || level != "South" {
		t.Errorf("Region_South not registered, got level %q", level)
	}
}

func TestLevelsAndDropFirst(t *testing.T) {
	levels := Levels([]string{"b", "a", "b", "c"})
	if !reflect.DeepEqual(levels, []string{"a", "b", "c"}) {
		t.Fatalf("Levels = %v", levels)
	}
	if got := DropFirst(levels); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("DropFirst = %v", got)
	}
	if got := DropFirst([]string{"only"}); got != nil {
		t.Errorf("DropFirst of one level = %v, want nil", got)
	}
	if got := Levels([]string{"", "North", " ", "South"}); !reflect.DeepEqual(got, []string{"North", "South"}) {
		t.Errorf("Levels with blanks = %v", got)
	}
}

func TestFrameMatrix(t *testing.T) {
	s := NewSchema([]string{"Sales", "Region_North", "Promo"}, []string{"Region"}, nil)
	f := frame.New([]string{"Sales", "Region", "Promo"}, [][]string{
		{"12", "North", "true"},
		{"oops", "South", ""},
	})

	got, err := s.FrameMatrix(f)
	if err != nil {
		t.Fatalf("FrameMatrix: %v", err)
	}
	want := [][]float64{{12, 1, 1}, {0, 0, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFrameMatrix_MissingColumn(t *testing.T) {
	s := NewSchema([]string{"Sales", "Region_North"}, []string{"Region"}, nil)
	f := frame.New([]string{"Sales"}, [][]string{{"1"}})

	_, err := s.FrameMatrix(f)
	if !errors.Is(err, domain.ErrFeatureMismatch) {
		t.Fatalf("got %v, want ErrFeatureMismatch", err)
	}
}

func TestRecordMatrix(t *testing.T) {
	s := NewSchema(
		[]string{"Lag_Sales_D-1", "Price", "Region_North", "Seasonality_Winter"},
		[]string{"Region", "Seasonality"},
		nil,
	)
	records := []domain.DayRecord{
		{"Lag_Sales_D-1": 4.0, "Price": "2.5", "Region": "North"},
		{"Lag_Sales_D-1": 6.0, "Seasonality": "Winter"},
	}

	got, err := s.RecordMatrix(records)
	if err != nil {
		t.Fatalf("RecordMatrix: %v", err)
	}
	want := [][]float64{{4, 2.5, 1, 0}, {6, 0, 0, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRecordMatrix_NonNumericIsInvalid(t *testing.T) {
	s := NewSchema([]string{"Price"}, nil, nil)
	_, err := s.RecordMatrix([]domain.DayRecord{{"Price": "cheap"}})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("got %v, want ErrInvalidRequest", err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_features.json")
	m := Manifest{
		Numerical:     []string{"Price", "Region_North"},
		Categorical:   []string{"Region"},
		CategoryIDCol: "Category_ID",
		Vocabulary:    map[string][]string{"Region": {"East", "North"}},
	}
	if err := WriteManifest(path, m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if !reflect.DeepEqual(*loaded, m) {
		t.Errorf("got %+v, want %+v", *loaded, m)
	}
	if loaded.Schema().Width() != 2 {
		t.Errorf("schema width = %d", loaded.Schema().Width())
	}
}
