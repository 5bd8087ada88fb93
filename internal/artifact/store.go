// Package artifact holds the pre-trained models, scalers, feature lists and
// reference tables both services serve from. A Store is built once at
// startup by Load and is read-only afterwards.
package artifact

import (
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/features"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
	"github.com/andresuchdata/autopo-py/restockd/internal/model"
)

// Capability names a group of artifacts that load and fail together.
type Capability string

const (
	CapCostModel  Capability = "cost_model"
	CapForecaster Capability = "forecaster"
	CapReferences Capability = "reference_tables"
	CapHistory    Capability = "history"
	CapRestock    Capability = "restock_model"
)

// DecisionCapabilities are what the order-decision service needs.
var DecisionCapabilities = []Capability{CapCostModel, CapForecaster, CapReferences, CapHistory}

// RestockCapabilities are what the restock service needs.
var RestockCapabilities = []Capability{CapRestock}

// SequenceModel predicts one normalised value from a (T x F) sequence.
type SequenceModel interface {
	Predict(seq [][]float64) (float64, error)
}

// CostModel prices every row of a candidate table.
type CostModel interface {
	Predict(candidates *frame.Frame) ([]float64, error)
}

// BatchModel runs one forward pass over a batch of sequences and category ids.
type BatchModel interface {
	Predict(num [][][]float64, cat []int) ([][]float64, error)
}

// Forecaster bundles the demand model with its input schema and target scaler.
type Forecaster struct {
	Model  SequenceModel
	Schema *features.Schema
	Target model.TargetScaler
}

// References are the static tables candidate generation joins.
type References struct {
	Warehouses *frame.Frame
	Lanes      *frame.Frame
	Transports *frame.Frame
}

// Restock bundles the batch demand model with its fitted scalers and manifest.
type Restock struct {
	Model    BatchModel
	ScalerX  *model.MinMaxScaler
	ScalerY  *model.MinMaxScaler
	Manifest *features.Manifest
	Schema   *features.Schema
}

// Status reports whether a capability loaded.
type Status struct {
	Name      Capability `json:"name"`
	Available bool       `json:"available"`
	Error     string     `json:"error,omitempty"`
	LoadedIn  string     `json:"loaded_in,omitempty"`
}

type Store struct {
	costModel  CostModel
	forecaster *Forecaster
	references *References
	history    *frame.Frame
	restock    *Restock

	status map[Capability]Status
}

// Contents is what a Store serves. Nil members are reported unavailable.
type Contents struct {
	CostModel  CostModel
	Forecaster *Forecaster
	References *References
	History    *frame.Frame
	Restock    *Restock
}

// NewStore wraps already built artifacts. failures records why a capability
// is missing. Capabilities neither present nor failed are left out of Status.
func NewStore(c Contents, failures map[Capability]error) *Store {
	s := &Store{
		costModel:  c.CostModel,
		forecaster: c.Forecaster,
		references: c.References,
		history:    c.History,
		restock:    c.Restock,
		status:     make(map[Capability]Status),
	}
	present := map[Capability]bool{
		CapCostModel:  c.CostModel != nil,
		CapForecaster: c.Forecaster != nil,
		CapReferences: c.References != nil,
		CapHistory:    c.History != nil,
		CapRestock:    c.Restock != nil,
	}
	for name, ok := range present {
		err := failures[name]
		if !ok && err == nil {
			continue
		}
		st := Status{Name: name, Available: ok && err == nil}
		if err != nil {
			st.Error = err.Error()
		}
		s.status[name] = st
	}
	return s
}

func (s *Store) setLoadTime(name Capability, d time.Duration) {
	st := s.status[name]
	if st.Available {
		st.LoadedIn = d.Round(time.Millisecond).String()
		s.status[name] = st
	}
}

// Status lists every capability sorted by name.
func (s *Store) Status() []Status {
	out := make([]Status, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Available reports whether every listed capability loaded.
func (s *Store) Available(caps ...Capability) bool {
	for _, c := range caps {
		if !s.status[c].Available {
			return false
		}
	}
	return true
}

func (s *Store) unavailable(c Capability) error {
	reason := s.status[c].Error
	if reason == "" {
		reason = "not loaded"
	}
	return fmt.Errorf("%w: %s: %s", domain.ErrModelUnavailable, c, reason)
}

func (s *Store) CostModel() (CostModel, error) {
	if s.costModel == nil || !s.status[CapCostModel].Available {
		return nil, s.unavailable(CapCostModel)
	}
	return s.costModel, nil
}

func (s *Store) Forecaster() (*Forecaster, error) {
	if s.forecaster == nil || !s.status[CapForecaster].Available {
		return nil, s.unavailable(CapForecaster)
	}
	return s.forecaster, nil
}

// References returns the reference tables. Callers must only use
// copy-producing frame operations on them.
func (s *Store) References() (*References, error) {
	if s.references == nil || !s.status[CapReferences].Available {
		return nil, s.unavailable(CapReferences)
	}
	return s.references, nil
}

// History returns the shared historical series, read-only like References.
func (s *Store) History() (*frame.Frame, error) {
	if s.history == nil || !s.status[CapHistory].Available {
		return nil, s.unavailable(CapHistory)
	}
	return s.history, nil
}

func (s *Store) Restock() (*Restock, error) {
	if s.restock == nil || !s.status[CapRestock].Available {
		return nil, s.unavailable(CapRestock)
	}
	return s.restock, nil
}
