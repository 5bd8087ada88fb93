package model

import (
	"fmt"
	"math"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
)

const (
	FeatureNumeric     = "numeric"
	FeatureCategorical = "categorical"
)

// TreeFeature is one input column of the cost model. Categorical columns
// expand into one indicator per listed category; values outside the list
// leave every indicator at zero.
type TreeFeature struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Categories []string `json:"categories,omitempty"`
}

// TreeNode is a flattened tree node. Leaves carry Value; splits send
// x < Threshold left, and missing values follow DefaultLeft.
type TreeNode struct {
	Feature     int     `json:"feature"`
	Threshold   float64 `json:"threshold"`
	Left        int     `json:"left"`
	Right       int     `json:"right"`
	DefaultLeft bool    `json:"default_left"`
	Leaf        bool    `json:"leaf"`
	Value       float64 `json:"value"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeEnsemble is a gradient-boosted regression model predicting the
// per-unit landed cost of a candidate row.
type TreeEnsemble struct {
	BaseScore float64       `json:"base_score"`
	Features  []TreeFeature `json:"features"`
	Trees     []Tree        `json:"trees"`

	width int
}

// LoadTreeEnsemble reads and validates a cost model JSON file.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	var m TreeEnsemble
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every node reference and derives the encoded width.
func (m *TreeEnsemble) Validate() error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("cost model: no trees")
	}
	width := 0
	for _, f := range m.Features {
		switch f.Kind {
		case FeatureNumeric, "":
			width++
		case FeatureCategorical:
			width += len(f.Categories)
		default:
			return fmt.Errorf("cost model: feature %q has unknown kind %q", f.Name, f.Kind)
		}
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("cost model: tree %d is empty", t)
		}
		for n, node := range tree.Nodes {
			if node.Leaf {
				continue
			}
			if node.Feature < 0 || node.Feature >= width {
				return fmt.Errorf("cost model: tree %d node %d splits on feature %d of %d", t, n, node.Feature, width)
			}
			// children always come after their parent, so traversal terminates
			if node.Left <= n || node.Right <= n || node.Left >= len(tree.Nodes) || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("cost model: tree %d node %d has invalid children", t, n)
			}
		}
	}
	m.width = width
	return nil
}

// Predict prices every row of candidates in one pass. A declared feature
// column missing from the frame is a feature mismatch.
func (m *TreeEnsemble) Predict(candidates *frame.Frame) ([]float64, error) {
	if m.width == 0 && len(m.Features) > 0 {
		return nil, fmt.Errorf("cost model used before validation")
	}
	for _, f := range m.Features {
		if !candidates.Has(f.Name) {
			return nil, fmt.Errorf("%w: cost model input %q missing", domain.ErrFeatureMismatch, f.Name)
		}
	}

	out := make([]float64, candidates.Len())
	x := make([]float64, m.width)
	for row := range out {
		m.encode(candidates, row, x)
		sum := m.BaseScore
		for _, tree := range m.Trees {
			sum += tree.score(x)
		}
		out[row] = sum
	}
	return out, nil
}

func (m *TreeEnsemble) encode(f *frame.Frame, row int, x []float64) {
	i := 0
	for _, feat := range m.Features {
		if feat.Kind != FeatureCategorical {
			x[i] = f.Float(row, feat.Name)
			i++
			continue
		}
		v, _ := f.Value(row, feat.Name)
		for _, c := range feat.Categories {
			if v == c {
				x[i] = 1
			} else {
				x[i] = 0
			}
			i++
		}
	}
}

func (t Tree) score(x []float64) float64 {
	n := 0
	for {
		node := t.Nodes[n]
		if node.Leaf {
			return node.Value
		}
		v := x[node.Feature]
		switch {
		case math.IsNaN(v):
			if node.DefaultLeft {
				n = node.Left
			} else {
				n = node.Right
			}
		case v < node.Threshold:
			n = node.Left
		default:
			n = node.Right
		}
	}
}
