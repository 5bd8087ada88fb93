package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

// LSTMForecasterWeights is the on-disk layout of the demand forecaster:
// stacked recurrent layers followed by a linear head reading the last step.
// Matrices use the output-major layout of the training framework
// (weight_ih is 4H x in, fc.weight is out x H).
type LSTMForecasterWeights struct {
	InputSize  int `json:"input_size"`
	HiddenSize int `json:"hidden_size"`
	NumLayers  int `json:"num_layers"`
	Layers     []struct {
		WeightIH [][]float64 `json:"weight_ih"`
		WeightHH [][]float64 `json:"weight_hh"`
		BiasIH   []float64   `json:"bias_ih"`
		BiasHH   []float64   `json:"bias_hh"`
	} `json:"layers"`
	FC struct {
		Weight [][]float64 `json:"weight"`
		Bias   []float64   `json:"bias"`
	} `json:"fc"`
}

// LSTMForecaster predicts one normalised demand value from a feature sequence.
type LSTMForecaster struct {
	layers []*lstm
	head   *dense
}

// NewLSTMForecaster builds the network and checks it against the expected
// input width and hidden size. Zero expectations are not checked.
func NewLSTMForecaster(w LSTMForecasterWeights, inputSize, hiddenSize int) (*LSTMForecaster, error) {
	if len(w.Layers) == 0 {
		return nil, fmt.Errorf("forecaster: no recurrent layers")
	}
	if w.NumLayers != 0 && w.NumLayers != len(w.Layers) {
		return nil, fmt.Errorf("forecaster: num_layers=%d but %d layers stored", w.NumLayers, len(w.Layers))
	}

	f := &LSTMForecaster{}
	for i, lw := range w.Layers {
		if len(lw.BiasIH) != len(lw.BiasHH) {
			return nil, fmt.Errorf("forecaster layer %d: bias_ih and bias_hh differ in length", i)
		}
		bias := make([]float64, len(lw.BiasIH))
		for j := range bias {
			bias[j] = lw.BiasIH[j] + lw.BiasHH[j]
		}
		layer, err := newLSTM(transpose(lw.WeightIH), transpose(lw.WeightHH), bias)
		if err != nil {
			return nil, fmt.Errorf("forecaster layer %d: %w", i, err)
		}
		if i > 0 && layer.in != f.layers[i-1].hidden {
			return nil, fmt.Errorf("forecaster layer %d: input %d does not match previous hidden %d", i, layer.in, f.layers[i-1].hidden)
		}
		f.layers = append(f.layers, layer)
	}

	head, err := newDense(transpose(w.FC.Weight), w.FC.Bias, "linear")
	if err != nil {
		return nil, fmt.Errorf("forecaster head: %w", err)
	}
	last := f.layers[len(f.layers)-1]
	if head.inputs() != last.hidden {
		return nil, fmt.Errorf("forecaster head expects %d inputs, recurrent output is %d", head.inputs(), last.hidden)
	}
	f.head = head

	if inputSize > 0 && f.InputSize() != inputSize {
		return nil, fmt.Errorf("forecaster: weights take %d features, feature list has %d", f.InputSize(), inputSize)
	}
	if hiddenSize > 0 && last.hidden != hiddenSize {
		return nil, fmt.Errorf("forecaster: hidden size %d, expected %d", last.hidden, hiddenSize)
	}
	return f, nil
}

// LoadLSTMForecaster reads forecaster weights from a JSON file.
func LoadLSTMForecaster(path string, inputSize, hiddenSize int) (*LSTMForecaster, error) {
	var w LSTMForecasterWeights
	if err := readJSON(path, &w); err != nil {
		return nil, err
	}
	return NewLSTMForecaster(w, inputSize, hiddenSize)
}

// InputSize is the number of features per time step.
func (f *LSTMForecaster) InputSize() int { return f.layers[0].in }

// Layers is the number of stacked recurrent layers.
func (f *LSTMForecaster) Layers() int { return len(f.layers) }

// Predict runs one sequence (T x F) through the network.
func (f *LSTMForecaster) Predict(seq [][]float64) (float64, error) {
	steps, err := stepMatrices([][][]float64{seq})
	if err != nil {
		return 0, err
	}
	var out []*mat.Dense
	for _, layer := range f.layers {
		if out, err = layer.forward(steps); err != nil {
			return 0, err
		}
		steps = out
	}
	y, err := f.head.forward(out[len(out)-1])
	if err != nil {
		return 0, err
	}
	return y.At(0, 0), nil
}

func readJSON(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
