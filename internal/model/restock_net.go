package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RestockNetWeights is the on-disk layout of the batch demand model. It has
// two inputs: a numeric sequence (B x T x F) and a category id per item.
// The sequence goes through one recurrent layer, the last hidden state is
// concatenated with the category embedding and fed to the dense stack.
// Matrices use the input-major layout (kernel is in x out).
type RestockNetWeights struct {
	Embedding [][]float64 `json:"embedding"`
	LSTM      struct {
		Kernel          [][]float64 `json:"kernel"`
		RecurrentKernel [][]float64 `json:"recurrent_kernel"`
		Bias            []float64   `json:"bias"`
	} `json:"lstm"`
	Dense []struct {
		Kernel     [][]float64 `json:"kernel"`
		Bias       []float64   `json:"bias"`
		Activation string      `json:"activation"`
	} `json:"dense"`
}

// RestockNet is the batch demand model behind the restock engine.
type RestockNet struct {
	embedding *mat.Dense
	recurrent *lstm
	head      []*dense
}

// NewRestockNet validates the layer shapes and builds the network.
func NewRestockNet(w RestockNetWeights) (*RestockNet, error) {
	emb, err := denseFrom(w.Embedding)
	if err != nil {
		return nil, fmt.Errorf("restock net embedding: %w", err)
	}
	rec, err := newLSTM(w.LSTM.Kernel, w.LSTM.RecurrentKernel, w.LSTM.Bias)
	if err != nil {
		return nil, fmt.Errorf("restock net: %w", err)
	}
	if len(w.Dense) == 0 {
		return nil, fmt.Errorf("restock net: no dense layers")
	}

	_, embDim := emb.Dims()
	width := rec.hidden + embDim
	n := &RestockNet{embedding: emb, recurrent: rec}
	for i, dw := range w.Dense {
		layer, err := newDense(dw.Kernel, dw.Bias, dw.Activation)
		if err != nil {
			return nil, fmt.Errorf("restock net dense %d: %w", i, err)
		}
		if layer.inputs() != width {
			return nil, fmt.Errorf("restock net dense %d: expects %d inputs, previous layer gives %d", i, layer.inputs(), width)
		}
		_, width = layer.kernel.Dims()
		n.head = append(n.head, layer)
	}
	if width != 1 {
		return nil, fmt.Errorf("restock net: output width %d, want 1", width)
	}
	return n, nil
}

// LoadRestockNet reads restock model weights from a JSON file.
func LoadRestockNet(path string) (*RestockNet, error) {
	var w RestockNetWeights
	if err := readJSON(path, &w); err != nil {
		return nil, err
	}
	return NewRestockNet(w)
}

// InputSize is the number of numeric features per time step.
func (n *RestockNet) InputSize() int { return n.recurrent.in }

// Categories is the number of category ids the embedding covers.
func (n *RestockNet) Categories() int {
	rows, _ := n.embedding.Dims()
	return rows
}

// Predict runs one forward pass over the whole batch and returns one scaled
// demand value per item (B x 1).
func (n *RestockNet) Predict(num [][][]float64, cat []int) ([][]float64, error) {
	if len(num) != len(cat) {
		return nil, fmt.Errorf("restock net: %d sequences but %d category ids", len(num), len(cat))
	}
	steps, err := stepMatrices(num)
	if err != nil {
		return nil, fmt.Errorf("restock net: %w", err)
	}
	hidden, err := n.recurrent.forward(steps)
	if err != nil {
		return nil, fmt.Errorf("restock net: %w", err)
	}
	last := hidden[len(hidden)-1]

	_, embDim := n.embedding.Dims()
	H := n.recurrent.hidden
	x := mat.NewDense(len(num), H+embDim, nil)
	for b, id := range cat {
		if id < 0 || id >= n.Categories() {
			return nil, fmt.Errorf("restock net: category id %d outside [0, %d)", id, n.Categories())
		}
		for j := 0; j < H; j++ {
			x.Set(b, j, last.At(b, j))
		}
		for j := 0; j < embDim; j++ {
			x.Set(b, H+j, n.embedding.At(id, j))
		}
	}

	for _, layer := range n.head {
		if x, err = layer.forward(x); err != nil {
			return nil, fmt.Errorf("restock net: %w", err)
		}
	}

	out := make([][]float64, len(num))
	for b := range out {
		out[b] = []float64{x.At(b, 0)}
	}
	return out, nil
}
