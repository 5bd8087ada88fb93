package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// lstm is a single recurrent layer stored in input-major layout:
// kernel is (in x 4H), recurrent is (H x 4H), bias has 4H entries. Gate
// blocks are ordered input, forget, cell candidate, output.
type lstm struct {
	in, hidden int
	kernel     *mat.Dense
	recurrent  *mat.Dense
	bias       []float64
}

func newLSTM(kernel, recurrent [][]float64, bias []float64) (*lstm, error) {
	k, err := denseFrom(kernel)
	if err != nil {
		return nil, fmt.Errorf("lstm kernel: %w", err)
	}
	r, err := denseFrom(recurrent)
	if err != nil {
		return nil, fmt.Errorf("lstm recurrent kernel: %w", err)
	}
	in, gates := k.Dims()
	hidden, rGates := r.Dims()
	if gates != 4*hidden || rGates != gates {
		return nil, fmt.Errorf("lstm: kernel %dx%d and recurrent kernel %dx%d do not describe 4 gates", in, gates, hidden, rGates)
	}
	if len(bias) != gates {
		return nil, fmt.Errorf("lstm: bias has %d entries, want %d", len(bias), gates)
	}
	return &lstm{in: in, hidden: hidden, kernel: k, recurrent: r, bias: bias}, nil
}

// forward runs the layer over a batch of sequences given as one (B x in)
// matrix per time step and returns the hidden state (B x H) for every step.
func (l *lstm) forward(steps []*mat.Dense) ([]*mat.Dense, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("lstm: empty sequence")
	}
	batch, in := steps[0].Dims()
	if in != l.in {
		return nil, fmt.Errorf("lstm: expected %d input features, got %d", l.in, in)
	}
	H := l.hidden

	h := mat.NewDense(batch, H, nil)
	c := mat.NewDense(batch, H, nil)
	z := mat.NewDense(batch, 4*H, nil)
	rec := mat.NewDense(batch, 4*H, nil)
	outputs := make([]*mat.Dense, 0, len(steps))

	for _, x := range steps {
		z.Mul(x, l.kernel)
		rec.Mul(h, l.recurrent)
		z.Add(z, rec)

		next := mat.NewDense(batch, H, nil)
		for b := 0; b < batch; b++ {
			for j := 0; j < H; j++ {
				ig := sigmoid(z.At(b, j) + l.bias[j])
				fg := sigmoid(z.At(b, H+j) + l.bias[H+j])
				cg := math.Tanh(z.At(b, 2*H+j) + l.bias[2*H+j])
				og := sigmoid(z.At(b, 3*H+j) + l.bias[3*H+j])
				cell := fg*c.At(b, j) + ig*cg
				c.Set(b, j, cell)
				next.Set(b, j, og*math.Tanh(cell))
			}
		}
		h = next
		outputs = append(outputs, next)
	}
	return outputs, nil
}

// dense is a fully connected layer: y = act(x * kernel + bias).
type dense struct {
	kernel *mat.Dense
	bias   []float64
	act    Activation
}

func newDense(kernel [][]float64, bias []float64, activation string) (*dense, error) {
	k, err := denseFrom(kernel)
	if err != nil {
		return nil, fmt.Errorf("dense kernel: %w", err)
	}
	_, out := k.Dims()
	if len(bias) != out {
		return nil, fmt.Errorf("dense: bias has %d entries, want %d", len(bias), out)
	}
	act, err := ParseActivation(activation)
	if err != nil {
		return nil, err
	}
	return &dense{kernel: k, bias: bias, act: act}, nil
}

func (d *dense) inputs() int {
	in, _ := d.kernel.Dims()
	return in
}

func (d *dense) forward(x *mat.Dense) (*mat.Dense, error) {
	_, in := x.Dims()
	if in != d.inputs() {
		return nil, fmt.Errorf("dense: expected %d inputs, got %d", d.inputs(), in)
	}
	var y mat.Dense
	y.Mul(x, d.kernel)
	rows, cols := y.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			y.Set(i, j, d.act(y.At(i, j)+d.bias[j]))
		}
	}
	return &y, nil
}

// denseFrom copies a rectangular [][]float64 into a gonum matrix.
func denseFrom(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty matrix")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// transpose returns rows' transpose; PyTorch stores weights output-major.
func transpose(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]float64, len(rows[0]))
	for j := range out {
		out[j] = make([]float64, len(rows))
		for i := range rows {
			if j < len(rows[i]) {
				out[j][i] = rows[i][j]
			}
		}
	}
	return out
}

// stepMatrices turns a batch of sequences (B x T x F) into T matrices of
// shape (B x F).
func stepMatrices(batch [][][]float64) ([]*mat.Dense, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	T := len(batch[0])
	if T == 0 {
		return nil, fmt.Errorf("empty sequence")
	}
	F := len(batch[0][0])
	if F == 0 {
		return nil, fmt.Errorf("sequence has no features")
	}
	steps := make([]*mat.Dense, T)
	for t := 0; t < T; t++ {
		m := mat.NewDense(len(batch), F, nil)
		for b, seq := range batch {
			if len(seq) != T {
				return nil, fmt.Errorf("sequence %d has %d steps, want %d", b, len(seq), T)
			}
			if len(seq[t]) != F {
				return nil, fmt.Errorf("sequence %d step %d has %d features, want %d", b, t, len(seq[t]), F)
			}
			m.SetRow(b, seq[t])
		}
		steps[t] = m
	}
	return steps, nil
}
