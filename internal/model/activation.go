package model

import (
	"fmt"
	"math"
	"strings"
)

// Softplus is log(1 + e^x), evaluated without overflowing for large x.
func Softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func relu(x float64) float64 { return math.Max(0, x) }

func identity(x float64) float64 { return x }

// Activation is an element-wise nonlinearity.
type Activation func(float64) float64

// ParseActivation maps Keras activation names to functions.
func ParseActivation(name string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return identity, nil
	case "relu":
		return relu, nil
	case "sigmoid":
		return sigmoid, nil
	case "tanh":
		return math.Tanh, nil
	case "softplus":
		return Softplus, nil
	}
	return nil, fmt.Errorf("unsupported activation %q", name)
}
