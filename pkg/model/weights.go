// Package model provides small dense networks for the 1-D signal lessons: a
// softmax classifier and a bottleneck autoencoder. Each model owns its
// weight tensors and builds graph nodes around them on demand, so the same
// weights can back a training graph, an evaluation graph and a latent
// encoder at once, and solver updates are visible everywhere in place.
package model

import (
	"math"
	"math/rand"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// glorot initializes a weight matrix with Glorot/Xavier gaussian scaling
// from the caller's rng, keeping model initialization deterministic for a
// fixed seed.
func glorot(rng *rand.Rand, rows, cols int) *tensor.Dense {
	scale := math.Sqrt(2.0 / float64(rows+cols))
	backing := make([]float64, rows*cols)
	for i := range backing {
		backing[i] = rng.NormFloat64() * scale
	}
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
}

func weightNode(g *gorgonia.ExprGraph, name string, w *tensor.Dense) *gorgonia.Node {
	return gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(w.Shape()...),
		gorgonia.WithName(name),
		gorgonia.WithValue(w))
}
