// Package latent extracts bottleneck representations from trained models and
// persists them, so downstream visualization runs can reload embeddings
// without retraining.
package latent

import (
	"fmt"
	"os"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/signalworks/mnist1d/pkg/dataset"
	"github.com/signalworks/mnist1d/pkg/train"
)

// Encode runs the model's evaluation forward pass over every sample of a
// view, in view order, and collects the latent vectors into an [n, latent]
// matrix alongside the labels. With frozen weights the result is numerically
// identical across calls, which is what makes the persisted arrays reusable.
func Encode(m train.Model, view *dataset.View) (*tensor.Dense, []int, error) {
	n := view.Len()
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: view has no samples", train.ErrEmptyIterator)
	}
	dim := view.Dim()

	g := gorgonia.NewGraph()
	x := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(1, dim),
		gorgonia.WithName("x"))

	fwd, err := m.Fwd(g, x, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build forward pass: %w", err)
	}
	if fwd.Latent == nil {
		return nil, nil, fmt.Errorf("%w: model exposes no latent node", dataset.ErrInvalidConfiguration)
	}
	latentDim := fwd.Latent.Shape()[1]

	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()

	out := make([]float64, n*latentDim)
	labels := make([]int, n)

	for i := 0; i < n; i++ {
		xv, label, err := view.At(i)
		if err != nil {
			return nil, nil, err
		}
		xt := tensor.New(tensor.WithShape(1, dim), tensor.WithBacking(xv))
		if err := gorgonia.Let(x, xt); err != nil {
			return nil, nil, fmt.Errorf("failed to bind input tensor: %v", err)
		}

		vm.Reset()
		if err := vm.RunAll(); err != nil {
			return nil, nil, fmt.Errorf("forward pass failed for sample %d: %v", i, err)
		}

		// Copy out: the node's backing slice is reused on the next run.
		copy(out[i*latentDim:(i+1)*latentDim], fwd.Latent.Value().Data().([]float64))
		labels[i] = label
	}

	return tensor.New(tensor.WithShape(n, latentDim), tensor.WithBacking(out)), labels, nil
}

// LabelsDense packs integer labels into a float64 tensor for npy storage.
func LabelsDense(labels []int) *tensor.Dense {
	backing := make([]float64, len(labels))
	for i, l := range labels {
		backing[i] = float64(l)
	}
	return tensor.New(tensor.WithShape(len(labels)), tensor.WithBacking(backing))
}

// SaveNpy writes a tensor to path in numpy .npy format.
func SaveNpy(path string, t *tensor.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	return t.WriteNpy(f)
}

// LoadNpy reads a tensor from a numpy .npy file.
func LoadNpy(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	t := new(tensor.Dense)
	if err := t.ReadNpy(f); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %v", path, err)
	}
	return t, nil
}
