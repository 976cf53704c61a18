// Package batch turns dataset views into fixed-size tensor batches for the
// training loop. Shuffling is owned here, driven by a caller-supplied seeded
// rand; the training loop itself introduces no randomness.
package batch

import (
	"fmt"
	"math/rand"

	"gorgonia.org/tensor"

	"github.com/signalworks/mnist1d/pkg/dataset"
)

// Batch is one fixed-size slice of samples. Inputs has shape
// [batchSize, dim]. Targets is either a one-hot [batchSize, classes] matrix
// (classification) or a [batchSize, dim] signal matrix (reconstruction).
// Labels carries the integer class indices for accuracy bookkeeping.
type Batch struct {
	Inputs  *tensor.Dense
	Targets *tensor.Dense
	Labels  []int
}

type Loader struct {
	view      *dataset.View
	targets   *dataset.View
	classes   int
	batchSize int
	rng       *rand.Rand
	order     []int
	pos       int
}

// NewClassification builds a loader yielding one-hot class targets. A nil
// rng disables shuffling; otherwise the order is reshuffled on every Reset,
// so per-epoch shuffling is as deterministic as the rng's seed.
func NewClassification(view *dataset.View, classes, batchSize int, rng *rand.Rand) (*Loader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", dataset.ErrInvalidConfiguration, batchSize)
	}
	if classes <= 0 {
		return nil, fmt.Errorf("%w: class count %d", dataset.ErrInvalidConfiguration, classes)
	}
	for i := 0; i < view.Len(); i++ {
		if _, label, err := view.At(i); err != nil {
			return nil, err
		} else if label < 0 || label >= classes {
			return nil, fmt.Errorf("%w: label %d at sample %d outside [0,%d)", dataset.ErrInvalidConfiguration, label, i, classes)
		}
	}

	l := &Loader{view: view, classes: classes, batchSize: batchSize, rng: rng}
	l.Reset()
	return l, nil
}

// NewReconstruction builds a loader whose targets come from a second,
// position-aligned view. Passing a nil target view makes each sample its own
// target (plain autoencoding); a distinct clean view against a noisy input
// view gives the denoising setup.
func NewReconstruction(view, targetView *dataset.View, batchSize int, rng *rand.Rand) (*Loader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", dataset.ErrInvalidConfiguration, batchSize)
	}
	if targetView != nil {
		if targetView.Len() != view.Len() {
			return nil, fmt.Errorf("%w: target view has %d samples, input view %d", dataset.ErrInvalidConfiguration, targetView.Len(), view.Len())
		}
		if targetView.Dim() != view.Dim() {
			return nil, fmt.Errorf("%w: target dim %d, input dim %d", dataset.ErrInvalidConfiguration, targetView.Dim(), view.Dim())
		}
	}

	l := &Loader{view: view, targets: targetView, batchSize: batchSize, rng: rng}
	l.Reset()
	return l, nil
}

// Len is the number of full batches per epoch; a ragged tail is dropped.
func (l *Loader) Len() int {
	return l.view.Len() / l.batchSize
}

// Dims reports (batch size, input dim, target dim).
func (l *Loader) Dims() (int, int, int) {
	if l.classes > 0 {
		return l.batchSize, l.view.Dim(), l.classes
	}
	return l.batchSize, l.view.Dim(), l.view.Dim()
}

// Reset rewinds to the first batch and reshuffles when a rng was supplied.
func (l *Loader) Reset() {
	if l.order == nil {
		l.order = make([]int, l.view.Len())
		for i := range l.order {
			l.order[i] = i
		}
	}
	if l.rng != nil {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
}

// Next yields the next batch, or false once the epoch is exhausted.
func (l *Loader) Next() (*Batch, bool) {
	if l.pos+l.batchSize > l.view.Len() {
		return nil, false
	}

	dim := l.view.Dim()
	_, _, targetDim := l.Dims()

	inputs := make([]float64, l.batchSize*dim)
	targets := make([]float64, l.batchSize*targetDim)
	labels := make([]int, l.batchSize)

	for r := 0; r < l.batchSize; r++ {
		idx := l.order[l.pos+r]
		x, label, err := l.view.At(idx)
		if err != nil {
			// Order indices are built from the view's own length.
			panic(err)
		}
		copy(inputs[r*dim:(r+1)*dim], x)
		labels[r] = label

		switch {
		case l.classes > 0:
			targets[r*targetDim+label] = 1
		case l.targets != nil:
			y, _, err := l.targets.At(idx)
			if err != nil {
				panic(err)
			}
			copy(targets[r*targetDim:(r+1)*targetDim], y)
		default:
			copy(targets[r*targetDim:(r+1)*targetDim], x)
		}
	}
	l.pos += l.batchSize

	return &Batch{
		Inputs:  tensor.New(tensor.WithShape(l.batchSize, dim), tensor.WithBacking(inputs)),
		Targets: tensor.New(tensor.WithShape(l.batchSize, targetDim), tensor.WithBacking(targets)),
		Labels:  labels,
	}, true
}
