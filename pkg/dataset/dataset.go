package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrDegenerateData       = errors.New("degenerate data")
	ErrIndexOutOfRange      = errors.New("index out of range")
)

// Raw is an immutable pair of parallel sequences: fixed-length input vectors
// and their integer class labels. It is produced once by a generator and
// never mutated by the adapter.
type Raw struct {
	Inputs [][]float64
	Labels []int
}

func (r *Raw) Len() int {
	return len(r.Inputs)
}

// Dim returns the input dimensionality, or 0 for an empty set.
func (r *Raw) Dim() int {
	if len(r.Inputs) == 0 {
		return 0
	}
	return len(r.Inputs[0])
}

// Split partitions a raw sample set into disjoint train and validation index
// sets. The partition depends only on (seed, fraction, sample count), so
// rebuilding it in another process yields the same assignment.
type Split struct {
	raw               *Raw
	TrainIndices      []int
	ValidationIndices []int
	Fraction          float64
	Seed              int64
}

// New validates eagerly: a bad fraction, an empty sample set, mismatched
// input/label lengths or ragged input vectors all fail here, before any
// training begins.
func New(raw *Raw, fraction float64, seed int64) (*Split, error) {
	if raw == nil || raw.Len() == 0 {
		return nil, fmt.Errorf("%w: empty sample set", ErrInvalidConfiguration)
	}
	if fraction <= 0 || fraction >= 1 {
		return nil, fmt.Errorf("%w: validation fraction %v outside (0,1)", ErrInvalidConfiguration, fraction)
	}
	if raw.Labels != nil && len(raw.Labels) != len(raw.Inputs) {
		return nil, fmt.Errorf("%w: %d inputs vs %d labels", ErrInvalidConfiguration, len(raw.Inputs), len(raw.Labels))
	}
	dim := raw.Dim()
	for i, in := range raw.Inputs {
		if len(in) != dim {
			return nil, fmt.Errorf("%w: input %d has length %d, want %d", ErrInvalidConfiguration, i, len(in), dim)
		}
	}

	n := raw.Len()
	countValidation := int(math.Round(fraction * float64(n)))
	if countValidation == 0 || countValidation == n {
		return nil, fmt.Errorf("%w: fraction %v leaves a partition empty for %d samples", ErrInvalidConfiguration, fraction, n)
	}

	indices := rand.New(rand.NewSource(seed)).Perm(n)
	trainIndices := append([]int{}, indices[:n-countValidation]...)
	validationIndices := append([]int{}, indices[n-countValidation:]...)
	sort.Ints(trainIndices)
	sort.Ints(validationIndices)

	return &Split{
		raw:               raw,
		TrainIndices:      trainIndices,
		ValidationIndices: validationIndices,
		Fraction:          fraction,
		Seed:              seed,
	}, nil
}

func (s *Split) Raw() *Raw {
	return s.raw
}
