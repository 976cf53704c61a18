package dataset

import "fmt"

type Partition int

const (
	Train Partition = iota
	Validation
)

func (p Partition) String() string {
	switch p {
	case Train:
		return "train"
	case Validation:
		return "validation"
	}
	return fmt.Sprintf("partition(%d)", int(p))
}

// View is a read-only, indexable projection of one partition of a split,
// yielding normalized samples. Two views built from the same split and stats
// normalize any sample identically; the validation view never recomputes
// statistics.
type View struct {
	raw     *Raw
	indices []int
	stats   Stats
}

func (s *Split) View(partition Partition, stats Stats) (*View, error) {
	switch partition {
	case Train:
		return &View{raw: s.raw, indices: s.TrainIndices, stats: stats}, nil
	case Validation:
		return &View{raw: s.raw, indices: s.ValidationIndices, stats: stats}, nil
	}
	return nil, fmt.Errorf("%w: unknown partition %d", ErrInvalidConfiguration, int(partition))
}

func (v *View) Len() int {
	return len(v.indices)
}

func (v *View) Stats() Stats {
	return v.stats
}

// Dim returns the input dimensionality of the underlying samples.
func (v *View) Dim() int {
	return v.raw.Dim()
}

// At returns the normalized input vector and label at position i. The
// returned slice is freshly allocated; the underlying raw data is never
// exposed mutable.
func (v *View) At(i int) ([]float64, int, error) {
	if i < 0 || i >= len(v.indices) {
		return nil, 0, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, len(v.indices))
	}
	idx := v.indices[i]
	in := v.raw.Inputs[idx]
	out := make([]float64, len(in))
	for j, x := range in {
		out[j] = v.stats.Normalize(x)
	}
	label := 0
	if v.raw.Labels != nil {
		label = v.raw.Labels[idx]
	}
	return out, label, nil
}
