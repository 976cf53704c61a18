package dataset

import "fmt"

// Stats holds min/max scaling statistics. They are computed from the training
// partition only and then reused verbatim for the validation view, so no
// validation value can ever influence Loc or Scale.
type Stats struct {
	Loc   float64
	Scale float64
}

// Stats scans the training partition for its minimum and range. A constant
// training partition has no usable range; rather than silently dividing by
// zero the adapter reports ErrDegenerateData and lets the caller decide
// whether to substitute Stats{Loc: loc, Scale: 1} or abort.
func (s *Split) Stats() (Stats, error) {
	min, max := s.raw.Inputs[s.TrainIndices[0]][0], s.raw.Inputs[s.TrainIndices[0]][0]
	for _, idx := range s.TrainIndices {
		for _, v := range s.raw.Inputs[idx] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}

	if max == min {
		return Stats{}, fmt.Errorf("%w: training partition is constant at %v", ErrDegenerateData, min)
	}

	return Stats{Loc: min, Scale: max - min}, nil
}

// Normalize applies the frozen statistics to a single value.
func (st Stats) Normalize(v float64) float64 {
	return (v - st.Loc) / st.Scale
}
