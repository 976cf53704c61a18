// Package mnist1d synthesizes the MNIST-1D dataset: fixed-length 1-D signals
// derived from coarse digit templates, deformed and overlaid with noise. The
// same configuration always produces the same dataset, which is what makes
// paired clean/noisy variants possible (same seed, different noise scales).
package mnist1d

import (
	"fmt"
	"math/rand"

	"github.com/signalworks/mnist1d/pkg/dataset"
)

type Config struct {
	Samples int
	Dim     int
	Seed    int64

	// NoiseScale is the standard deviation of iid gaussian noise added per
	// sample point. CorrNoiseScale scales a demeaned random walk overlaid on
	// the whole signal, producing correlated jitter.
	NoiseScale     float64
	CorrNoiseScale float64

	// MaxShift is the largest circular translation (in sample points) applied
	// to a signal. AmplitudeJitter is the relative amplitude deformation
	// range, e.g. 0.2 scales each signal by a factor in [0.8, 1.2].
	MaxShift        int
	AmplitudeJitter float64
}

func DefaultConfig() Config {
	return Config{
		Samples:         4000,
		Dim:             40,
		Seed:            40,
		NoiseScale:      0.05,
		CorrNoiseScale:  0,
		MaxShift:        4,
		AmplitudeJitter: 0.2,
	}
}

// Generate synthesizes a balanced, label-shuffled sample set. Two separate
// random streams are used: one for the signal structure (sample order,
// translation, amplitude) and one for the noise overlay. Structure draws
// never depend on the noise configuration, so two Generate calls with the
// same seed but different noise scales yield sample-aligned datasets with
// identical labels.
func Generate(cfg Config) (*dataset.Raw, error) {
	if cfg.Samples <= 0 {
		return nil, fmt.Errorf("%w: samples must be positive, got %d", dataset.ErrInvalidConfiguration, cfg.Samples)
	}
	if cfg.Dim < templateLen {
		return nil, fmt.Errorf("%w: dim %d smaller than template length %d", dataset.ErrInvalidConfiguration, cfg.Dim, templateLen)
	}
	if cfg.MaxShift < 0 || cfg.MaxShift >= cfg.Dim {
		return nil, fmt.Errorf("%w: max shift %d outside [0,%d)", dataset.ErrInvalidConfiguration, cfg.MaxShift, cfg.Dim)
	}

	structure := rand.New(rand.NewSource(cfg.Seed))
	noise := rand.New(rand.NewSource(cfg.Seed + 1))

	// Balanced classes, interleaved by a seeded permutation.
	order := structure.Perm(cfg.Samples)
	labels := make([]int, cfg.Samples)
	for i := range labels {
		labels[i] = order[i] % 10
	}

	inputs := make([][]float64, cfg.Samples)
	for i := range inputs {
		amplitude := 1 + (2*structure.Float64()-1)*cfg.AmplitudeJitter
		shift := 0
		if cfg.MaxShift > 0 {
			shift = structure.Intn(2*cfg.MaxShift+1) - cfg.MaxShift
		}

		signal := upsample(templates[labels[i]], cfg.Dim)
		signal = rotate(signal, shift)
		for j := range signal {
			signal[j] *= amplitude
		}

		if cfg.CorrNoiseScale > 0 {
			addWalkNoise(noise, signal, cfg.CorrNoiseScale)
		} else {
			// Keep the noise stream aligned with configurations that do use
			// correlated noise of the same seed.
			for range signal {
				noise.NormFloat64()
			}
		}
		for j := range signal {
			signal[j] += noise.NormFloat64() * cfg.NoiseScale
		}

		inputs[i] = signal
	}

	return &dataset.Raw{Inputs: inputs, Labels: labels}, nil
}

// upsample linearly interpolates a template to n points.
func upsample(t [templateLen]float64, n int) []float64 {
	out := make([]float64, n)
	step := float64(templateLen-1) / float64(n-1)
	for j := range out {
		pos := float64(j) * step
		lo := int(pos)
		if lo >= templateLen-1 {
			out[j] = t[templateLen-1]
			continue
		}
		frac := pos - float64(lo)
		out[j] = t[lo]*(1-frac) + t[lo+1]*frac
	}
	return out
}

// rotate circularly shifts a signal by s points; s may be negative.
func rotate(signal []float64, s int) []float64 {
	n := len(signal)
	s = ((s % n) + n) % n
	if s == 0 {
		return signal
	}
	out := make([]float64, n)
	for j := range signal {
		out[(j+s)%n] = signal[j]
	}
	return out
}

// addWalkNoise overlays a demeaned gaussian random walk scaled to the given
// amplitude, producing noise that is correlated across neighboring points.
func addWalkNoise(rng *rand.Rand, signal []float64, scale float64) {
	walk := make([]float64, len(signal))
	sum, mean := 0.0, 0.0
	for j := range walk {
		sum += rng.NormFloat64()
		walk[j] = sum
		mean += sum
	}
	mean /= float64(len(walk))
	for j := range signal {
		signal[j] += (walk[j] - mean) * scale
	}
}
