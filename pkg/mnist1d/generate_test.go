package mnist1d_test

import (
	"testing"

	"github.com/signalworks/mnist1d/pkg/dataset"
	"github.com/signalworks/mnist1d/pkg/mnist1d"
	"github.com/stretchr/testify/require"
)

func TestGenerateShape(t *testing.T) {
	raw, err := mnist1d.Generate(mnist1d.DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, 4000, raw.Len())
	require.Equal(t, 40, raw.Dim())
	require.Len(t, raw.Labels, 4000)
	for i, label := range raw.Labels {
		require.GreaterOrEqual(t, label, 0, "sample %d", i)
		require.Less(t, label, 10, "sample %d", i)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := mnist1d.DefaultConfig()
	cfg.Samples = 500

	r1, err := mnist1d.Generate(cfg)
	require.NoError(t, err)
	r2, err := mnist1d.Generate(cfg)
	require.NoError(t, err)

	require.Equal(t, r1.Labels, r2.Labels)
	require.Equal(t, r1.Inputs, r2.Inputs)
}

func TestGenerateBalancedClasses(t *testing.T) {
	cfg := mnist1d.DefaultConfig()
	cfg.Samples = 1000

	raw, err := mnist1d.Generate(cfg)
	require.NoError(t, err)

	counts := make(map[int]int)
	for _, label := range raw.Labels {
		counts[label]++
	}
	for class := 0; class < 10; class++ {
		require.Equal(t, 100, counts[class], "class %d", class)
	}
}

func TestGeneratePairedCleanNoisy(t *testing.T) {
	clean := mnist1d.DefaultConfig()
	clean.Samples = 500
	clean.NoiseScale = 0
	clean.CorrNoiseScale = 0

	noisy := clean
	noisy.NoiseScale = 0.1

	cr, err := mnist1d.Generate(clean)
	require.NoError(t, err)
	nr, err := mnist1d.Generate(noisy)
	require.NoError(t, err)

	// Same seed: labels align exactly, inputs differ only by the overlay.
	require.Equal(t, cr.Labels, nr.Labels)
	require.NotEqual(t, cr.Inputs, nr.Inputs)

	for i := range cr.Inputs {
		for j := range cr.Inputs[i] {
			require.InDelta(t, cr.Inputs[i][j], nr.Inputs[i][j], 1.0, "sample %d point %d", i, j)
		}
	}
}

func TestGeneratePairedCorrelatedNoise(t *testing.T) {
	clean := mnist1d.DefaultConfig()
	clean.Samples = 200
	clean.NoiseScale = 0
	clean.CorrNoiseScale = 0

	noisy := clean
	noisy.CorrNoiseScale = 0.05

	cr, err := mnist1d.Generate(clean)
	require.NoError(t, err)
	nr, err := mnist1d.Generate(noisy)
	require.NoError(t, err)

	require.Equal(t, cr.Labels, nr.Labels)
}

func TestGenerateSeedChangesData(t *testing.T) {
	cfg := mnist1d.DefaultConfig()
	cfg.Samples = 200

	r1, err := mnist1d.Generate(cfg)
	require.NoError(t, err)

	cfg.Seed++
	r2, err := mnist1d.Generate(cfg)
	require.NoError(t, err)

	require.NotEqual(t, r1.Labels, r2.Labels)
}

func TestGenerateValidation(t *testing.T) {
	cfg := mnist1d.DefaultConfig()
	cfg.Samples = 0
	_, err := mnist1d.Generate(cfg)
	require.ErrorIs(t, err, dataset.ErrInvalidConfiguration)

	cfg = mnist1d.DefaultConfig()
	cfg.Dim = 8
	_, err = mnist1d.Generate(cfg)
	require.ErrorIs(t, err, dataset.ErrInvalidConfiguration)

	cfg = mnist1d.DefaultConfig()
	cfg.MaxShift = cfg.Dim
	_, err = mnist1d.Generate(cfg)
	require.ErrorIs(t, err, dataset.ErrInvalidConfiguration)
}
