package dataset

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Params collects every environment-tunable knob of the experiment pipeline.
type Params struct {
	Samples            int
	ValidationFraction float64
	SplitSeed          int64
	DataSeed           int64
	NoiseScale         float64
	CorrNoiseScale     float64

	BatchSize  int
	Epochs     int
	LogEvery   int
	LearnRate  float64
	LatentSize int
	HiddenSize int
	Dropout    float64
}

func (p *Params) Write(w io.Writer, title string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendRows([]table.Row{
		{"MNIST1D_SAMPLES", fmt.Sprintf("%d", p.Samples)},
		{"MNIST1D_VALIDATION_FRACTION", fmt.Sprintf("%0.04f", p.ValidationFraction)},
		{"MNIST1D_SPLIT_SEED", fmt.Sprintf("%d", p.SplitSeed)},
		{"MNIST1D_DATA_SEED", fmt.Sprintf("%d", p.DataSeed)},
		{"MNIST1D_NOISE_SCALE", fmt.Sprintf("%0.04f", p.NoiseScale)},
		{"MNIST1D_CORR_NOISE_SCALE", fmt.Sprintf("%0.04f", p.CorrNoiseScale)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"MNIST1D_BATCH_SIZE", fmt.Sprintf("%d", p.BatchSize)},
		{"MNIST1D_EPOCHS", fmt.Sprintf("%d", p.Epochs)},
		{"MNIST1D_LOG_EVERY", fmt.Sprintf("%d", p.LogEvery)},
		{"MNIST1D_LEARN_RATE", fmt.Sprintf("%.06f", p.LearnRate)},
		{"MNIST1D_LATENT_SIZE", fmt.Sprintf("%d", p.LatentSize)},
		{"MNIST1D_HIDDEN_SIZE", fmt.Sprintf("%d", p.HiddenSize)},
		{"MNIST1D_DROPOUT_RATE", fmt.Sprintf("%.06f", p.Dropout)},
	})
	t.Render()
}

func NewParamsFromEnv() Params {
	return Params{
		Samples:            Samples(),
		ValidationFraction: ValidationFraction(),
		SplitSeed:          SplitSeed(),
		DataSeed:           DataSeed(),
		NoiseScale:         NoiseScale(),
		CorrNoiseScale:     CorrNoiseScale(),

		BatchSize:  BatchSize(),
		Epochs:     Epochs(),
		LogEvery:   LogEvery(),
		LearnRate:  LearnRate(),
		LatentSize: LatentSize(),
		HiddenSize: HiddenSize(),
		Dropout:    Dropout(),
	}
}

func envInt(name string, def func() int, dec func(v int) int) func() int {
	return func() int {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseInt(v, 10, 32); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = int(v)
			}
		}
		return dec(value)
	}
}

func envInt64(name string, def func() int64) func() int64 {
	return func() int64 {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseInt(v, 10, 64); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = v
			}
		}
		return value
	}
}

func envFloat64(name string, def func() float64, dec func(v float64) float64) func() float64 {
	return func() float64 {
		value := def()
		if v, ok := os.LookupEnv(name); ok {
			if v, err := strconv.ParseFloat(v, 64); err != nil {
				log.Fatalf("failed to parse env.%s: %v", name, err)
			} else {
				value = v
			}
		}
		return dec(value)
	}
}

func BoundSamples(v int) int {
	return int(math.Max(100, math.Min(100000, float64(v)))) // Default: 4000
}

func BoundValidationFraction(v float64) float64 {
	return math.Max(0.01, math.Min(0.5, v)) // Default: 0.1
}

func BoundNoiseScale(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func BoundBatchSize(v int) int {
	return int(math.Max(1, math.Min(1024, float64(v)))) // Default: 64
}

func BoundEpochs(v int) int {
	return int(math.Max(0, math.Min(1000, float64(v)))) // Default: 20
}

func BoundLogEvery(v int) int {
	return int(math.Max(1, math.Min(100, float64(v)))) // Default: 5
}

func BoundLearnRate(v float64) float64 {
	return math.Max(1e-6, math.Min(1, v)) // Default: 0.001
}

func BoundLatentSize(v int) int {
	return int(math.Max(2, math.Min(64, float64(v)))) // Default: 10
}

func BoundHiddenSize(v int) int {
	return int(math.Max(4, math.Min(1024, float64(v)))) // Default: 128
}

func BoundDropout(v float64) float64 {
	return math.Max(0, math.Min(0.9, v)) // Default: 0.1
}

var (
	Samples            = envInt("MNIST1D_SAMPLES", func() int { return 4000 }, BoundSamples)
	ValidationFraction = envFloat64("MNIST1D_VALIDATION_FRACTION", func() float64 { return 0.1 }, BoundValidationFraction)
	SplitSeed          = envInt64("MNIST1D_SPLIT_SEED", func() int64 { return 42 })
	DataSeed           = envInt64("MNIST1D_DATA_SEED", func() int64 { return 40 })
	NoiseScale         = envFloat64("MNIST1D_NOISE_SCALE", func() float64 { return 0.05 }, BoundNoiseScale)
	CorrNoiseScale     = envFloat64("MNIST1D_CORR_NOISE_SCALE", func() float64 { return 0 }, BoundNoiseScale)
)

var (
	BatchSize  = envInt("MNIST1D_BATCH_SIZE", func() int { return 64 }, BoundBatchSize)
	Epochs     = envInt("MNIST1D_EPOCHS", func() int { return 20 }, BoundEpochs)
	LogEvery   = envInt("MNIST1D_LOG_EVERY", func() int { return 5 }, BoundLogEvery)
	LearnRate  = envFloat64("MNIST1D_LEARN_RATE", func() float64 { return 0.001 }, BoundLearnRate)
	LatentSize = envInt("MNIST1D_LATENT_SIZE", func() int { return 10 }, BoundLatentSize)
	HiddenSize = envInt("MNIST1D_HIDDEN_SIZE", func() int { return 128 }, BoundHiddenSize)
	Dropout    = envFloat64("MNIST1D_DROPOUT_RATE", func() float64 { return 0.1 }, BoundDropout)
)
