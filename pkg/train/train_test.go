package train_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/signalworks/mnist1d/pkg/batch"
	"github.com/signalworks/mnist1d/pkg/dataset"
	"github.com/signalworks/mnist1d/pkg/model"
	"github.com/signalworks/mnist1d/pkg/train"
	"github.com/stretchr/testify/require"
	"gorgonia.org/gorgonia"
)

func newViews(t *testing.T, n, dim, classes int) (*dataset.View, *dataset.View) {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	inputs := make([][]float64, n)
	labels := make([]int, n)
	for i := range inputs {
		inputs[i] = make([]float64, dim)
		for j := range inputs[i] {
			inputs[i][j] = rng.Float64()
		}
		labels[i] = i % classes
	}

	s, err := dataset.New(&dataset.Raw{Inputs: inputs, Labels: labels}, 0.25, 42)
	require.NoError(t, err)
	stats, err := s.Stats()
	require.NoError(t, err)
	trainView, err := s.View(dataset.Train, stats)
	require.NoError(t, err)
	validView, err := s.View(dataset.Validation, stats)
	require.NoError(t, err)
	return trainView, validView
}

func denoiseSetup(t *testing.T) (*model.Autoencoder, train.Iterator, train.Iterator) {
	t.Helper()

	trainView, validView := newViews(t, 64, 6, 10)

	trainIter, err := batch.NewReconstruction(trainView, nil, 8, rand.New(rand.NewSource(13)))
	require.NoError(t, err)
	validIter, err := batch.NewReconstruction(validView, nil, 8, nil)
	require.NoError(t, err)

	ae := model.NewAutoencoder(model.AutoencoderConfig{
		InputDim: 6,
		Hidden:   16,
		Latent:   3,
	}, rand.New(rand.NewSource(12)))

	return ae, trainIter, validIter
}

func TestRunZeroEpochsIsNoOp(t *testing.T) {
	ae, trainIter, validIter := denoiseSetup(t)
	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))

	hist, err := train.Run(train.Config{MaxEpochs: 0}, ae, solver, train.MSE, trainIter, validIter, nil)
	require.NoError(t, err)
	require.Empty(t, hist)

	prior := train.History{train.TrainLoss: {0.5}}
	hist, err = train.Run(train.Config{MaxEpochs: 0}, ae, solver, train.MSE, trainIter, validIter, prior)
	require.NoError(t, err)
	require.Equal(t, prior, hist)
}

func TestRunAppendsPerEpoch(t *testing.T) {
	ae, trainIter, validIter := denoiseSetup(t)
	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))

	hist, err := train.Run(train.Config{MaxEpochs: 4}, ae, solver, train.MSE, trainIter, validIter, nil)
	require.NoError(t, err)

	require.Equal(t, 4, hist.Epochs(train.TrainLoss))
	require.Equal(t, 4, hist.Epochs(train.ValidationLoss))

	// Reconstruction runs never materialize accuracy series.
	_, ok := hist[train.TrainAcc]
	require.False(t, ok)
	_, ok = hist[train.ValidationAcc]
	require.False(t, ok)
}

func TestRunWarmStart(t *testing.T) {
	ae, trainIter, validIter := denoiseSetup(t)
	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))

	hist, err := train.Run(train.Config{MaxEpochs: 3}, ae, solver, train.MSE, trainIter, validIter, nil)
	require.NoError(t, err)
	first := append([]float64{}, hist[train.TrainLoss]...)

	hist, err = train.Run(train.Config{MaxEpochs: 2}, ae, solver, train.MSE, trainIter, validIter, hist)
	require.NoError(t, err)

	require.Equal(t, 5, hist.Epochs(train.TrainLoss))
	require.Equal(t, 5, hist.Epochs(train.ValidationLoss))
	require.Equal(t, first, hist[train.TrainLoss][:3])
}

func TestRunReducesLoss(t *testing.T) {
	ae, trainIter, validIter := denoiseSetup(t)
	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))

	hist, err := train.Run(train.Config{MaxEpochs: 30}, ae, solver, train.MSE, trainIter, validIter, nil)
	require.NoError(t, err)

	losses := hist[train.TrainLoss]
	require.Less(t, losses[len(losses)-1], losses[0])
}

func TestRunReproducible(t *testing.T) {
	run := func() train.History {
		ae, trainIter, validIter := denoiseSetup(t)
		solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))
		hist, err := train.Run(train.Config{MaxEpochs: 5}, ae, solver, train.MSE, trainIter, validIter, nil)
		require.NoError(t, err)
		return hist
	}

	h1 := run()
	h2 := run()
	require.Equal(t, h1, h2)
}

func TestRunClassification(t *testing.T) {
	trainView, validView := newViews(t, 64, 6, 4)

	trainIter, err := batch.NewClassification(trainView, 4, 8, rand.New(rand.NewSource(13)))
	require.NoError(t, err)
	validIter, err := batch.NewClassification(validView, 4, 8, nil)
	require.NoError(t, err)

	clf := model.NewClassifier(model.ClassifierConfig{
		InputDim: 6,
		Hidden1:  16,
		Hidden2:  8,
		Classes:  4,
	}, rand.New(rand.NewSource(12)))

	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))
	hist, err := train.Run(train.Config{
		MaxEpochs: 3,
		Accuracy:  train.ArgmaxAccuracy,
	}, clf, solver, train.CategoricalCrossEntropy, trainIter, validIter, nil)
	require.NoError(t, err)

	require.Equal(t, 3, hist.Epochs(train.TrainAcc))
	require.Equal(t, 3, hist.Epochs(train.ValidationAcc))
	for _, name := range []string{train.TrainAcc, train.ValidationAcc} {
		for _, v := range hist[name] {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestRunEmptyIterator(t *testing.T) {
	ae, trainIter, validIter := denoiseSetup(t)
	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))

	trainView, _ := newViews(t, 64, 6, 10)
	empty, err := batch.NewReconstruction(trainView, nil, 1024, nil)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Len())

	_, err = train.Run(train.Config{MaxEpochs: 1}, ae, solver, train.MSE, empty, validIter, nil)
	require.ErrorIs(t, err, train.ErrEmptyIterator)

	_, err = train.Run(train.Config{MaxEpochs: 1}, ae, solver, train.MSE, trainIter, empty, nil)
	require.ErrorIs(t, err, train.ErrEmptyIterator)
}

func TestRunLossConstructionFailure(t *testing.T) {
	ae, trainIter, validIter := denoiseSetup(t)
	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(0.01))

	badLoss := func(output, target *gorgonia.Node) (*gorgonia.Node, error) {
		return nil, errors.New("incompatible shapes")
	}

	hist, err := train.Run(train.Config{MaxEpochs: 1}, ae, solver, badLoss, trainIter, validIter, nil)
	require.ErrorIs(t, err, train.ErrShapeMismatch)
	require.Empty(t, hist)
}

func TestHistoryFinal(t *testing.T) {
	h := train.History{train.TrainLoss: {0.5, 0.3, 0.2}}
	require.Equal(t, 0.2, h.Final(train.TrainLoss))
	require.Equal(t, 0.0, h.Final(train.ValidationLoss))
	require.Equal(t, 3, h.Epochs(train.TrainLoss))
	require.Equal(t, 0, h.Epochs("missing"))
}
