package latent_test

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalworks/mnist1d/pkg/dataset"
	"github.com/signalworks/mnist1d/pkg/latent"
	"github.com/signalworks/mnist1d/pkg/model"
	"github.com/signalworks/mnist1d/pkg/train"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"gorgonia.org/tensor"
)

var db *leveldb.DB

func TestMain(m *testing.M) {
	path := fmt.Sprintf("%s/mnist1d-cache.db-test", os.TempDir())
	if err := os.RemoveAll(path); err != nil {
		log.Fatalf("failed to remove %s", path)
	} else if d, err := leveldb.OpenFile(path, nil); err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	} else {
		db = d
	}
	m.Run()
}

func newView(t *testing.T, n, dim int) *dataset.View {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	inputs := make([][]float64, n)
	labels := make([]int, n)
	for i := range inputs {
		inputs[i] = make([]float64, dim)
		for j := range inputs[i] {
			inputs[i][j] = rng.Float64()
		}
		labels[i] = i % 10
	}

	s, err := dataset.New(&dataset.Raw{Inputs: inputs, Labels: labels}, 0.25, 42)
	require.NoError(t, err)
	stats, err := s.Stats()
	require.NoError(t, err)
	v, err := s.View(dataset.Validation, stats)
	require.NoError(t, err)
	return v
}

func newAutoencoder() *model.Autoencoder {
	return model.NewAutoencoder(model.AutoencoderConfig{
		InputDim: 6,
		Hidden:   16,
		Latent:   3,
	}, rand.New(rand.NewSource(12)))
}

func TestEncode(t *testing.T) {
	v := newView(t, 40, 6)
	ae := newAutoencoder()

	X, labels, err := latent.Encode(ae, v)
	require.NoError(t, err)

	require.Equal(t, []int{v.Len(), 3}, []int(X.Shape()))
	require.Len(t, labels, v.Len())
	for i := range labels {
		_, want, err := v.At(i)
		require.NoError(t, err)
		require.Equal(t, want, labels[i])
	}
}

func TestEncodeDeterministic(t *testing.T) {
	v := newView(t, 40, 6)
	ae := newAutoencoder()

	X1, _, err := latent.Encode(ae, v)
	require.NoError(t, err)
	X2, _, err := latent.Encode(ae, v)
	require.NoError(t, err)

	require.Equal(t, X1.Data(), X2.Data())
}

func TestEncodeNoLatent(t *testing.T) {
	v := newView(t, 40, 6)
	clf := model.NewClassifier(model.ClassifierConfig{
		InputDim: 6,
		Hidden1:  16,
		Hidden2:  8,
		Classes:  4,
	}, rand.New(rand.NewSource(12)))

	_, _, err := latent.Encode(clf, v)
	require.ErrorIs(t, err, dataset.ErrInvalidConfiguration)
}

func TestEncodeEmptyView(t *testing.T) {
	ae := newAutoencoder()
	_, _, err := latent.Encode(ae, &dataset.View{})
	require.ErrorIs(t, err, train.ErrEmptyIterator)
}

func TestNpyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "X.npy")

	X := tensor.New(tensor.WithShape(2, 3), tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6}))
	require.NoError(t, latent.SaveNpy(path, X))

	Y, err := latent.LoadNpy(path)
	require.NoError(t, err)
	require.Equal(t, X.Shape(), Y.Shape())
	require.Equal(t, X.Data(), Y.Data())
}

func TestLabelsDense(t *testing.T) {
	d := latent.LabelsDense([]int{3, 1, 4})
	require.Equal(t, []int{3}, []int(d.Shape()))
	require.Equal(t, []float64{3, 1, 4}, d.Data().([]float64))
}

func TestCacheResolveOnce(t *testing.T) {
	cache := latent.NewCache(db)
	calls := 0
	source := latent.Deferred(func() (*tensor.Dense, error) {
		calls++
		return tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float64{1, 2, 3, 4})), nil
	})

	X1, err := cache.Resolve("resolve-once", source)
	require.NoError(t, err)
	X2, err := cache.Resolve("resolve-once", source)
	require.NoError(t, err)

	require.Equal(t, 1, calls)
	require.Equal(t, X1.Shape(), X2.Shape())
	require.Equal(t, X1.Data(), X2.Data())
}

func TestCachePrecomputed(t *testing.T) {
	cache := latent.NewCache(db)
	X := tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]float64{7, 8}))

	Y, err := cache.Resolve("precomputed", latent.Precomputed(X))
	require.NoError(t, err)
	require.Equal(t, X.Data(), Y.Data())

	// A second resolve comes from the store, not the source.
	Z, err := cache.Resolve("precomputed", latent.Deferred(func() (*tensor.Dense, error) {
		t.Fatal("deferred source must not run for a cached name")
		return nil, nil
	}))
	require.NoError(t, err)
	require.Equal(t, X.Data(), Z.Data())
}

func TestCacheReadFailureIsNotAMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")
	broken, err := leveldb.OpenFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	cache := latent.NewCache(broken)
	_, err = cache.Resolve("read-failure", latent.Deferred(func() (*tensor.Dense, error) {
		t.Fatal("deferred source must not run when the store fails")
		return nil, nil
	}))
	require.Error(t, err)
}

func TestCacheEmptySource(t *testing.T) {
	cache := latent.NewCache(db)
	_, err := cache.Resolve("empty-source", latent.Source{})
	require.Error(t, err)
}
