package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/joho/godotenv"
	"github.com/signalworks/mnist1d/pkg/batch"
	"github.com/signalworks/mnist1d/pkg/dataset"
	"github.com/signalworks/mnist1d/pkg/latent"
	"github.com/signalworks/mnist1d/pkg/mnist1d"
	"github.com/signalworks/mnist1d/pkg/model"
	"github.com/signalworks/mnist1d/pkg/train"
	"github.com/syndtr/goleveldb/leveldb"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func loadEnv(filenames ...string) {
	for _, filename := range filenames {
		if s, err := os.Stat(filename); err == nil && !s.IsDir() {
			godotenv.Load(filename)
		}
	}
}

func labelsOf(v *dataset.View) []int {
	labels := make([]int, v.Len())
	for i := range labels {
		_, label, err := v.At(i)
		if err != nil {
			log.Fatalf("error reading view: %v", err)
		}
		labels[i] = label
	}
	return labels
}

// stack concatenates two [n, d] matrices row-wise.
func stack(a, b *tensor.Dense) (*tensor.Dense, error) {
	if a.Shape()[1] != b.Shape()[1] {
		return nil, fmt.Errorf("cannot stack %v onto %v", b.Shape(), a.Shape())
	}
	backing := append([]float64{}, a.Data().([]float64)...)
	backing = append(backing, b.Data().([]float64)...)
	return tensor.New(
		tensor.WithShape(a.Shape()[0]+b.Shape()[0], a.Shape()[1]),
		tensor.WithBacking(backing)), nil
}

func main() {
	if _, ok := os.LookupEnv("ENV"); !ok {
		os.Setenv("ENV", "development")
	}
	loadEnv(".env."+os.Getenv("ENV")+".local", ".env."+os.Getenv("ENV"), ".env.local", ".env")

	params := dataset.NewParamsFromEnv()
	params.Write(os.Stdout, "Experiment Config")

	cachePath := fmt.Sprintf("%s/mnist1d-cache.db", os.TempDir())
	if p, ok := os.LookupEnv("MNIST1D_CACHE"); ok {
		cachePath = p
	}
	db, err := leveldb.OpenFile(cachePath, nil)
	if err != nil {
		log.Fatalf("failed to open cache %s: %v", cachePath, err)
	}
	defer db.Close()

	pw := progress.NewWriter()
	pw.SetMessageLength(40)
	pw.SetNumTrackersExpected(2)
	pw.SetSortBy(progress.SortByPercentDsc)
	pw.SetStyle(progress.StyleDefault)
	pw.SetTrackerLength(15)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	pw.Style().Colors = progress.StyleColorsExample
	pw.Style().Options.PercentFormat = "%2.0f%%"
	go pw.Render()

	// Paired datasets: same seed, so samples and labels line up and only the
	// noise differs. The denoising task maps noisy inputs to clean targets.
	// With MNIST1D_URL set a frozen reference dataset is fetched instead and
	// used for both sides, which degrades denoising to plain autoencoding.
	var clean, noisy *dataset.Raw
	if url, ok := os.LookupEnv("MNIST1D_URL"); ok {
		clean, err = mnist1d.Fetch(db, pw, url)
		if err != nil {
			log.Fatalf("failed to fetch frozen dataset: %v", err)
		}
		noisy = clean
	} else {
		cleanConfig := mnist1d.DefaultConfig()
		cleanConfig.Samples = params.Samples
		cleanConfig.Seed = params.DataSeed
		cleanConfig.NoiseScale = 0
		cleanConfig.CorrNoiseScale = 0

		noisyConfig := cleanConfig
		noisyConfig.NoiseScale = params.NoiseScale
		noisyConfig.CorrNoiseScale = params.CorrNoiseScale

		if clean, err = mnist1d.Generate(cleanConfig); err != nil {
			log.Fatalf("failed to generate clean dataset: %v", err)
		}
		if noisy, err = mnist1d.Generate(noisyConfig); err != nil {
			log.Fatalf("failed to generate noisy dataset: %v", err)
		}
		for i := range clean.Labels {
			if clean.Labels[i] != noisy.Labels[i] {
				log.Fatalf("clean and noisy labels diverge at sample %d", i)
			}
		}
	}

	cleanSplit, err := dataset.New(clean, params.ValidationFraction, params.SplitSeed)
	if err != nil {
		log.Fatalf("failed to split clean dataset: %v", err)
	}
	noisySplit, err := dataset.New(noisy, params.ValidationFraction, params.SplitSeed)
	if err != nil {
		log.Fatalf("failed to split noisy dataset: %v", err)
	}

	cleanStats, err := cleanSplit.Stats()
	if err != nil {
		log.Fatalf("failed to compute clean normalization stats: %v", err)
	}
	noisyStats, err := noisySplit.Stats()
	if err != nil {
		log.Fatalf("failed to compute noisy normalization stats: %v", err)
	}

	noisyTrainView, _ := noisySplit.View(dataset.Train, noisyStats)
	noisyValidView, _ := noisySplit.View(dataset.Validation, noisyStats)
	cleanTrainView, _ := cleanSplit.View(dataset.Train, cleanStats)
	cleanValidView, _ := cleanSplit.View(dataset.Validation, cleanStats)

	log.Printf("dataset: %d samples, %d train / %d validation, dim %d",
		clean.Len(), len(cleanSplit.TrainIndices), len(cleanSplit.ValidationIndices), clean.Dim())

	ae := model.NewAutoencoder(model.AutoencoderConfig{
		InputDim: clean.Dim(),
		Hidden:   params.HiddenSize,
		Latent:   params.LatentSize,
	}, rand.New(rand.NewSource(12)))

	aeTrainLoader, err := batch.NewReconstruction(noisyTrainView, cleanTrainView, params.BatchSize, rand.New(rand.NewSource(13)))
	if err != nil {
		log.Fatalf("failed to build autoencoder train loader: %v", err)
	}
	aeValidLoader, err := batch.NewReconstruction(noisyValidView, cleanValidView, params.BatchSize, nil)
	if err != nil {
		log.Fatalf("failed to build autoencoder validation loader: %v", err)
	}

	aeHistory, err := train.Run(train.Config{
		MaxEpochs: params.Epochs,
		LogEvery:  params.LogEvery,
		Progress:  pw,
	}, ae, gorgonia.NewAdamSolver(gorgonia.WithLearnRate(params.LearnRate)), train.MSE, aeTrainLoader, aeValidLoader, nil)
	if err != nil {
		log.Fatalf("autoencoder training failed: %v", err)
	}

	clf := model.NewClassifier(model.ClassifierConfig{
		InputDim: clean.Dim(),
		Hidden1:  params.HiddenSize,
		Hidden2:  params.HiddenSize / 2,
		Classes:  10,
		Dropout:  params.Dropout,
	}, rand.New(rand.NewSource(12)))

	clfTrainLoader, err := batch.NewClassification(cleanTrainView, 10, params.BatchSize, rand.New(rand.NewSource(13)))
	if err != nil {
		log.Fatalf("failed to build classifier train loader: %v", err)
	}
	clfValidLoader, err := batch.NewClassification(cleanValidView, 10, params.BatchSize, nil)
	if err != nil {
		log.Fatalf("failed to build classifier validation loader: %v", err)
	}

	clfHistory, err := train.Run(train.Config{
		MaxEpochs: params.Epochs,
		LogEvery:  params.LogEvery,
		Accuracy:  train.ArgmaxAccuracy,
		Progress:  pw,
	}, clf, gorgonia.NewAdamSolver(gorgonia.WithLearnRate(params.LearnRate)), train.CategoricalCrossEntropy, clfTrainLoader, clfValidLoader, nil)
	if err != nil {
		log.Fatalf("classifier training failed: %v", err)
	}

	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(100 * time.Millisecond)
	}

	aeHistory.Write(os.Stdout, "Autoencoder (denoising)")
	clfHistory.Write(os.Stdout, "Classifier")

	// Latent embeddings for the visualization step: validation rows first,
	// then train rows, encoded from the noisy inputs the autoencoder saw.
	cache := latent.NewCache(db)
	tag := fmt.Sprintf("ae-%d-%d-%d-%d", params.Samples, params.DataSeed, params.SplitSeed, params.LatentSize)
	X, err := cache.Resolve(tag, latent.Deferred(func() (*tensor.Dense, error) {
		validLatents, _, err := latent.Encode(ae, noisyValidView)
		if err != nil {
			return nil, err
		}
		trainLatents, _, err := latent.Encode(ae, noisyTrainView)
		if err != nil {
			return nil, err
		}
		return stack(validLatents, trainLatents)
	}))
	if err != nil {
		log.Fatalf("failed to resolve latent embeddings: %v", err)
	}

	labels := append(labelsOf(noisyValidView), labelsOf(noisyTrainView)...)

	if err := latent.SaveNpy("X_latent_h.npy", X); err != nil {
		log.Fatalf("failed to save latents: %v", err)
	}
	if err := latent.SaveNpy("y_latent_h.npy", latent.LabelsDense(labels)); err != nil {
		log.Fatalf("failed to save labels: %v", err)
	}
	log.Printf("wrote X_latent_h.npy %v and y_latent_h.npy [%d]", X.Shape(), len(labels))
}
