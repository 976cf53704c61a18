package model

import (
	"math/rand"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/signalworks/mnist1d/pkg/train"
)

type AutoencoderConfig struct {
	InputDim int
	Hidden   int
	Latent   int
}

// Autoencoder compresses signals through a linear bottleneck and
// reconstructs them. The bottleneck node is exposed as Forward.Latent so the
// trained encoder half can be reused for latent-space visualization.
type Autoencoder struct {
	cfg            AutoencoderConfig
	w0, w1, w2, w3 *tensor.Dense
}

func NewAutoencoder(cfg AutoencoderConfig, rng *rand.Rand) *Autoencoder {
	return &Autoencoder{
		cfg: cfg,
		w0:  glorot(rng, cfg.InputDim, cfg.Hidden),
		w1:  glorot(rng, cfg.Hidden, cfg.Latent),
		w2:  glorot(rng, cfg.Latent, cfg.Hidden),
		w3:  glorot(rng, cfg.Hidden, cfg.InputDim),
	}
}

func (m *Autoencoder) LatentSize() int {
	return m.cfg.Latent
}

func (m *Autoencoder) Fwd(g *gorgonia.ExprGraph, x *gorgonia.Node, training bool) (*train.Forward, error) {
	w0 := weightNode(g, "enc0", m.w0)
	w1 := weightNode(g, "enc1", m.w1)
	w2 := weightNode(g, "dec0", m.w2)
	w3 := weightNode(g, "dec1", m.w3)

	h := gorgonia.Must(gorgonia.Rectify(gorgonia.Must(gorgonia.Mul(x, w0))))
	latent := gorgonia.Must(gorgonia.Mul(h, w1))

	d := gorgonia.Must(gorgonia.Rectify(gorgonia.Must(gorgonia.Mul(latent, w2))))
	out := gorgonia.Must(gorgonia.Mul(d, w3))

	return &train.Forward{
		Output: out,
		Latent: latent,
		Params: gorgonia.Nodes{w0, w1, w2, w3},
	}, nil
}
