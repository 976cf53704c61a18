package model

import (
	"math/rand"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/signalworks/mnist1d/pkg/train"
)

type ClassifierConfig struct {
	InputDim int
	Hidden1  int
	Hidden2  int
	Classes  int
	Dropout  float64
}

// Classifier is a dense softmax network. Dropout is active in training mode
// only; evaluation graphs are built without it.
type Classifier struct {
	cfg        ClassifierConfig
	w0, w1, w2 *tensor.Dense
}

func NewClassifier(cfg ClassifierConfig, rng *rand.Rand) *Classifier {
	return &Classifier{
		cfg: cfg,
		w0:  glorot(rng, cfg.InputDim, cfg.Hidden1),
		w1:  glorot(rng, cfg.Hidden1, cfg.Hidden2),
		w2:  glorot(rng, cfg.Hidden2, cfg.Classes),
	}
}

func (m *Classifier) Fwd(g *gorgonia.ExprGraph, x *gorgonia.Node, training bool) (*train.Forward, error) {
	w0 := weightNode(g, "w0", m.w0)
	w1 := weightNode(g, "w1", m.w1)
	w2 := weightNode(g, "w2", m.w2)

	l0 := gorgonia.Must(gorgonia.Rectify(gorgonia.Must(gorgonia.Mul(x, w0))))
	if training && m.cfg.Dropout > 0 {
		l0 = gorgonia.Must(gorgonia.Dropout(l0, m.cfg.Dropout))
	}

	l1 := gorgonia.Must(gorgonia.Rectify(gorgonia.Must(gorgonia.Mul(l0, w1))))
	if training && m.cfg.Dropout > 0 {
		l1 = gorgonia.Must(gorgonia.Dropout(l1, m.cfg.Dropout))
	}

	logits := gorgonia.Must(gorgonia.Mul(l1, w2))
	out := gorgonia.Must(gorgonia.SoftMax(logits))

	return &train.Forward{
		Output: out,
		Params: gorgonia.Nodes{w0, w1, w2},
	}, nil
}
