// Package train runs epoch-based supervised optimization over batched
// dataset views. The model, optimizer and loss are collaborators: models
// build their forward pass on a gorgonia graph, the optimizer is any
// gorgonia.Solver, and losses are plain node constructors. The loop itself
// owns no randomness and no state beyond the metrics it appends.
package train

import (
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/jedib0t/go-pretty/v6/progress"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/signalworks/mnist1d/pkg/batch"
)

var (
	ErrEmptyIterator = errors.New("empty iterator")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Forward is the result of building a model's forward pass on a graph.
// Latent is the bottleneck node for models that expose one, nil otherwise.
// Params lists the weight nodes created on this graph; their backing tensors
// must persist in the model so solver updates made through one graph are
// visible to every other graph built from the same model.
type Forward struct {
	Output *gorgonia.Node
	Latent *gorgonia.Node
	Params gorgonia.Nodes
}

// Model builds its forward pass on the supplied graph. The training flag
// selects training-only behavior such as dropout. Calling Fwd twice with the
// same input values and unchanged weights must produce identical outputs.
type Model interface {
	Fwd(g *gorgonia.ExprGraph, x *gorgonia.Node, training bool) (*Forward, error)
}

// LossFn builds a scalar loss node from prediction and target nodes.
type LossFn func(output, target *gorgonia.Node) (*gorgonia.Node, error)

// AccuracyFn scores a batch prediction against integer labels, returning the
// fraction of correct predictions. Supplying nil disables accuracy metrics,
// which is how reconstruction tasks are run.
type AccuracyFn func(output gorgonia.Value, labels []int) (float64, error)

// Iterator yields fixed-size batches. Reset starts a new epoch and may
// reshuffle; the loop calls it once per epoch and never shuffles itself.
type Iterator interface {
	Len() int
	Dims() (batchSize, inputDim, targetDim int)
	Reset()
	Next() (*batch.Batch, bool)
}

type Config struct {
	MaxEpochs int
	LogEvery  int
	Accuracy  AccuracyFn
	Progress  progress.Writer
}

// phase is one compiled graph: input/target nodes, loss, and a tape machine.
// Training phases additionally carry symbolic gradients and bound dual
// values so the solver can step; evaluation phases compute the forward pass
// only, so no parameter can be touched during evaluation by construction.
type phase struct {
	x, y, loss, output *gorgonia.Node
	params             gorgonia.Nodes
	vm                 gorgonia.VM
}

func buildPhase(m Model, lossFn LossFn, it Iterator, training bool) (*phase, error) {
	batchSize, inputDim, targetDim := it.Dims()

	g := gorgonia.NewGraph()
	x := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(batchSize, inputDim),
		gorgonia.WithName("x"))
	y := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(batchSize, targetDim),
		gorgonia.WithName("y"))

	fwd, err := m.Fwd(g, x, training)
	if err != nil {
		return nil, fmt.Errorf("failed to build forward pass: %w", err)
	}

	loss, err := lossFn(fwd.Output, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	var vm gorgonia.VM
	if training {
		if _, err := gorgonia.Grad(loss, fwd.Params...); err != nil {
			return nil, fmt.Errorf("failed to compute gradients: %v", err)
		}
		vm = gorgonia.NewTapeMachine(g, gorgonia.BindDualValues(fwd.Params...))
	} else {
		vm = gorgonia.NewTapeMachine(g)
	}

	return &phase{x: x, y: y, loss: loss, output: fwd.Output, params: fwd.Params, vm: vm}, nil
}

// run executes one epoch over the iterator, stepping the solver after each
// batch when one is given. It returns the mean loss and mean accuracy.
func (p *phase) run(it Iterator, solver gorgonia.Solver, accuracy AccuracyFn) (float64, float64, error) {
	lossSum, accSum := 0.0, 0.0
	batches := 0

	it.Reset()
	for {
		b, ok := it.Next()
		if !ok {
			break
		}

		if err := gorgonia.Let(p.x, b.Inputs); err != nil {
			return 0, 0, fmt.Errorf("failed to bind input tensor: %v", err)
		}
		if err := gorgonia.Let(p.y, b.Targets); err != nil {
			return 0, 0, fmt.Errorf("failed to bind target tensor: %v", err)
		}

		p.vm.Reset()
		if err := p.vm.RunAll(); err != nil {
			return 0, 0, fmt.Errorf("forward pass failed: %v", err)
		}

		if solver != nil {
			if err := solver.Step(gorgonia.NodesToValueGrads(p.params)); err != nil {
				return 0, 0, fmt.Errorf("solver step failed: %v", err)
			}
		}

		lossSum += p.loss.Value().Data().(float64)
		if accuracy != nil {
			a, err := accuracy(p.output.Value(), b.Labels)
			if err != nil {
				return 0, 0, err
			}
			accSum += a
		}
		batches++
	}

	if batches == 0 {
		return 0, 0, fmt.Errorf("%w: iterator yielded no batches", ErrEmptyIterator)
	}

	return lossSum / float64(batches), accSum / float64(batches), nil
}

// Run executes cfg.MaxEpochs epochs of train/evaluate and appends per-epoch
// mean metrics to history, which it returns. A nil history starts a fresh
// log; passing the history from a previous Run together with the same model
// and solver resumes training and appends, which is the warm-start contract.
// Any collaborator failure aborts immediately: history only ever contains
// fully completed epochs.
func Run(cfg Config, m Model, solver gorgonia.Solver, lossFn LossFn, trainIter, evalIter Iterator, history History) (History, error) {
	if history == nil {
		history = History{}
	}
	if cfg.MaxEpochs <= 0 {
		return history, nil
	}
	if trainIter.Len() == 0 {
		return history, fmt.Errorf("%w: train iterator", ErrEmptyIterator)
	}
	if evalIter.Len() == 0 {
		return history, fmt.Errorf("%w: evaluation iterator", ErrEmptyIterator)
	}

	logEvery := cfg.LogEvery
	if logEvery <= 0 {
		logEvery = 1
	}

	trainPhase, err := buildPhase(m, lossFn, trainIter, true)
	if err != nil {
		return history, err
	}
	defer trainPhase.vm.Close()

	evalPhase, err := buildPhase(m, lossFn, evalIter, false)
	if err != nil {
		return history, err
	}
	defer evalPhase.vm.Close()

	var tracker *progress.Tracker
	if cfg.Progress != nil {
		tracker = &progress.Tracker{
			Message: "Training",
			Total:   int64(cfg.MaxEpochs),
			Units:   progress.UnitsDefault,
		}
		cfg.Progress.AppendTracker(tracker)
		tracker.Start()
	}

	for epoch := 0; epoch < cfg.MaxEpochs; epoch++ {
		trainLoss, trainAcc, err := trainPhase.run(trainIter, solver, cfg.Accuracy)
		if err != nil {
			return history, err
		}

		evalLoss, evalAcc, err := evalPhase.run(evalIter, nil, cfg.Accuracy)
		if err != nil {
			return history, err
		}

		history.append(TrainLoss, trainLoss)
		history.append(ValidationLoss, evalLoss)
		if cfg.Accuracy != nil {
			history.append(TrainAcc, trainAcc)
			history.append(ValidationAcc, evalAcc)
		}

		if tracker != nil {
			tracker.SetValue(int64(epoch + 1))
			tracker.Message = fmt.Sprintf("Training - TL: %.6f, VL: %.6f", trainLoss, evalLoss)
		}
		if (epoch+1)%logEvery == 0 || epoch+1 == cfg.MaxEpochs {
			log.Printf("%02d/%d :: training loss %.5f; validation loss %.5f", epoch+1, cfg.MaxEpochs, trainLoss, evalLoss)
		}

		if epoch%5 == 0 {
			runtime.GC()
		}
	}

	if tracker != nil {
		tracker.MarkAsDone()
	}

	return history, nil
}
