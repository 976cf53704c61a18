package train

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	TrainLoss      = "train_loss"
	ValidationLoss = "validation_loss"
	TrainAcc       = "train_acc"
	ValidationAcc  = "validation_acc"
)

// History maps a metric name to its per-epoch values in epoch order. It is
// owned by the caller; Run only ever appends, never truncates or reorders,
// so a history can be threaded through repeated Run calls to log continued
// training. A series is materialized on first append, which is why a
// reconstruction run carries no accuracy keys at all.
type History map[string][]float64

func (h History) append(name string, v float64) {
	h[name] = append(h[name], v)
}

// Epochs returns the number of recorded values for a metric.
func (h History) Epochs(name string) int {
	return len(h[name])
}

// Final returns the most recent value of a metric, or 0 when none exists.
func (h History) Final(name string) float64 {
	s := h[name]
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Write renders a per-metric summary table.
func (h History) Write(w io.Writer, title string) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"METRIC", "EPOCHS", "MEAN", "MIN", "MAX", "FINAL"})
	for _, name := range names {
		s := h[name]
		if len(s) == 0 {
			continue
		}
		t.AppendRow(table.Row{
			name,
			fmt.Sprintf("%d", len(s)),
			fmt.Sprintf("%.6f", stat.Mean(s, nil)),
			fmt.Sprintf("%.6f", floats.Min(s)),
			fmt.Sprintf("%.6f", floats.Max(s)),
			fmt.Sprintf("%.6f", s[len(s)-1]),
		})
	}
	t.Render()
}
