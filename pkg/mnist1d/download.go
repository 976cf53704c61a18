package mnist1d

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/signalworks/mnist1d/pkg/dataset"
)

var apiClient = resty.New()

type frozenDataset struct {
	X [][]float64 `json:"x"`
	Y []int       `json:"y"`
}

// Fetch downloads a frozen reference dataset from url, caching the raw
// payload in db so repeated runs work offline. The payload is a JSON object
// with parallel "x" (samples) and "y" (labels) arrays.
func Fetch(db *leveldb.DB, pw progress.Writer, url string) (*dataset.Raw, error) {
	key := []byte(fmt.Sprintf("mnist1d-frozen-%s", url))

	body, err := db.Get(key, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("failed to read cache for %s: %v", url, err)
	}
	if err != nil {
		var tracker *progress.Tracker
		if pw != nil {
			tracker = &progress.Tracker{
				Message: "Fetching frozen dataset",
				Total:   1,
				Units:   progress.UnitsDefault,
			}
			pw.AppendTracker(tracker)
			tracker.Start()
		}

		resp, err := apiClient.R().Get(url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %v", url, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("failed to fetch %s: status %s", url, resp.Status())
		}
		body = resp.Body()

		if err := db.Put(key, body, nil); err != nil {
			return nil, fmt.Errorf("failed to cache %s: %v", url, err)
		}
		if tracker != nil {
			tracker.Increment(1)
			tracker.MarkAsDone()
		}
	}

	var frozen frozenDataset
	if err := json.Unmarshal(body, &frozen); err != nil {
		return nil, fmt.Errorf("failed to decode frozen dataset: %v", err)
	}
	if len(frozen.X) == 0 || len(frozen.X) != len(frozen.Y) {
		return nil, fmt.Errorf("%w: frozen dataset has %d samples and %d labels", dataset.ErrInvalidConfiguration, len(frozen.X), len(frozen.Y))
	}

	return &dataset.Raw{Inputs: frozen.X, Labels: frozen.Y}, nil
}
