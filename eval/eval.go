// Package eval measures translation correctness over a labeled dataset.
//
// Each item reruns the pipeline's field selection and filter synthesis and
// compares the result against an expected filter by exact structural
// equality. Logically equivalent but differently shaped filters score 0;
// that brittleness is intentional, it catches drift in synthesis phrasing.
//
// Two comparison modes: ModeGold scores against the frozen gt_filter in the
// dataset (deterministic, reviewable, the default); ModeResynthesize scores
// against a second independent pipeline run.
package eval

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"runlens/filter"
	"runlens/translate"
)

// Item is one labeled dataset record. The dataset is never mutated during a
// scoring run.
type Item struct {
	ID        string          `json:"id"`
	UserQuery string          `json:"user_query"`
	GTFilter  json.RawMessage `json:"gt_filter"`
}

// LoadDataset reads a JSON array of items.
func LoadDataset(path string) (items []Item, err error) {

	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read dataset from %s", path)
		return
	}

	err = json.Unmarshal(data, &items)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse dataset in %s", path)
		return
	}

	for _, item := range items {
		if item.UserQuery == "" {
			err = errors.Errorf("dataset item %q has no user_query", item.ID)
			return
		}
	}
	return
}

// Mode selects what a synthesized filter is compared against.
type Mode int

const (
	ModeGold Mode = iota
	ModeResynthesize
)

func (mode Mode) String() string {

	switch mode {
	case ModeResynthesize:
		return "resynthesize"
	default:
		return "gold"
	}
}

// Result is the outcome for one item. Score is 1 on exact structural match,
// 0 otherwise; a failed item carries Err and scores 0.
type Result struct {
	ID          string
	UserQuery   string
	Score       int
	Synthesized *filter.Query
	Expected    *filter.Query
	Err         error
}

// Report aggregates a full run. Accuracy is the mean item score.
type Report struct {
	Mode     Mode
	Results  []Result
	Accuracy float64
}

// Harness reruns the pipeline over a dataset and scores it.
type Harness struct {
	Pipeline *translate.Pipeline
	Mode     Mode
}

// Run scores every item. Items are independent, reading only the immutable
// catalog, so they run concurrently; completion order does not matter.
// Item failures land in their Result rather than aborting the run.
func (hns *Harness) Run(ctx context.Context, items []Item) (rpt Report, err error) {

	if len(items) == 0 {
		err = errors.Errorf("dataset is empty")
		return
	}

	results := make([]Result, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()
			results[i] = hns.runItem(ctx, item)
		}(i, item)
	}
	wg.Wait()

	total := 0
	for _, res := range results {
		total += res.Score
	}

	rpt = Report{
		Mode:     hns.Mode,
		Results:  results,
		Accuracy: float64(total) / float64(len(items)),
	}
	return
}

// unexported

func (hns *Harness) runItem(ctx context.Context, item Item) (res Result) {

	res = Result{
		ID:        item.ID,
		UserQuery: item.UserQuery,
	}

	synthesized, err := hns.synthesize(ctx, item.UserQuery)
	if err != nil {
		res.Err = err
		return
	}
	res.Synthesized = synthesized

	var expected *filter.Query
	switch hns.Mode {
	case ModeResynthesize:
		expected, err = hns.synthesize(ctx, item.UserQuery)
		if err != nil {
			res.Err = err
			return
		}
	default:
		if len(item.GTFilter) == 0 {
			res.Err = errors.Errorf("item %q has no gt_filter", item.ID)
			return
		}
		expected, err = filter.Parse(item.GTFilter)
		if err != nil {
			res.Err = errors.Wrapf(err, "bad gt_filter for item %q", item.ID)
			return
		}
	}
	res.Expected = expected

	if filter.Equal(synthesized, expected) {
		res.Score = 1
	}
	return
}

// synthesize runs field selection then filter synthesis, the two steps the
// harness scores.
func (hns *Harness) synthesize(ctx context.Context, query string) (*filter.Query, error) {

	fields, err := hns.Pipeline.SelectFields(ctx, query)
	if err != nil {
		return nil, err
	}

	return hns.Pipeline.SynthesizeFilter(ctx, query, fields)
}
