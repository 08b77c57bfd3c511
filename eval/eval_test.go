package eval

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runlens/catalog"
	"runlens/filter"
	"runlens/translate"
)

const (
	latencyPath  = "output.model_latency.mean"
	accuracyPath = "output.HalluScorerEvaluator.scorer_evaluation_metrics.accuracy"
	f1Path       = "output.HalluScorerEvaluator.scorer_evaluation_metrics.F1"
)

func testCatalog(t *testing.T) *catalog.Catalog {

	cat, err := catalog.New([]catalog.Entry{
		{Name: "attributes.model_name", Description: "Name of the model under evaluation."},
		{Name: latencyPath, Description: "Mean per-call latency in milliseconds."},
		{Name: accuracyPath, Description: "Accuracy of the hallucination scorer evaluation."},
		{Name: f1Path, Description: "F1 score of the hallucination scorer evaluation."},
	})
	require.NoError(t, err)
	return cat
}

// stubGen answers field selection with a fixed column set and filter
// synthesis by matching the user query embedded in the rendered prompt.
// Unmatched queries fall through to fallback.
type stubGen struct {
	columns  string
	filters  map[string]string
	fallback string

	mu          sync.Mutex
	filterCalls int
}

func (stub *stubGen) Generate(ctx context.Context, rendered string) (json.RawMessage, error) {

	if strings.Contains(rendered, "selecting relevant fields") {
		return json.RawMessage(`{"columns":` + stub.columns + `}`), nil
	}

	stub.mu.Lock()
	stub.filterCalls++
	stub.mu.Unlock()

	for query, resp := range stub.filters {
		if strings.Contains(rendered, "Query: "+query+"\n") {
			return json.RawMessage(resp), nil
		}
	}
	return json.RawMessage(stub.fallback), nil
}

type nopLogger struct{}

func (nopLogger) Info(ctx context.Context, msg string, kv ...any)             {}
func (nopLogger) Error(ctx context.Context, msg string, err error, kv ...any) {}

func testHarness(t *testing.T, gen translate.Generator, mode Mode) *Harness {

	return &Harness{
		Pipeline: &translate.Pipeline{
			Catalog:   testCatalog(t),
			Generator: gen,
			Logger:    nopLogger{},
		},
		Mode: mode,
	}
}

const latencyLtResp = `{"query":{"$expr":{"$not":[{"$gte":[{"$convert":{"input":{"$getField":"` + latencyPath + `"},"to":"double"}},{"$literal":100}]}]}}}`
const accuracyGtResp = `{"query":{"$expr":{"$gt":[{"$convert":{"input":{"$getField":"` + accuracyPath + `"},"to":"double"}},{"$literal":0.9}]}}}`
const f1GtResp = `{"query":{"$expr":{"$gt":[{"$convert":{"input":{"$getField":"` + f1Path + `"},"to":"double"}},{"$literal":0.95}]}}}`

func TestLoadDataset(t *testing.T) {

	items, err := LoadDataset("testdata/dataset.json")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "0", items[0].ID)
	assert.Equal(t, "models which has latency less than 100ms", items[0].UserQuery)

	// every gold filter must parse against the grammar
	for _, item := range items {
		_, err = filter.Parse(item.GTFilter)
		assert.NoError(t, err, "item %s", item.ID)
	}
}

func TestLoadDatasetRejects(t *testing.T) {

	_, err := LoadDataset("testdata/nonesuch.json")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	err = os.WriteFile(path, []byte(`[{"id":"0","gt_filter":{}}]`), 0644)
	require.NoError(t, err)

	_, err = LoadDataset(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user_query")
}

func TestRunGold(t *testing.T) {

	items, err := LoadDataset("testdata/dataset.json")
	require.NoError(t, err)

	// item 2 synthesizes a filter with the wrong threshold
	wrongF1 := strings.Replace(f1GtResp, "0.95", "0.9", 1)
	gen := &stubGen{
		columns: `["` + latencyPath + `"]`,
		filters: map[string]string{
			items[0].UserQuery: latencyLtResp,
			items[1].UserQuery: accuracyGtResp,
			items[2].UserQuery: wrongF1,
		},
	}

	harness := testHarness(t, gen, ModeGold)
	report, err := harness.Run(context.Background(), items)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, ModeGold, report.Mode)

	byID := map[string]Result{}
	for _, res := range report.Results {
		require.NoError(t, res.Err)
		byID[res.ID] = res
	}

	assert.Equal(t, 1, byID["0"].Score)
	assert.Equal(t, 1, byID["1"].Score)
	assert.Equal(t, 0, byID["2"].Score)
	assert.InDelta(t, 2.0/3.0, report.Accuracy, 1e-9)
}

func TestRunEmptyDataset(t *testing.T) {

	harness := testHarness(t, &stubGen{}, ModeGold)
	_, err := harness.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

// A failed item lands in its Result and drags the mean down; it never
// aborts the run.
func TestRunItemFailure(t *testing.T) {

	gen := &stubGen{
		columns:  `["` + latencyPath + `"]`,
		fallback: `{"query":{"$expr":{"$lt":[{"$getField":"` + latencyPath + `"},{"$literal":100}]}}}`,
	}

	harness := testHarness(t, gen, ModeGold)
	report, err := harness.Run(context.Background(), []Item{
		{ID: "0", UserQuery: "latency under 100", GTFilter: json.RawMessage(`{"$expr":{"$eq":[{"$getField":"` + latencyPath + `"},{"$literal":1}]}}`)},
	})
	require.NoError(t, err)

	res := report.Results[0]
	require.Error(t, res.Err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, float64(0), report.Accuracy)
}

func TestRunGoldMissingFilter(t *testing.T) {

	gen := &stubGen{
		columns:  `["` + latencyPath + `"]`,
		fallback: latencyLtResp,
	}

	harness := testHarness(t, gen, ModeGold)
	report, err := harness.Run(context.Background(), []Item{
		{ID: "0", UserQuery: "latency under 100"},
	})
	require.NoError(t, err)

	res := report.Results[0]
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "no gt_filter")
}

// Resynthesize mode compares two independent pipeline runs; a deterministic
// generator scores 1 regardless of what the dataset's gold says.
func TestRunResynthesize(t *testing.T) {

	gen := &stubGen{
		columns:  `["` + latencyPath + `"]`,
		fallback: latencyLtResp,
	}

	harness := testHarness(t, gen, ModeResynthesize)
	report, err := harness.Run(context.Background(), []Item{
		{ID: "0", UserQuery: "latency under 100"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Results[0].Score)
	assert.Equal(t, float64(1), report.Accuracy)
	assert.Equal(t, 2, gen.filterCalls)
}

// driftGen changes its answer between synthesis calls, the drift
// resynthesize mode exists to catch.
type driftGen struct {
	stubGen
}

func (gen *driftGen) Generate(ctx context.Context, rendered string) (json.RawMessage, error) {

	if strings.Contains(rendered, "selecting relevant fields") {
		return json.RawMessage(`{"columns":["` + latencyPath + `"]}`), nil
	}

	gen.mu.Lock()
	gen.filterCalls++
	calls := gen.filterCalls
	gen.mu.Unlock()

	if calls == 1 {
		return json.RawMessage(latencyLtResp), nil
	}
	return json.RawMessage(accuracyGtResp), nil
}

func TestRunResynthesizeDrift(t *testing.T) {

	harness := testHarness(t, &driftGen{}, ModeResynthesize)
	report, err := harness.Run(context.Background(), []Item{
		{ID: "0", UserQuery: "latency under 100"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Results[0].Score)
}

func TestModeString(t *testing.T) {

	assert.Equal(t, "gold", ModeGold.String())
	assert.Equal(t, "resynthesize", ModeResynthesize.String())
}
