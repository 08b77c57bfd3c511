package runlens

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runlens/catalog"
	nt "runlens/entity"
	"runlens/filter"
)

const latencyPath = "output.model_latency.mean"

func testCatalog(t *testing.T) *catalog.Catalog {

	cat, err := catalog.New([]catalog.Entry{
		{Name: "attributes.model_name", Description: "Name of the model under evaluation."},
		{Name: latencyPath, Description: "Mean per-call latency in milliseconds."},
	})
	require.NoError(t, err)
	return cat
}

// genStub answers the three synthesis prompts with fixed responses.
type genStub struct{}

func (genStub) Generate(ctx context.Context, rendered string) (json.RawMessage, error) {

	switch {
	case strings.Contains(rendered, "selecting relevant fields"):
		return json.RawMessage(`{"columns":["attributes.model_name","` + latencyPath + `"]}`), nil
	case strings.Contains(rendered, "generate a filter query"):
		return json.RawMessage(`{"query":{"$expr":{"$not":[{"$gte":[{"$convert":{"input":{"$getField":"` + latencyPath + `"},"to":"double"}},{"$literal":100}]}]}}}`), nil
	default:
		return json.RawMessage(`{"sort_by":[{"field":"` + latencyPath + `","direction":"asc"}]}`), nil
	}
}

type storeStub struct {
	tbl     nt.Table
	execErr error

	gotFields []string
	gotFilter *filter.Query
	gotSorts  []nt.Sort
}

func (stub *storeStub) Name() string { return "runs.ndjson" }

func (stub *storeStub) Execute(ctx context.Context, fields []string, fq *filter.Query, sorts []nt.Sort) (nt.Table, error) {

	stub.gotFields = fields
	stub.gotFilter = fq
	stub.gotSorts = sorts
	return stub.tbl, stub.execErr
}

type nopLogger struct{}

func (nopLogger) Info(ctx context.Context, msg string, kv ...any)             {}
func (nopLogger) Error(ctx context.Context, msg string, err error, kv ...any) {}

func TestAsk(t *testing.T) {

	store := &storeStub{
		tbl: nt.Table{
			Columns: []string{"id", "attributes.model_name", latencyPath},
			Rows: []nt.Row{
				{{Raw: int64(1)}, {Raw: "gpt-4o-mini"}, {Raw: "42.5"}},
			},
		},
	}

	rln := New(testCatalog(t), genStub{}, store, nopLogger{})

	res, err := rln.Ask(context.Background(), "models faster than 100ms, fastest first")
	require.NoError(t, err)

	assert.Equal(t, "models faster than 100ms, fastest first", res.Query)
	assert.Equal(t, []string{"attributes.model_name", latencyPath}, res.Fields)
	assert.Equal(t, []nt.Sort{{Field: latencyPath, Direction: nt.Asc}}, res.Sorts)
	require.Len(t, res.Table.Rows, 1)

	// the store receives exactly what translation produced
	assert.Equal(t, res.Fields, store.gotFields)
	assert.True(t, filter.Equal(res.Filter, store.gotFilter))
	assert.Equal(t, res.Sorts, store.gotSorts)

	want := &filter.Query{Expr: filter.Lt(
		filter.ToDouble(filter.GetField(latencyPath)),
		filter.Lit(float64(100)),
	)}
	assert.True(t, filter.Equal(want, res.Filter))
}

// Execution failure still surfaces the translation artifacts so the caller
// can show what was attempted.
func TestAskExecuteFailure(t *testing.T) {

	store := &storeStub{execErr: errors.Errorf("table runs does not exist")}
	rln := New(testCatalog(t), genStub{}, store, nopLogger{})

	res, err := rln.Ask(context.Background(), "models faster than 100ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runs.ndjson")

	assert.NotEmpty(t, res.Fields)
	assert.NotNil(t, res.Filter)
	assert.Empty(t, res.Table.Rows)
}

func TestLoadConfig(t *testing.T) {

	cfg, err := LoadConfig("testdata/runlens.yaml")
	require.NoError(t, err)

	assert.Equal(t, "catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, "runs.ndjson", cfg.RunsPath)
	assert.Equal(t, "runlens.log", cfg.LogPath)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Generator.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.Model)
}

func TestLoadConfigMissingCatalog(t *testing.T) {

	_, err := LoadConfig("testdata/nocatalog.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog_path")
}
