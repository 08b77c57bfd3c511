// Package runlens answers natural-language questions about machine-learning
// experiment runs.
//
// A question flows through the translation pipeline (field selection, then
// filter and sort synthesis against a generation service), then to a backing
// run store which returns matching rows. Translation and execution artifacts
// ride in an explicit Result; nothing ambient carries state between queries.
package runlens

import (
	"context"

	"github.com/pkg/errors"

	"runlens/catalog"
	nt "runlens/entity"
	"runlens/filter"
	"runlens/translate"
	"runlens/util"
)

// Store specifies a backing run store. It owns filter semantics; any
// failure returns an empty table with the error, so callers can tell a
// failed query from a legitimate zero-row match.
type Store interface {
	// Name returns the name of the data source
	Name() string
	// Execute a filter and sort, projecting the given fields
	Execute(ctx context.Context, fields []string, fq *filter.Query, sorts []nt.Sort) (tbl nt.Table, err error)
}

// Config configures a runlens service.
type Config struct {
	CatalogPath string           `yaml:"catalog_path"`
	RunsPath    string           `yaml:"runs_path"`
	LogPath     string           `yaml:"log_path"`
	Generator   translate.Config `yaml:"generator"`
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (cfg Config, err error) {

	err = util.LoadConfig(&cfg, path)
	if err != nil {
		return
	}

	if cfg.CatalogPath == "" {
		err = errors.Errorf("config %s has no catalog_path", path)
	}
	return
}

// Result carries everything produced for one question: the translation
// artifacts and the matching rows.
type Result struct {
	Query  string
	Fields []string
	Filter *filter.Query
	Sorts  []nt.Sort
	Table  nt.Table
}

// Runlens ties the catalog, translation pipeline, and run store together.
type Runlens struct {
	pipeline *translate.Pipeline
	store    Store
	logger   nt.Logger
}

// New creates a Runlens service.
func New(cat *catalog.Catalog, gen translate.Generator, store Store, lgr nt.Logger) *Runlens {

	return &Runlens{
		pipeline: &translate.Pipeline{
			Catalog:   cat,
			Generator: gen,
			Logger:    lgr,
		},
		store:  store,
		logger: lgr,
	}
}

// Pipeline exposes the translation pipeline, mainly for the eval harness.
func (rln *Runlens) Pipeline() *translate.Pipeline {
	return rln.pipeline
}

// Ask translates a question and executes it against the store. On an
// execution failure the returned Result still carries the translation
// artifacts so callers can show what was attempted alongside the error.
func (rln *Runlens) Ask(ctx context.Context, query string) (res Result, err error) {

	res.Query = query

	tln, err := rln.pipeline.Translate(ctx, query)
	if err != nil {
		rln.logger.Error(ctx, "translation failed", err, "query", query)
		return
	}

	res.Fields = tln.Fields
	res.Filter = tln.Filter
	res.Sorts = tln.Sorts

	tbl, err := rln.store.Execute(ctx, tln.Fields, tln.Filter, tln.Sorts)
	if err != nil {
		rln.logger.Error(ctx, "execution failed", err, "query", query)
		err = errors.Wrapf(err, "failed to execute against %s", rln.store.Name())
		return
	}

	res.Table = tbl
	rln.logger.Info(ctx, "query answered", "query", query, "rows", len(tbl.Rows))
	return
}
