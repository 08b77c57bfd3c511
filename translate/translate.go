// Package translate turns a natural-language question about experiment runs
// into a filter query and sort specification, via three synthesis steps
// against an external generation service:
//
//	A. select relevant catalog fields
//	B. synthesize a filter expression over the validated fields
//	C. synthesize a sort specification
//
// Step A's output is validated against the catalog (unknown names dropped,
// logged, never surfaced as failure). Steps B and C both depend only on A's
// validated set and run concurrently. There are no retries; the first
// failure aborts the query.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"runlens/catalog"
	nt "runlens/entity"
	"runlens/filter"
	"runlens/prompt"
)

// Generator is the external text-generation boundary: rendered prompt in,
// one JSON object out.
type Generator interface {
	Generate(ctx context.Context, rendered string) (json.RawMessage, error)
}

// SynthesisError reports that the generation service returned unparseable or
// schema-violating output at some step. There is no local repair or retry.
type SynthesisError struct {
	Step  string
	Raw   json.RawMessage
	Cause error
}

func (se *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed at %s: %v", se.Step, se.Cause)
}

func (se *SynthesisError) Unwrap() error {
	return se.Cause
}

// Translation is the structured result of a full pipeline run.
type Translation struct {
	Fields []string
	Filter *filter.Query
	Sorts  []nt.Sort
}

// Pipeline orchestrates the synthesis steps. It holds no per-query state;
// everything flows through explicit values.
type Pipeline struct {
	Catalog   *catalog.Catalog
	Generator Generator
	Logger    nt.Logger
}

// Translate runs the full pipeline: select, validate, then filter and sort
// synthesis together.
func (pln *Pipeline) Translate(ctx context.Context, query string) (tln Translation, err error) {

	fields, err := pln.SelectFields(ctx, query)
	if err != nil {
		return
	}
	tln.Fields = fields

	// sort synthesis reads only the validated field set, so it can overlap
	// the filter call
	type sortOut struct {
		sorts []nt.Sort
		err   error
	}
	sortCh := make(chan sortOut, 1)
	go func() {
		sorts, serr := pln.SynthesizeSort(ctx, query, fields)
		sortCh <- sortOut{sorts: sorts, err: serr}
	}()

	fq, err := pln.SynthesizeFilter(ctx, query, fields)
	sorted := <-sortCh
	if err != nil {
		return
	}
	if sorted.err != nil {
		err = sorted.err
		return
	}

	tln.Filter = fq
	tln.Sorts = sorted.sorts
	return
}

// SelectFields asks the generation service which catalog fields the query
// needs, then drops any name not in the catalog. An empty result is not an
// error; downstream steps still run.
func (pln *Pipeline) SelectFields(ctx context.Context, query string) (fields []string, err error) {

	rendered, err := prompt.RenderColumnSelection(query, pln.Catalog.Describe())
	if err != nil {
		return
	}

	raw, err := pln.Generator.Generate(ctx, rendered)
	if err != nil {
		err = errors.Wrapf(err, "generation failed during %s", stepSelect)
		return
	}

	var selected []string
	err = decodeKey(stepSelect, raw, "columns", &selected)
	if err != nil {
		return
	}

	fields = make([]string, 0, len(selected))
	seen := map[string]bool{}
	for _, name := range selected {
		if !pln.Catalog.Has(name) {
			pln.Logger.Info(ctx, "dropping field not in catalog", "field", name)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}

	if len(fields) == 0 {
		pln.Logger.Info(ctx, "no catalog fields selected, continuing with empty set", "query", query)
	}
	return
}

// SynthesizeFilter asks the generation service for a filter expression over
// the validated fields and parses it against the grammar and the catalog.
func (pln *Pipeline) SynthesizeFilter(ctx context.Context, query string, fields []string) (fq *filter.Query, err error) {

	rendered, err := prompt.RenderFilterSynthesis(query, pln.Catalog.Describe(), fields)
	if err != nil {
		return
	}

	raw, err := pln.Generator.Generate(ctx, rendered)
	if err != nil {
		err = errors.Wrapf(err, "generation failed during %s", stepFilter)
		return
	}

	var body json.RawMessage
	err = decodeKey(stepFilter, raw, "query", &body)
	if err != nil {
		return
	}

	fq, err = filter.Parse(body)
	if err != nil {
		err = &SynthesisError{Step: stepFilter, Raw: raw, Cause: err}
		return
	}

	err = fq.Validate(pln.Catalog)
	if err != nil {
		fq = nil
		err = &SynthesisError{Step: stepFilter, Raw: raw, Cause: err}
	}
	return
}

// SynthesizeSort asks the generation service for a sort specification.
// No ordering intent yields an empty slice, never a fabricated field.
// Entries naming unknown fields are dropped and logged, mirroring the
// field-selection tolerance.
func (pln *Pipeline) SynthesizeSort(ctx context.Context, query string, fields []string) (sorts []nt.Sort, err error) {

	rendered, err := prompt.RenderSortSynthesis(query, pln.Catalog.Describe(), fields)
	if err != nil {
		return
	}

	raw, err := pln.Generator.Generate(ctx, rendered)
	if err != nil {
		err = errors.Wrapf(err, "generation failed during %s", stepSort)
		return
	}

	var entries []nt.Sort
	err = decodeKey(stepSort, raw, "sort_by", &entries)
	if err != nil {
		return
	}

	sorts = make([]nt.Sort, 0, len(entries))
	for _, entry := range entries {
		direction := nt.Direction(strings.ToLower(string(entry.Direction)))
		if direction != nt.Asc && direction != nt.Desc {
			err = &SynthesisError{Step: stepSort, Raw: raw, Cause: errors.Errorf("bad sort direction %q", entry.Direction)}
			sorts = nil
			return
		}
		if !pln.Catalog.Has(entry.Field) {
			pln.Logger.Info(ctx, "dropping sort field not in catalog", "field", entry.Field)
			continue
		}
		sorts = append(sorts, nt.Sort{Field: entry.Field, Direction: direction})
	}
	return
}

// unexported

const (
	stepSelect = "field selection"
	stepFilter = "filter synthesis"
	stepSort   = "sort synthesis"
)

// decodeKey pulls a required top-level key out of a generation response.
func decodeKey(step string, raw json.RawMessage, key string, out any) error {

	var node map[string]json.RawMessage
	err := json.Unmarshal(raw, &node)
	if err != nil {
		return &SynthesisError{Step: step, Raw: raw, Cause: errors.Wrapf(err, "response is not a JSON object")}
	}

	body, ok := node[key]
	if !ok {
		return &SynthesisError{Step: step, Raw: raw, Cause: errors.Errorf("response is missing %q", key)}
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		return &SynthesisError{Step: step, Raw: raw, Cause: errors.Wrapf(err, "bad %q value", key)}
	}
	return nil
}
