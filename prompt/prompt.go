// Package prompt renders the three instruction templates sent to the
// generation service: column selection, filter synthesis, and sort
// synthesis. Each carries few-shot examples establishing the grammar
// conventions of the filter package.
package prompt

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

var (
	columnSelectionTmpl = template.Must(template.New("column-selection").Parse(columnSelection))
	filterSynthesisTmpl = template.Must(template.New("filter-synthesis").Parse(filterSynthesis))
	sortSynthesisTmpl   = template.Must(template.New("sort-synthesis").Parse(sortSynthesis))
)

type data struct {
	Query                 string
	FieldsWithDescription string
	Columns               string
}

// RenderColumnSelection renders the field-selection prompt.
// The described block comes from catalog.Describe and its format is part of
// the few-shot conditioning.
func RenderColumnSelection(query, described string) (string, error) {
	return render(columnSelectionTmpl, data{
		Query:                 query,
		FieldsWithDescription: described,
	})
}

// RenderFilterSynthesis renders the filter-synthesis prompt with the
// validated field set.
func RenderFilterSynthesis(query, described string, columns []string) (string, error) {

	cols, err := columnList(columns)
	if err != nil {
		return "", err
	}

	return render(filterSynthesisTmpl, data{
		Query:                 query,
		FieldsWithDescription: described,
		Columns:               cols,
	})
}

// RenderSortSynthesis renders the sort-synthesis prompt with the validated
// field set.
func RenderSortSynthesis(query, described string, columns []string) (string, error) {

	cols, err := columnList(columns)
	if err != nil {
		return "", err
	}

	return render(sortSynthesisTmpl, data{
		Query:                 query,
		FieldsWithDescription: described,
		Columns:               cols,
	})
}

// unexported

func render(tmpl *template.Template, dat data) (out string, err error) {

	var bld strings.Builder
	err = tmpl.Execute(&bld, dat)
	if err != nil {
		err = errors.Wrapf(err, "failed to render %s prompt", tmpl.Name())
		return
	}

	out = bld.String()
	return
}

func columnList(columns []string) (out string, err error) {

	if columns == nil {
		columns = []string{}
	}

	raw, err := json.Marshal(columns)
	if err != nil {
		err = errors.Wrapf(err, "failed to marshal column list")
		return
	}

	out = string(raw)
	return
}
