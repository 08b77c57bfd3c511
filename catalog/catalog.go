// Package catalog loads the fixed vocabulary of queryable run fields.
//
// The catalog is the only set of field paths the translator may reference.
// It is loaded once at startup and read-only afterwards.
package catalog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"runlens/util"
)

// Entry pairs a dotted field path with its human-readable description.
type Entry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Catalog is an ordered, immutable set of field entries.
// Entry order follows the backing file and is part of the prompt contract.
type Catalog struct {
	entries []Entry
	byName  map[string]bool
}

// Load reads a catalog file, a YAML sequence of {name, description} entries.
// A missing, unreadable, or malformed file is an error; callers that need
// the catalog should treat it as fatal.
func Load(path string) (cat *Catalog, err error) {

	var file struct {
		Fields []Entry `yaml:"fields"`
	}

	err = util.LoadConfig(&file, path)
	if err != nil {
		err = errors.Wrapf(err, "failed to load field catalog from %s", path)
		return
	}

	cat, err = New(file.Fields)
	err = errors.Wrapf(err, "bad field catalog in %s", path)
	return
}

// New builds a catalog from entries, rejecting empty or duplicate names.
func New(entries []Entry) (cat *Catalog, err error) {

	if len(entries) == 0 {
		err = errors.Errorf("catalog has no fields")
		return
	}

	byName := map[string]bool{}
	for _, entry := range entries {
		if entry.Name == "" {
			err = errors.Errorf("catalog entry with empty name")
			return
		}
		if entry.Description == "" {
			err = errors.Errorf("catalog entry %s has no description", entry.Name)
			return
		}
		if byName[entry.Name] {
			err = errors.Errorf("duplicate catalog entry %s", entry.Name)
			return
		}
		byName[entry.Name] = true
	}

	cat = &Catalog{
		entries: entries,
		byName:  byName,
	}
	return
}

// Describe renders the per-field description block embedded in every prompt.
// The format is part of the contract with the generation service's few-shot
// conditioning, so keep it stable.
func (cat *Catalog) Describe() string {

	var bld strings.Builder
	for _, entry := range cat.entries {
		fmt.Fprintf(&bld, "Field: %s\nDescription: %s\n\n", entry.Name, entry.Description)
	}

	return bld.String()
}

// Has reports whether name is a catalog field.
func (cat *Catalog) Has(name string) bool {
	return cat.byName[name]
}

// Names returns field names in catalog order.
func (cat *Catalog) Names() (names []string) {

	names = make([]string, len(cat.entries))
	for i, entry := range cat.entries {
		names[i] = entry.Name
	}
	return
}

// Len returns the number of fields.
func (cat *Catalog) Len() int {
	return len(cat.entries)
}
