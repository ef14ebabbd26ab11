// Package hepdata writes tables in the HEPData submission YAML format.
package hepdata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hepkit/hepkit/util/fsutil"
)

// Variable is a column of a table.
type Variable struct {
	Units *string `json:"units"`
	Rows  []Row   `json:"data"`
}

// Row is a single value, or a bin when Binned is set.
//
// In JSON a row is [low, high, errors] or [value, errors].
type Row struct {
	Binned    bool
	Low, High float64
	Value     float64
	Errors    []Error
}

// Error is a labelled asymmetric uncertainty, [label, plus, minus] in JSON.
type Error struct {
	Label       string
	Plus, Minus float64
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Row) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var err error
	switch len(raw) {
	case 3:
		r.Binned = true
		err = unmarshalAll(raw, &r.Low, &r.High, &r.Errors)
	case 2:
		err = unmarshalAll(raw, &r.Value, &r.Errors)
	default:
		return fmt.Errorf("row %s: expected [low, high, errors] or [value, errors]", b)
	}
	if err != nil {
		return fmt.Errorf("row %s: %w", b, err)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("error %s: expected [label, plus, minus]", b)
	}
	return unmarshalAll(raw, &e.Label, &e.Plus, &e.Minus)
}

func unmarshalAll(raw []json.RawMessage, dst ...interface{}) error {
	for i, d := range dst {
		if err := json.Unmarshal(raw[i], d); err != nil {
			return err
		}
	}
	return nil
}

// Document is a HEPData table.
type Document struct {
	Independent []Column `json:"independent_variables"`
	Dependent   []Column `json:"dependent_variables"`
}

// Column is a variable in a Document.
type Column struct {
	Header Header  `json:"header"`
	Values []Value `json:"values"`
}

// Header names a column.
type Header struct {
	Name  string  `json:"name"`
	Units *string `json:"units,omitempty"`
}

// Value is a row in a Column.
type Value struct {
	Low    *float64     `json:"low,omitempty"`
	High   *float64     `json:"high,omitempty"`
	Value  *float64     `json:"value,omitempty"`
	Errors []ErrorEntry `json:"errors,omitempty"`
}

// ErrorEntry is an uncertainty in a Value.
type ErrorEntry struct {
	AsymError AsymError `json:"asymerror"`
	Label     string    `json:"label"`
}

// AsymError holds the two sides of an uncertainty.
type AsymError struct {
	Plus  float64 `json:"plus"`
	Minus float64 `json:"minus"`
}

// Load reads variables from a JSON file keyed by variable name.
func Load(path string) (map[string]Variable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]Variable
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return data, nil
}

// Build makes a Document from the named variables of data.
func Build(data map[string]Variable, independent, dependent []string) (*Document, error) {
	var errs *multierror.Error
	columns := func(names []string) []Column {
		out := []Column{}
		for _, name := range names {
			v, ok := data[name]
			if !ok {
				errs = multierror.Append(errs, fmt.Errorf("variable %q not found in input", name))
				continue
			}
			out = append(out, column(name, v))
		}
		return out
	}
	doc := &Document{
		Independent: columns(independent),
		Dependent:   columns(dependent),
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return doc, nil
}

func column(name string, v Variable) Column {
	c := Column{
		Header: Header{Name: name, Units: v.Units},
		Values: []Value{},
	}
	for _, r := range v.Rows {
		r := r
		var val Value
		if r.Binned {
			val.Low, val.High = &r.Low, &r.High
		} else {
			val.Value = &r.Value
		}
		for _, e := range r.Errors {
			val.Errors = append(val.Errors, ErrorEntry{
				AsymError: AsymError{Plus: e.Plus, Minus: e.Minus},
				Label:     e.Label,
			})
		}
		c.Values = append(c.Values, val)
	}
	return c
}

// Save writes doc as YAML, creating parent directories.
func Save(path string, doc *Document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := fsutil.EnsurePath(path); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
