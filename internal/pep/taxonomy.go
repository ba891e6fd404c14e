package pep

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Taxonomy maps index status codes to the status names acceptable for them.
// It is immutable after construction.
type Taxonomy struct {
	expected map[string][]string
	valid    map[string]struct{}
	codes    []string
}

// DefaultStatuses is the taxonomy used when no taxonomy file is configured.
// The empty code covers index rows whose abbreviation carries no status letter.
var DefaultStatuses = map[string][]string{
	"A": {"Active", "Accepted"},
	"D": {"Deferred"},
	"F": {"Final"},
	"P": {"Provisional"},
	"R": {"Rejected"},
	"S": {"Superseded"},
	"W": {"Withdrawn"},
	"":  {"Draft", "Active"},
}

// NewTaxonomy builds a taxonomy from code -> names. Every code must map to at
// least one non-empty name and codes are at most one character long.
func NewTaxonomy(statuses map[string][]string) (*Taxonomy, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("taxonomy has no status codes")
	}

	t := &Taxonomy{
		expected: make(map[string][]string, len(statuses)),
		valid:    make(map[string]struct{}),
	}

	for code, names := range statuses {
		if len([]rune(code)) > 1 {
			return nil, fmt.Errorf("status code %q must be a single character", code)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("status code %q has no status names", code)
		}

		seen := make(map[string]struct{}, len(names))
		ordered := make([]string, 0, len(names))
		for _, name := range names {
			if name == "" {
				return nil, fmt.Errorf("status code %q has an empty status name", code)
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			ordered = append(ordered, name)
			t.valid[name] = struct{}{}
		}

		t.expected[code] = ordered
		t.codes = append(t.codes, code)
	}
	sort.Strings(t.codes)

	return t, nil
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(DefaultStatuses)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTaxonomy reads a YAML file of the form
//
//	A: [Active, Accepted]
//	F: [Final]
//	"": [Draft, Active]
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}

	var statuses map[string][]string
	if err := yaml.Unmarshal(data, &statuses); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}

	t, err := NewTaxonomy(statuses)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy %s: %w", path, err)
	}
	return t, nil
}

// ExpectedNames returns the acceptable names for code, or false when the
// code is not registered.
func (t *Taxonomy) ExpectedNames(code string) ([]string, bool) {
	names, ok := t.expected[code]
	if !ok {
		return nil, false
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, true
}

// IsValidName reports whether name is acceptable for any code.
func (t *Taxonomy) IsValidName(name string) bool {
	_, ok := t.valid[name]
	return ok
}

// Codes returns the registered codes in ascending order.
func (t *Taxonomy) Codes() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// ValidNames returns the union of all status names in ascending order.
func (t *Taxonomy) ValidNames() []string {
	out := make([]string, 0, len(t.valid))
	for name := range t.valid {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
