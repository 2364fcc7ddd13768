// Package params expands a named parameter space into the full Cartesian
// product of its candidate values, one combination per simulation run.
package params

import (
	"fmt"
	"sort"
)

// Param is one named axis of the space: a parameter name and the list of
// candidate values it may take.
type Param struct {
	Name   string `json:"name" yaml:"name" mapstructure:"name"`
	Values []any  `json:"values" yaml:"values" mapstructure:"values"`
}

// Space is an ordered list of parameter axes. Order matters: expansion is
// deterministic for a fixed axis order, with the right-most axis varying
// fastest.
type Space []Param

// FromMap builds a Space from a plain map. Go maps have no iteration order,
// so axes are sorted by name to keep expansion reproducible. Callers that
// care about a specific order should construct the Space literal directly.
func FromMap(m map[string][]any) Space {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	s := make(Space, 0, len(m))
	for _, name := range names {
		s = append(s, Param{Name: name, Values: m[name]})
	}
	return s
}

// Size returns the number of combinations Expand will produce.
func (s Space) Size() int {
	n := 1
	for _, p := range s {
		n *= len(p.Values)
	}
	return n
}

// Validate reports axes that cannot be expanded.
func (s Space) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, p := range s {
		if p.Name == "" {
			return fmt.Errorf("parameter with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		if len(p.Values) == 0 {
			return fmt.Errorf("parameter %q has no candidate values", p.Name)
		}
	}
	return nil
}

// Expand returns every combination of the space as a keyword-argument bag.
// The result length equals Size(), and every bag carries exactly the axis
// names as keys.
func (s Space) Expand() ([]map[string]any, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, s.Size())
	idx := make([]int, len(s))
	for {
		combo := make(map[string]any, len(s))
		for i, p := range s {
			combo[p.Name] = p.Values[idx[i]]
		}
		out = append(out, combo)

		// Advance like an odometer, right-most digit fastest.
		i := len(s) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(s[i].Values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out, nil
		}
	}
}
