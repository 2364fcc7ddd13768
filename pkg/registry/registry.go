// Package registry maps declared component type names to block constructors.
//
// The table is assembled once at startup from the built-in set plus any
// caller-supplied extensions, then frozen. The frozen Registry is passed by
// reference into the scenario builder and never mutated afterwards; there is
// no process-global registration.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// ErrUnknownType is returned when a declared component type is not present in
// the registry.
var ErrUnknownType = errors.New("unknown component type")

// Args is the keyword-argument bag a constructor receives, as decoded from a
// scenario document.
type Args map[string]any

// Constructor builds a wired block from a keyword-argument bag. This is the
// extension contract for user-supplied components.
type Constructor func(args Args) (graph.Block, error)

// Entry pairs a constructor with a one-line summary for listings.
type Entry struct {
	Summary string
	New     Constructor
}

// Builder accumulates entries before the table is frozen.
type Builder map[string]Entry

// Register adds a constructor under a type name.
func (b Builder) Register(name, summary string, c Constructor) error {
	if _, ok := b[name]; ok {
		return fmt.Errorf("component type %q registered twice", name)
	}
	b[name] = Entry{Summary: summary, New: c}
	return nil
}

// Merge copies every entry of other into b. Name collisions are an error;
// extensions may add types but not shadow built-ins.
func (b Builder) Merge(other Builder) error {
	for name, e := range other {
		if _, ok := b[name]; ok {
			return fmt.Errorf("component type %q registered twice", name)
		}
		b[name] = e
	}
	return nil
}

// Freeze produces the immutable lookup table.
func (b Builder) Freeze() *Registry {
	entries := make(map[string]Entry, len(b))
	for name, e := range b {
		entries[name] = e
	}
	return &Registry{entries: entries}
}

// Registry is the frozen name-to-constructor table.
type Registry struct {
	entries map[string]Entry
}

// New constructs a block of the named type. An undeclared type fails with an
// error naming it.
func (r *Registry) New(typeName string, args Args) (graph.Block, error) {
	e, ok := r.entries[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	blk, err := e.New(args)
	if err != nil {
		return nil, fmt.Errorf("construct %q: %w", typeName, err)
	}
	return blk, nil
}

// Lookup returns the entry for a type name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Types returns every registered type name, sorted.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode fills a constructor's config struct from an argument bag. Decoding
// is weakly typed (JSON numbers arrive as float64) but strict about unknown
// keys, so a misspelled argument fails construction instead of being
// silently ignored. Fields of type sample.Type accept their string names.
func Decode(args Args, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       sampleTypeHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(args))
}

var sampleTypeType = reflect.TypeOf(sample.Byte)

func sampleTypeHook(from, to reflect.Type, data any) (any, error) {
	if to != sampleTypeType || from.Kind() != reflect.String {
		return data, nil
	}
	return sample.Parse(data.(string))
}
