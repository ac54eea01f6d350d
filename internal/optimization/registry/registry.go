// Package registry resolves optimizer titles to constructors. Built-in
// strategies shadow external ones of the same name.
package registry

import (
	"sort"

	"github.com/copyleftdev/hypertune/internal/optimization"
	"github.com/copyleftdev/hypertune/internal/optimization/grid"
	"github.com/copyleftdev/hypertune/internal/optimization/strategies"
)

// Builtin returns the strategies defined by this service.
func Builtin() optimization.Registry {
	return optimization.Registry{
		grid.Name: grid.New,
	}
}

// Factory looks titles up in the built-in table, then the external one.
type Factory struct {
	builtin  optimization.Registry
	external optimization.Registry
}

// NewFactory creates a factory over the given tables. Nil tables are empty.
func NewFactory(builtin, external optimization.Registry) *Factory {
	return &Factory{builtin: builtin, external: external}
}

// Default returns the factory with the built-in grid strategy and the
// external strategies package.
func Default() *Factory {
	return NewFactory(Builtin(), strategies.Registry())
}

// Resolve returns the constructor registered under title.
func (f *Factory) Resolve(title string) (optimization.Constructor, error) {
	if ctor, ok := f.builtin[title]; ok {
		return ctor, nil
	}
	if ctor, ok := f.external[title]; ok {
		return ctor, nil
	}
	return nil, optimization.NewErrorf(optimization.KindUnknownStrategy, "unknown optimizer %q", title).
		WithComponent("registry").WithOperation("Resolve")
}

// Names returns every resolvable title, sorted.
func (f *Factory) Names() []string {
	seen := make(map[string]bool, len(f.builtin)+len(f.external))
	names := make([]string, 0, len(f.builtin)+len(f.external))
	for _, table := range []optimization.Registry{f.builtin, f.external} {
		for name := range table {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
