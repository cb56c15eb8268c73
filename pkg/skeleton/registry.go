package skeleton

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/teslashibe/liftviz/internal/log"
)

// DefaultLift is served when a caller does not name a lift.
const DefaultLift = Squat

// Registry holds the skeleton definitions and memoizes their resolved trees
// keyed by lift id. A memo entry is dropped only when its definition is
// replaced through Register.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]*Definition
	resolved map[string]*Resolved
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]*Definition),
		resolved: make(map[string]*Resolved),
		logger:   log.With("component", "skeleton"),
	}
}

// NewBuiltInRegistry returns a registry preloaded with the bundled lifts.
func NewBuiltInRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadBuiltIn(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadBuiltIn loads all embedded definitions into the registry.
func (r *Registry) LoadBuiltIn() error {
	names, err := ListEmbedded()
	if err != nil {
		return err
	}

	for _, name := range names {
		def, err := LoadEmbedded(name)
		if err != nil {
			return fmt.Errorf("failed to load skeleton %q: %w", name, err)
		}
		r.Register(def)
	}

	return nil
}

// LoadCustomDir loads definitions from a directory, replacing bundled lifts
// that share a name.
func (r *Registry) LoadCustomDir(dir string) error {
	defs, err := LoadFromDirectory(dir)
	if err != nil {
		return err
	}

	for _, def := range defs {
		r.Register(def)
	}

	return nil
}

// Register adds or replaces a definition and invalidates its memoized tree.
// Definitions that are not proper trees are accepted with a warning.
func (r *Registry) Register(def *Definition) {
	def.Name = NormalizeLift(def.Name)
	if err := Validate(def); err != nil {
		r.logger.Warn("skeleton is not a proper tree, resolving best-effort",
			"lift", def.Name, "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	delete(r.resolved, def.Name)
}

// Unregister removes a lift.
func (r *Registry) Unregister(lift string) {
	lift = NormalizeLift(lift)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, lift)
	delete(r.resolved, lift)
}

// Get returns the resolved skeleton for a lift, resolving it on first use.
func (r *Registry) Get(lift string) (*Resolved, error) {
	lift = NormalizeLift(lift)

	r.mu.RLock()
	if res, ok := r.resolved[lift]; ok {
		r.mu.RUnlock()
		return res, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.resolved[lift]; ok {
		return res, nil
	}
	def, ok := r.defs[lift]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLift, lift)
	}

	res := Resolve(def)
	r.resolved[lift] = res
	r.logger.Debug("resolved skeleton", "lift", lift, "root", res.Root, "joints", len(res.joints))
	return res, nil
}

// Definition returns a copy of a registered definition.
func (r *Registry) Definition(lift string) (Definition, error) {
	lift = NormalizeLift(lift)

	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[lift]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownLift, lift)
	}
	return cloneDefinition(def), nil
}

// Has reports whether a lift is registered.
func (r *Registry) Has(lift string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[NormalizeLift(lift)]
	return ok
}

// List returns all registered lift ids, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered lifts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
