package animation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// IdleDuration is the cycle length of profiles created by Ensure.
const IdleDuration = 5 * time.Second

// Registry holds motion profiles keyed by lift id.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]*Profile)}
}

// NewBuiltInRegistry returns a registry preloaded with the bundled profiles.
func NewBuiltInRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadBuiltIn(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadBuiltIn loads all embedded profiles into the registry.
func (r *Registry) LoadBuiltIn() error {
	names, err := ListEmbedded()
	if err != nil {
		return err
	}

	for _, name := range names {
		profile, err := LoadEmbedded(name)
		if err != nil {
			return fmt.Errorf("failed to load profile %q: %w", name, err)
		}
		r.Register(profile)
	}
	return nil
}

// Register adds or replaces a profile.
func (r *Registry) Register(profile *Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[skeleton.NormalizeLift(profile.Lift)] = profile
}

// Get returns the profile for a lift.
func (r *Registry) Get(lift string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lift = skeleton.NormalizeLift(lift)
	profile, ok := r.profiles[lift]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, lift)
	}
	return profile, nil
}

// Ensure returns the profile for a lift, registering an empty one that
// holds the base pose when none exists.
func (r *Registry) Ensure(lift string) *Profile {
	lift = skeleton.NormalizeLift(lift)

	r.mu.Lock()
	defer r.mu.Unlock()

	if profile, ok := r.profiles[lift]; ok {
		return profile
	}
	profile := &Profile{Lift: lift, Duration: IdleDuration}
	r.profiles[lift] = profile
	return profile
}

// List returns all registered lift ids, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
