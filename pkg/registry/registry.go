// Package registry maps absolute schema URIs to declarative schema nodes.
package registry

import (
	"errors"
	"slices"
	"sync"

	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/uri"
)

// ErrSealed is returned by Add once the registry has been sealed.
var ErrSealed = errors.New("registry is sealed")

// Registry holds every addressable schema location of the loaded documents:
// document roots, "$id" and "$anchor" targets, and each subschema's JSON
// Pointer location.
//
// Population must finish before compilation starts. Seal makes that
// explicit; lookups are safe for concurrent use either way.
type Registry struct {
	mu     sync.RWMutex
	byURI  map[string]schema.Node
	sealed bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byURI: make(map[string]schema.Node),
	}
}

// Add registers n under u. The first registration of a URI wins.
func (r *Registry) Add(u string, n schema.Node) error {
	key, err := uri.Canonical(u)
	if err != nil {
		return &schema.SchemaError{URI: u, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if _, exists := r.byURI[key]; !exists {
		r.byURI[key] = n
	}
	return nil
}

// Get returns the node registered under u.
func (r *Registry) Get(u string) (schema.Node, error) {
	key, err := uri.Canonical(u)
	if err != nil {
		return nil, &schema.SchemaError{URI: u, Err: err}
	}

	r.mu.RLock()
	n, ok := r.byURI[key]
	r.mu.RUnlock()

	if !ok {
		return nil, &schema.SchemaError{URI: u, Err: schema.ErrUnresolvedReference}
	}
	return n, nil
}

// Has reports whether u is registered.
func (r *Registry) Has(u string) bool {
	_, err := r.Get(u)
	return err == nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Count returns the number of registered URIs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byURI)
}

// AllURIs returns every registered URI, sorted.
func (r *Registry) AllURIs() []string {
	r.mu.RLock()
	uris := make([]string, 0, len(r.byURI))
	for u := range r.byURI {
		uris = append(uris, u)
	}
	r.mu.RUnlock()

	slices.Sort(uris)
	return uris
}
