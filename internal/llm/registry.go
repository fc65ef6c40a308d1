package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mtlprog/finagent/internal/domain"
)

// Registry holds the configured providers by lowercase name.
type Registry struct {
	providers   map[string]*Provider
	defaultName string
}

// NewRegistry creates an empty registry. defaultName selects the provider
// returned for an empty name.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		providers:   make(map[string]*Provider),
		defaultName: strings.ToLower(strings.TrimSpace(defaultName)),
	}
}

// Register adds a provider under name, replacing any previous one.
func (r *Registry) Register(name string, provider *Provider) {
	r.providers[strings.ToLower(strings.TrimSpace(name))] = provider
}

// Get resolves a provider by name (case-insensitive). An empty name selects the default.
func (r *Registry) Get(name string) (*Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = r.defaultName
	}
	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
	return p, nil
}

// Default returns the default provider.
func (r *Registry) Default() (*Provider, error) {
	return r.Get("")
}

// DefaultName returns the configured default provider name.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Names lists registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
