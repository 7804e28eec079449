package snippet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/reqlab/reqlab/pkg/request"
)

// Target identifies a client idiom.
type Target string

// Supported targets.
const (
	TargetCurl   Target = "curl"
	TargetFetch  Target = "fetch"
	TargetAxios  Target = "axios"
	TargetPython Target = "python"
	TargetGo     Target = "go"
	TargetNodeJS Target = "nodejs"
)

// String returns the target name.
func (t Target) String() string {
	return string(t)
}

// ErrUnknownTarget is returned when no generator is registered for a target.
var ErrUnknownTarget = errors.New("unknown snippet target")

// Generator renders a request in one client idiom.
type Generator interface {
	// Target returns the idiom this generator produces.
	Target() Target

	// Label is a human-readable name, e.g. "Python (requests)".
	Label() string

	// Language is the source language, used for syntax highlighting.
	Language() string

	// Generate renders r. It returns "" when r has no URL.
	Generate(r *request.Request) string
}

// Registry holds generators keyed by target, remembering registration order.
type Registry struct {
	mu         sync.RWMutex
	generators map[Target]Generator
	order      []Target
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[Target]Generator)}
}

// defaultRegistry is populated by init in this package.
var defaultRegistry = NewRegistry()

// Register adds g to the default registry.
func Register(g Generator) {
	defaultRegistry.Register(g)
}

// Get returns the generator for t from the default registry, or nil.
func Get(t Target) Generator {
	return defaultRegistry.Get(t)
}

// List returns the generators of the default registry in registration order.
func List() []Generator {
	return defaultRegistry.List()
}

// Targets returns the targets of the default registry in registration order.
func Targets() []Target {
	return defaultRegistry.Targets()
}

// Generate renders r with the default registry's generator for t.
func Generate(t Target, r *request.Request) (string, error) {
	return defaultRegistry.Generate(t, r)
}

// Register adds or replaces the generator for g.Target().
func (reg *Registry) Register(g Generator) {
	if g == nil {
		return
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.generators[g.Target()]; !exists {
		reg.order = append(reg.order, g.Target())
	}
	reg.generators[g.Target()] = g
}

// Get returns the generator for t, or nil.
func (reg *Registry) Get(t Target) Generator {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.generators[t]
}

// List returns all generators in registration order.
func (reg *Registry) List() []Generator {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	result := make([]Generator, 0, len(reg.order))
	for _, t := range reg.order {
		result = append(result, reg.generators[t])
	}
	return result
}

// Targets returns all targets in registration order.
func (reg *Registry) Targets() []Target {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	result := make([]Target, len(reg.order))
	copy(result, reg.order)
	return result
}

// Generate renders r with the generator registered for t.
func (reg *Registry) Generate(t Target, r *request.Request) (string, error) {
	g := reg.Get(t)
	if g == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, t)
	}
	return g.Generate(r), nil
}

func init() {
	Register(curlGenerator{})
	Register(fetchGenerator{})
	Register(axiosGenerator{})
	Register(pythonGenerator{})
	Register(goGenerator{})
	Register(nodeGenerator{})
}
