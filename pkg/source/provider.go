package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
)

// ErrUnknownProvider is returned by Registry.Get for unregistered names.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider defines the interface for a source of tree listings (e.g., GitHub).
type Provider interface {
	// Name returns the provider's name (e.g., "github").
	Name() string
	// FetchTree fetches the flat, recursive tree listing for ref.
	FetchTree(ctx context.Context, ref Ref) (*codebase.Payload, error)
}

// Ref identifies a tree to fetch. Remote providers use Owner, Repo and Ref;
// local providers use Path (and Ref for git).
type Ref struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// DefaultRef is used when a target does not name a ref.
const DefaultRef = "HEAD"

// ParseRef parses "owner/repo" or "owner/repo@ref".
func ParseRef(target string) (Ref, error) {
	repoPath, ref, _ := strings.Cut(target, "@")
	owner, repo, ok := strings.Cut(repoPath, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return Ref{}, fmt.Errorf("invalid repository %q, expected owner/repo[@ref]", target)
	}
	if ref == "" {
		ref = DefaultRef
	}
	return Ref{Owner: owner, Repo: repo, Ref: ref}, nil
}

// LocalRef builds a Ref for a local path with an optional "@ref" suffix.
func LocalRef(target string) Ref {
	path, ref, _ := strings.Cut(target, "@")
	if ref == "" {
		ref = DefaultRef
	}
	return Ref{Path: path, Ref: ref}
}

func (r Ref) String() string {
	if r.Path != "" {
		return r.Path + "@" + r.Ref
	}
	return r.Owner + "/" + r.Repo + "@" + r.Ref
}

// Key returns the cache key of the ref for the named provider.
func (r Ref) Key(provider string) string {
	return provider + ":" + r.String()
}

// Factory creates a Provider instance.
type Factory func() Provider

// Registry maps provider names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register registers a provider factory for a given provider name.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Get creates the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownProvider, name, strings.Join(r.Names(), ", "))
	}
	return factory(), nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
