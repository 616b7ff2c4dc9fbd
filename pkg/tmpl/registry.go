package tmpl

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// TagFactory builds the node for one occurrence of a tag. args is the tag's
// raw argument text (everything after the tag name); p is the live parser,
// used to parse nested content up to the tag's terminators.
type TagFactory interface {
	Build(args string, p *Parser) (Node, error)
}

// TagFactoryFunc adapts a function to TagFactory.
type TagFactoryFunc func(args string, p *Parser) (Node, error)

func (f TagFactoryFunc) Build(args string, p *Parser) (Node, error) { return f(args, p) }

// Library is a named set of tags contributed by an extension.
type Library map[string]TagFactory

// LibraryLoader resolves extension names used by {% load %}.
type LibraryLoader interface {
	LoadLibrary(name string) (Library, error)
}

// Registry maps tag names to factories and filter names to filters. A
// registry is an explicit value handed to each parser; tests and callers can
// build as many independent registries as they need. It is safe for
// concurrent use, so {% load %} in one parse may overlap renders elsewhere.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TagFactory
	filters   map[string]FilterFunc
	loader    LibraryLoader
	loaded    map[string]bool
}

// NewRegistry returns a registry with no tags and the default filters.
func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]TagFactory{},
		filters:   DefaultFilters(),
		loaded:    map[string]bool{},
	}
}

// Register adds a tag. It fails with *DuplicateTagError if name is taken.
func (r *Registry) Register(name string, f TagFactory) error {
	if name == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(name, f)
}

func (r *Registry) registerLocked(name string, f TagFactory) error {
	if _, ok := r.factories[name]; ok {
		return &DuplicateTagError{Name: name}
	}
	r.factories[name] = f
	slog.Debug("registered tag", "name", name)
	return nil
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (TagFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered tag names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// RegisterFilter adds or replaces a filter.
func (r *Registry) RegisterFilter(name string, f FilterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = f
}

// Filter returns the filter registered for name.
func (r *Registry) Filter(name string) (FilterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// SetLibraryLoader sets the loader consulted by LoadLibrary.
func (r *Registry) SetLibraryLoader(l LibraryLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loader = l
}

// Loaded reports whether the named library has been loaded.
func (r *Registry) Loaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded[name]
}

// LoadLibrary registers every tag of the named library. Loading a library a
// second time is a no-op. A tag clashing with an already registered name
// fails with *DuplicateTagError and leaves the registry unchanged.
//
// The loader runs without the registry lock held, so slow loaders do not
// block concurrent parses and may themselves use the registry. Two
// concurrent loads of the same library may both call the loader; only the
// first to finish registers its tags.
func (r *Registry) LoadLibrary(name string) error {
	r.mu.RLock()
	loaded, loader := r.loaded[name], r.loader
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	if loader == nil {
		return ErrLibraryNotFound{Name: name}
	}
	lib, err := loader.LoadLibrary(name)
	if err != nil {
		return fmt.Errorf("loading library %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded[name] {
		return nil
	}
	tags := make([]string, 0, len(lib))
	for tag := range lib {
		if _, ok := r.factories[tag]; ok {
			return &DuplicateTagError{Name: tag}
		}
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	for _, tag := range tags {
		if err := r.registerLocked(tag, lib[tag]); err != nil {
			return err
		}
	}
	r.loaded[name] = true
	slog.Debug("loaded tag library", "library", name, "tags", tags)
	return nil
}

// MapLoader is an in-memory LibraryLoader.
type MapLoader map[string]Library

func (m MapLoader) LoadLibrary(name string) (Library, error) {
	if lib, ok := m[name]; ok {
		return lib, nil
	}
	return nil, ErrLibraryNotFound{Name: name}
}

// ChainLoader tries each loader in turn; the first one that knows the name
// wins. Errors other than ErrLibraryNotFound stop the search.
type ChainLoader []LibraryLoader

func (c ChainLoader) LoadLibrary(name string) (Library, error) {
	for _, l := range c {
		lib, err := l.LoadLibrary(name)
		if err == nil {
			return lib, nil
		}
		var nf ErrLibraryNotFound
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	return nil, ErrLibraryNotFound{Name: name}
}
