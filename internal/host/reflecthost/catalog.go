// Package reflecthost implements host.Host on top of the running program's
// own types. Types opt in by implementing Bean; their shapes are derived with
// the reflect package.
package reflecthost

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/apiscan/internal/host"
)

type entry struct {
	name string
	// typ is set for eagerly registered types.
	typ  reflect.Type
	load func() (reflect.Type, error)
}

// Catalog is a live type registry grouped by namespace. It is safe for
// concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	name      string
	baseURL   string
	entries   map[string][]entry
	wellKnown map[string][]entry
	owners    map[reflect.Type]string
	plugins   []host.Plugin
	logger    *log.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

func WithLogger(l *log.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithBaseURL(u string) Option {
	return func(c *Catalog) { c.baseURL = u }
}

// WithName overrides the product name given to New.
func WithName(name string) Option {
	return func(c *Catalog) {
		if name != "" {
			c.name = name
		}
	}
}

// New returns an empty catalog for the product called name.
func New(name string, opts ...Option) *Catalog {
	c := &Catalog{
		name:      name,
		entries:   make(map[string][]entry),
		wellKnown: make(map[string][]entry),
		owners:    make(map[reflect.Type]string),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func nsOrCore(ns string) string {
	if ns = strings.TrimSpace(ns); ns == "" {
		return host.Core
	}
	return ns
}

// Add registers the types of values in namespace ns. Pointers are unwrapped.
func (c *Catalog) Add(ns string, values ...any) *Catalog {
	types := make([]reflect.Type, 0, len(values))
	for _, v := range values {
		types = append(types, reflect.TypeOf(v))
	}
	return c.AddType(ns, types...)
}

// AddType registers types in namespace ns.
func (c *Catalog) AddType(ns string, types ...reflect.Type) *Catalog {
	ns = nsOrCore(ns)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range types {
		t = deref(t)
		if t == nil {
			continue
		}
		c.owners[t] = ns
		resolved := t
		c.entries[ns] = append(c.entries[ns], entry{
			name: qualifiedName(t),
			typ:  t,
			load: func() (reflect.Type, error) { return resolved, nil },
		})
	}
	return c
}

// AddLoader registers a type that is resolved on first use. load may fail,
// which only affects this type.
func (c *Catalog) AddLoader(ns, name string, load func() (reflect.Type, error)) *Catalog {
	ns = nsOrCore(ns)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ns] = append(c.entries[ns], entry{name: name, load: load})
	return c
}

// AddWellKnown registers the fallback types of namespace ns. They are used
// when discovery fails or finds nothing.
func (c *Catalog) AddWellKnown(ns string, values ...any) *Catalog {
	ns = nsOrCore(ns)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range values {
		t := deref(reflect.TypeOf(v))
		if t == nil {
			continue
		}
		if _, ok := c.owners[t]; !ok {
			c.owners[t] = ns
		}
		resolved := t
		c.wellKnown[ns] = append(c.wellKnown[ns], entry{
			name: qualifiedName(t),
			typ:  t,
			load: func() (reflect.Type, error) { return resolved, nil },
		})
	}
	return c
}

// AddPlugin installs a plugin. A plugin with the same id is replaced.
func (c *Catalog) AddPlugin(p host.Plugin) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.plugins {
		if existing.ID == p.ID {
			c.plugins[i] = p
			return c
		}
	}
	c.plugins = append(c.plugins, p)
	return c
}

func (c *Catalog) SetBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = u
	c.mu.Unlock()
}

func (c *Catalog) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Catalog) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Catalog) Plugins() []host.Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := append([]host.Plugin(nil), c.plugins...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListExportedTypes returns a candidate per registered type of the scope's
// namespace that carries the Bean marker. Lazily loaded entries are checked
// when loaded. A namespace that is neither core nor an installed plugin is
// an error.
func (c *Catalog) ListExportedTypes(scope host.Scope) ([]host.Candidate, error) {
	ns := nsOrCore(scope.Namespace)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ns != host.Core && !c.hasPlugin(ns) {
		return nil, fmt.Errorf("reflecthost: unknown namespace %q", ns)
	}

	var out []host.Candidate
	for _, e := range c.entries[ns] {
		if !scope.Includes(e.name) {
			continue
		}
		if e.typ != nil && !reflect.PointerTo(e.typ).Implements(beanType) {
			continue
		}
		out = append(out, &candidate{entry: e, ns: ns, cat: c})
	}
	return out, nil
}

// WellKnown returns the fallback candidates of the scope's namespace.
func (c *Catalog) WellKnown(scope host.Scope) []host.Candidate {
	ns := nsOrCore(scope.Namespace)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]host.Candidate, 0, len(c.wellKnown[ns]))
	for _, e := range c.wellKnown[ns] {
		out = append(out, &candidate{entry: e, ns: ns, cat: c})
	}
	return out
}

func (c *Catalog) hasPlugin(id string) bool {
	for _, p := range c.plugins {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (c *Catalog) owner(t reflect.Type) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ns, ok := c.owners[t]; ok {
		return ns
	}
	return host.Core
}

// claim records ns as the owner of a lazily loaded type, unless the type
// was registered elsewhere first.
func (c *Catalog) claim(t reflect.Type, ns string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.owners[t]; !ok {
		c.owners[t] = ns
	}
}

type candidate struct {
	entry
	ns  string
	cat *Catalog
}

func (c *candidate) Name() string { return c.name }

// Load resolves the type and checks the marker and its export metadata.
func (c *candidate) Load() (host.TypeHandle, error) {
	t, err := c.load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}
	t = deref(t)
	if t == nil {
		return nil, fmt.Errorf("load %s: nil type", c.name)
	}
	info, ok, err := beanInfo(t)
	if !ok {
		return nil, fmt.Errorf("load %s: type does not implement Bean", c.name)
	}
	if err != nil {
		return nil, err
	}
	c.cat.claim(t, c.ns)
	return &typeHandle{t: t, ns: c.ns, info: info, cat: c.cat}, nil
}

// typeHandle is a loaded Bean type.
type typeHandle struct {
	t       reflect.Type
	ns      string
	info    BeanInfo
	infoErr error
	cat     *Catalog
}

func (h *typeHandle) QualifiedName() string  { return qualifiedName(h.t) }
func (h *typeHandle) SimpleName() string     { return h.t.Name() }
func (h *typeHandle) Namespace() string      { return h.ns }
func (h *typeHandle) DefaultVisibility() int { return h.info.DefaultVisibility }

// Operations resolves every export to a method on the type. Exports naming a
// missing method, or a method that takes arguments, are logged and skipped.
func (h *typeHandle) Operations() ([]host.OperationHandle, error) {
	if h.infoErr != nil {
		return nil, h.infoErr
	}
	pt := reflect.PointerTo(h.t)
	ops := make([]host.OperationHandle, 0, len(h.info.Exports))
	for _, e := range h.info.Exports {
		m, ok := pt.MethodByName(e.Method)
		if !ok {
			h.cat.logger.Warn("exported method not found", "type", h.QualifiedName(), "method", e.Method)
			continue
		}
		if m.Type.NumIn() != 1 {
			h.cat.logger.Warn("exported method takes arguments", "type", h.QualifiedName(), "method", e.Method)
			continue
		}
		ops = append(ops, host.OperationHandle{
			Name:         host.MethodIdentifier(e.Method),
			Returns:      h.returns(m.Type),
			Visibility:   e.Visibility,
			ExplicitName: e.Name,
		})
	}
	return ops, nil
}

// returns picks the first non-error result. Nil means the method returns nothing.
func (h *typeHandle) returns(mt reflect.Type) host.Shape {
	for i := 0; i < mt.NumOut(); i++ {
		out := mt.Out(i)
		if out == errorType {
			continue
		}
		return newShape(out, h.cat)
	}
	return nil
}
