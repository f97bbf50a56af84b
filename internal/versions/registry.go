// Package versions tracks which API versions exist for the host core and
// for each plugin, and where their documents are served.
package versions

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/apiscan/internal/host"
	"github.com/mark3labs/apiscan/internal/spec"
)

const (
	// CurrentCoreVersion is registered for the core from construction onwards.
	CurrentCoreVersion = "1.0"
	// CurrentPluginVersion is the API version plugin documents are served under.
	CurrentPluginVersion = "1.0"

	defaultMount = "/swagger-ui"
)

// snapshot is immutable once published.
type snapshot struct {
	core    map[string]string
	plugins map[string]map[string]string
}

// Registry maps (namespace, version) to the canonical URL of a document.
// Writers are serialized by a mutex and publish a fresh snapshot; readers
// load the current snapshot without locking. Entries are never removed.
type Registry struct {
	mu     sync.Mutex
	state  atomic.Pointer[snapshot]
	logger *log.Logger
	mount  string
	seed   []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration messages.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCoreVersions replaces the core versions known at construction.
func WithCoreVersions(versions ...string) Option {
	return func(r *Registry) { r.seed = append([]string(nil), versions...) }
}

// WithMount sets the path prefix the documents are served under. It is used
// to derive the direct URLs reported on registration.
func WithMount(prefix string) Option {
	return func(r *Registry) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			r.mount = "/" + strings.Trim(prefix, "/")
		}
	}
}

// New returns a registry holding the core versions with no URL yet.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger: log.Default(),
		mount:  defaultMount,
		seed:   []string{CurrentCoreVersion},
	}
	for _, opt := range opts {
		opt(r)
	}
	core := make(map[string]string, len(r.seed))
	for _, v := range r.seed {
		if v = strings.TrimSpace(v); v != "" {
			core[v] = ""
		}
	}
	r.state.Store(&snapshot{core: core, plugins: map[string]map[string]string{}})
	return r
}

func (r *Registry) load() *snapshot { return r.state.Load() }

// Register stores the normalized url for a plugin version, replacing any
// previous url for the same pair. It returns the stored url.
func (r *Registry) Register(pluginID, version, url string) (string, error) {
	pluginID, version = strings.TrimSpace(pluginID), strings.TrimSpace(version)
	if pluginID == "" || version == "" {
		return "", &spec.ScanError{Code: spec.InputError, Namespace: pluginID, Message: "versions: plugin id and version are required"}
	}
	if pluginID == host.Core {
		return "", &spec.ScanError{Code: spec.InputError, Namespace: pluginID, Message: "versions: use UpdateCore for core versions"}
	}
	normalized := Normalize(url)

	r.mu.Lock()
	cur := r.load()
	next := &snapshot{core: cur.core, plugins: maps.Clone(cur.plugins)}
	versions := maps.Clone(cur.plugins[pluginID])
	if versions == nil {
		versions = make(map[string]string, 1)
	}
	versions[version] = normalized
	next.plugins[pluginID] = versions
	r.state.Store(next)
	r.mu.Unlock()

	rest, api := r.DirectURLs(normalized)
	r.logger.Info("registered plugin api", "plugin", pluginID, "version", version, "url", normalized)
	r.logger.Debug("direct plugin api urls", "plugin", pluginID, "rest", rest, "api", api)
	return normalized, nil
}

// UpdateCore sets the url of a known core version. Unknown versions are a
// RegistryMiss and leave the registry untouched.
func (r *Registry) UpdateCore(version, url string) (string, error) {
	version = strings.TrimSpace(version)
	normalized := Normalize(url)

	r.mu.Lock()
	cur := r.load()
	if _, ok := cur.core[version]; !ok {
		r.mu.Unlock()
		return "", spec.NotFound(host.Core, "versions: unknown core version %q", version)
	}
	core := maps.Clone(cur.core)
	core[version] = normalized
	r.state.Store(&snapshot{core: core, plugins: cur.plugins})
	r.mu.Unlock()

	r.logger.Debug("updated core api url", "version", version, "url", normalized)
	return normalized, nil
}

// IsValid reports whether version is registered for namespace.
func (r *Registry) IsValid(namespace, version string) bool {
	s := r.load()
	if namespace == host.Core {
		_, ok := s.core[version]
		return ok
	}
	_, ok := s.plugins[namespace][version]
	return ok
}

// Versions returns a copy of the version → url map for namespace. The second
// result is false for a plugin that never registered anything.
func (r *Registry) Versions(namespace string) (map[string]string, bool) {
	s := r.load()
	if namespace == host.Core {
		return maps.Clone(s.core), true
	}
	v, ok := s.plugins[namespace]
	if !ok {
		return nil, false
	}
	return maps.Clone(v), true
}

// URL returns the url registered for one version.
func (r *Registry) URL(namespace, version string) (string, bool) {
	s := r.load()
	if namespace == host.Core {
		u, ok := s.core[version]
		return u, ok
	}
	u, ok := s.plugins[namespace][version]
	return u, ok
}

// PluginsWithAPIs lists plugin ids with at least one registered version, sorted.
func (r *Registry) PluginsWithAPIs() []string {
	s := r.load()
	ids := make([]string, 0, len(s.plugins))
	for id := range s.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DirectURLs derives the urls a plugin document is reachable under without
// the mount prefix, with and without the "rest" segment.
func (r *Registry) DirectURLs(url string) (rest, api string) {
	rest = strings.Replace(url, r.mount+"/plugin/", "/plugin/", 1)
	api = strings.Replace(rest, "/rest/api/", "/api/", 1)
	return rest, api
}
