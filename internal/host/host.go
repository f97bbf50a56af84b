// Package host describes what the scanner needs from a running host
// application: the types it exports, the operations on those types, and the
// shapes those operations return. Concrete hosts live in subpackages.
package host

import (
	"sort"
	"strings"
	"unicode"
)

// Core is the namespace of types owned by the host itself rather than a plugin.
const Core = "core"

// Kind classifies a Shape.
type Kind int

const (
	KindUnknown Kind = iota
	KindVoid
	KindBool
	KindString
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	// KindPrimitive covers host scalars that fit none of the kinds above.
	KindPrimitive
	KindSequence
	KindMap
	KindEnum
	KindComposite
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindVoid:      "void",
	KindBool:      "bool",
	KindString:    "string",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindPrimitive: "primitive",
	KindSequence:  "sequence",
	KindMap:       "map",
	KindEnum:      "enum",
	KindComposite: "composite",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Scalar reports whether values of this kind are plain scalars. Strings are
// not scalars here: they are objects on most hosts and get the same
// response-wrapping treatment as composites.
func (k Kind) Scalar() bool {
	switch k {
	case KindVoid, KindBool, KindInt32, KindInt64, KindFloat32, KindFloat64, KindPrimitive:
		return true
	}
	return false
}

// Shape is a lazily resolved description of a value type. Element and bean
// lookups happen on demand so self-referential types can be described.
type Shape interface {
	Kind() Kind
	// Name is a short display name such as "Job" or "[]Run".
	Name() string
	// ID identifies the underlying type. Equal IDs mean the same type.
	ID() string
	// Elem is the element of a sequence or the value of a map. Nil when unknown.
	Elem() Shape
	// EnumValues lists the members of an enum shape.
	EnumValues() []string
	// Bean returns the exported type behind a composite shape that carries the
	// capability marker.
	Bean() (TypeHandle, bool)
}

// TypeHandle is a resolved exported type.
type TypeHandle interface {
	QualifiedName() string
	SimpleName() string
	Namespace() string
	DefaultVisibility() int
	Operations() ([]OperationHandle, error)
}

// OperationHandle describes one exported operation on a type.
type OperationHandle struct {
	// Name is the operation identifier in lower camel case, e.g. "getName".
	Name string
	// Returns is nil for operations without a result.
	Returns    Shape
	Visibility int
	// ExplicitName overrides the derived property name and path segment.
	ExplicitName string
}

// Candidate is a type the host knows about but has not loaded yet. Loading
// may fail for an individual type without affecting the others.
type Candidate interface {
	Name() string
	Load() (TypeHandle, error)
}

// Scope restricts discovery to a namespace and, optionally, the packages it owns.
type Scope struct {
	Namespace string
	Packages  []string
}

// Includes reports whether the qualified type name lives under one of the
// scope's packages. An empty package list matches everything. A trailing
// "/..." on a package is accepted.
func (s Scope) Includes(qualified string) bool {
	if len(s.Packages) == 0 {
		return true
	}
	pkg := qualified
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		pkg = qualified[:i]
	}
	for _, p := range s.Packages {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/...")
		if pkg == p || strings.HasPrefix(pkg, p+"/") {
			return true
		}
	}
	return false
}

// CoreScope is the scope of host-owned types.
func CoreScope() Scope { return Scope{Namespace: Core} }

// Introspector lists the exported types in a scope.
type Introspector interface {
	ListExportedTypes(scope Scope) ([]Candidate, error)
}

// Plugin is an installed extension of the host.
type Plugin struct {
	ID          string
	DisplayName string
	Version     string
	Active      bool
	// Packages are the code locations owned by the plugin.
	Packages []string
	// Main names the plugin's entry type, used when discovery finds nothing.
	Main string
}

// Scope returns the discovery scope of the plugin.
func (p Plugin) Scope() Scope {
	return Scope{Namespace: p.ID, Packages: append([]string(nil), p.Packages...)}
}

// Host is everything the scanner consumes from a running instance.
type Host interface {
	Introspector
	// Name is the product name used in document titles.
	Name() string
	// BaseURL is the current root URL of the running instance.
	BaseURL() string
	Plugins() []Plugin
	// WellKnown is the fixed fallback list for a scope.
	WellKnown(scope Scope) []Candidate
}

// FindPlugin looks up a plugin by id.
func FindPlugin(h Host, id string) (Plugin, bool) {
	for _, p := range h.Plugins() {
		if p.ID == id {
			return p, true
		}
	}
	return Plugin{}, false
}

// ActivePlugins returns the active plugins sorted by id.
func ActivePlugins(h Host) []Plugin {
	var out []Plugin
	for _, p := range h.Plugins() {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MethodIdentifier turns a Go method name into the identifier hosts expose:
// GetName → getName, URL → url, GetURL → getURL, HTTPServer → httpServer.
func MethodIdentifier(name string) string {
	runes := []rune(name)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}
	switch {
	case upper == 0:
		return name
	case upper == len(runes):
		return strings.ToLower(name)
	case upper > 1:
		upper--
	}
	for i := 0; i < upper; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
