// Package hosttest provides static in-memory hosts for tests.
package hosttest

import (
	"fmt"
	"strings"

	"github.com/mark3labs/apiscan/internal/host"
)

// Shape is a fixed host.Shape.
type Shape struct {
	kind   host.Kind
	name   string
	id     string
	elem   host.Shape
	values []string
	bean   *Type
}

func (s *Shape) Kind() host.Kind      { return s.kind }
func (s *Shape) Name() string         { return s.name }
func (s *Shape) ID() string           { return s.id }
func (s *Shape) Elem() host.Shape     { return s.elem }
func (s *Shape) EnumValues() []string { return append([]string(nil), s.values...) }
func (s *Shape) Bean() (host.TypeHandle, bool) {
	if s.bean == nil {
		return nil, false
	}
	return s.bean, true
}

func scalar(k host.Kind, name string) *Shape { return &Shape{kind: k, name: name, id: name} }

func String() *Shape  { return scalar(host.KindString, "string") }
func Bool() *Shape    { return scalar(host.KindBool, "bool") }
func Int32() *Shape   { return scalar(host.KindInt32, "int32") }
func Int64() *Shape   { return scalar(host.KindInt64, "int64") }
func Float32() *Shape { return scalar(host.KindFloat32, "float32") }
func Float64() *Shape { return scalar(host.KindFloat64, "float64") }

// Primitive is a host scalar with no dedicated kind.
func Primitive(name string) *Shape { return scalar(host.KindPrimitive, name) }

// Unknown is a shape the scanner cannot classify.
func Unknown(name string) *Shape { return scalar(host.KindUnknown, name) }

// Seq is a sequence of elem. A nil elem is an unknown element type.
func Seq(elem host.Shape) *Shape {
	name := "[]?"
	if elem != nil {
		name = "[]" + elem.Name()
	}
	return &Shape{kind: host.KindSequence, name: name, id: name, elem: elem}
}

// Map is a string-keyed map of val.
func Map(val host.Shape) *Shape {
	name := "map[string]?"
	if val != nil {
		name = "map[string]" + val.Name()
	}
	return &Shape{kind: host.KindMap, name: name, id: name, elem: val}
}

func Enum(name string, values ...string) *Shape {
	return &Shape{kind: host.KindEnum, name: name, id: "enum:" + name, values: values}
}

// Struct is a composite without the capability marker.
func Struct(name string) *Shape {
	return &Shape{kind: host.KindComposite, name: name, id: "struct:" + name}
}

// Type is a static exported type. Operations may be appended after the
// type's shape has been handed out, which is how cycles are built.
type Type struct {
	Qualified  string
	Simple     string
	NS         string
	Visibility int
	Ops        []host.OperationHandle
	// OpsErr is returned from Operations when set.
	OpsErr error
}

// NewType creates an exported type. The simple name is the last dotted segment.
func NewType(namespace, qualified string) *Type {
	simple := qualified
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		simple = qualified[i+1:]
	}
	return &Type{Qualified: qualified, Simple: simple, NS: namespace}
}

func (t *Type) QualifiedName() string  { return t.Qualified }
func (t *Type) SimpleName() string     { return t.Simple }
func (t *Type) Namespace() string      { return t.NS }
func (t *Type) DefaultVisibility() int { return t.Visibility }
func (t *Type) Operations() ([]host.OperationHandle, error) {
	if t.OpsErr != nil {
		return nil, t.OpsErr
	}
	return append([]host.OperationHandle(nil), t.Ops...), nil
}

// Op appends a visibility 0 operation.
func (t *Type) Op(name string, returns host.Shape) *Type {
	return t.With(host.OperationHandle{Name: name, Returns: returns})
}

func (t *Type) With(op host.OperationHandle) *Type {
	t.Ops = append(t.Ops, op)
	return t
}

// Shape returns the marked composite shape for t.
func (t *Type) Shape() *Shape {
	return &Shape{kind: host.KindComposite, name: t.Simple, id: t.Qualified, bean: t}
}

type candidate struct {
	name string
	load func() (host.TypeHandle, error)
}

func (c candidate) Name() string                   { return c.name }
func (c candidate) Load() (host.TypeHandle, error) { return c.load() }

// Loaded is a candidate that always resolves to t.
func Loaded(t *Type) host.Candidate {
	return candidate{name: t.Qualified, load: func() (host.TypeHandle, error) { return t, nil }}
}

// Failing is a candidate whose load always fails with err.
func Failing(name string, err error) host.Candidate {
	return candidate{name: name, load: func() (host.TypeHandle, error) { return nil, err }}
}

// Panicking is a candidate whose load panics.
func Panicking(name string) host.Candidate {
	return candidate{name: name, load: func() (host.TypeHandle, error) { panic(fmt.Sprintf("load %s", name)) }}
}

// Host is a static host.Host.
type Host struct {
	Product  string
	URL      string
	Types    map[string][]host.Candidate
	Fallback map[string][]host.Candidate
	Plugs    []host.Plugin
	// ListErr and ListPanic make ListExportedTypes fail.
	ListErr   error
	ListPanic any
}

func (h *Host) Name() string {
	if h.Product == "" {
		return "Test"
	}
	return h.Product
}

func (h *Host) BaseURL() string        { return h.URL }
func (h *Host) Plugins() []host.Plugin { return append([]host.Plugin(nil), h.Plugs...) }

func (h *Host) ListExportedTypes(scope host.Scope) ([]host.Candidate, error) {
	if h.ListPanic != nil {
		panic(h.ListPanic)
	}
	if h.ListErr != nil {
		return nil, h.ListErr
	}
	return append([]host.Candidate(nil), h.Types[scope.Namespace]...), nil
}

func (h *Host) WellKnown(scope host.Scope) []host.Candidate {
	return append([]host.Candidate(nil), h.Fallback[scope.Namespace]...)
}

// Add registers loaded candidates for t in its namespace.
func (h *Host) Add(types ...*Type) *Host {
	if h.Types == nil {
		h.Types = make(map[string][]host.Candidate)
	}
	for _, t := range types {
		h.Types[t.NS] = append(h.Types[t.NS], Loaded(t))
	}
	return h
}
