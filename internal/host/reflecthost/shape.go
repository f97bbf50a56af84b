package reflecthost

import (
	"reflect"
	"strconv"

	"github.com/mark3labs/apiscan/internal/host"
)

// shape adapts a reflect.Type to host.Shape. Element and bean lookups are
// resolved on each call, so recursive types never expand eagerly.
type shape struct {
	t   reflect.Type
	cat *Catalog
}

func newShape(t reflect.Type, cat *Catalog) host.Shape {
	return &shape{t: deref(t), cat: cat}
}

func (s *shape) Kind() host.Kind { return kindOf(s.t) }

func (s *shape) Name() string { return displayName(s.t) }

func (s *shape) ID() string {
	if s.t == nil {
		return "void"
	}
	if s.t.Name() != "" {
		return qualifiedName(s.t)
	}
	return s.t.String()
}

func (s *shape) Elem() host.Shape {
	if s.t == nil {
		return nil
	}
	switch s.t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return newShape(s.t.Elem(), s.cat)
	}
	return nil
}

func (s *shape) EnumValues() []string {
	values, _ := enumValues(s.t)
	return values
}

func (s *shape) Bean() (host.TypeHandle, bool) {
	if s.t == nil || s.t.Kind() != reflect.Struct {
		return nil, false
	}
	info, ok, err := beanInfo(s.t)
	if !ok {
		return nil, false
	}
	return &typeHandle{t: s.t, ns: s.cat.owner(s.t), info: info, infoErr: err, cat: s.cat}, true
}

func kindOf(t reflect.Type) host.Kind {
	if t == nil {
		return host.KindVoid
	}
	if _, ok := enumValues(t); ok {
		return host.KindEnum
	}
	switch t.Kind() {
	case reflect.Bool:
		return host.KindBool
	case reflect.String:
		return host.KindString
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return host.KindInt32
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return host.KindInt64
	case reflect.Float32:
		return host.KindFloat32
	case reflect.Float64:
		return host.KindFloat64
	case reflect.Complex64, reflect.Complex128, reflect.Uintptr:
		return host.KindPrimitive
	case reflect.Slice, reflect.Array:
		return host.KindSequence
	case reflect.Map:
		return host.KindMap
	case reflect.Struct:
		return host.KindComposite
	}
	return host.KindUnknown
}

func displayName(t reflect.Type) string {
	if t == nil {
		return "void"
	}
	if t.Name() != "" {
		return t.Name()
	}
	switch t.Kind() {
	case reflect.Pointer:
		return displayName(deref(t))
	case reflect.Slice:
		return "[]" + displayName(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + displayName(t.Elem())
	case reflect.Map:
		return "map[" + displayName(t.Key()) + "]" + displayName(t.Elem())
	}
	return t.String()
}
