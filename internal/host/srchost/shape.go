package srchost

import (
	"go/types"

	"github.com/mark3labs/apiscan/internal/host"
)

// shape adapts a go/types type. Pointers and aliases are looked through.
type shape struct {
	t types.Type
	h *Host
}

func newShape(t types.Type, h *Host) *shape {
	t = types.Unalias(t)
	for {
		p, ok := t.(*types.Pointer)
		if !ok {
			break
		}
		t = types.Unalias(p.Elem())
	}
	return &shape{t: t, h: h}
}

func (s *shape) Kind() host.Kind {
	if named, ok := s.t.(*types.Named); ok && len(s.h.enumValues(named)) > 0 {
		return host.KindEnum
	}
	switch u := s.t.Underlying().(type) {
	case *types.Basic:
		return basicKind(u)
	case *types.Slice, *types.Array:
		return host.KindSequence
	case *types.Map:
		return host.KindMap
	case *types.Struct:
		return host.KindComposite
	}
	return host.KindUnknown
}

func basicKind(b *types.Basic) host.Kind {
	switch b.Kind() {
	case types.Bool, types.UntypedBool:
		return host.KindBool
	case types.String, types.UntypedString:
		return host.KindString
	case types.Int8, types.Int16, types.Int32, types.Uint8, types.Uint16, types.UntypedRune:
		return host.KindInt32
	case types.Int, types.Int64, types.Uint, types.Uint32, types.Uint64, types.UntypedInt:
		return host.KindInt64
	case types.Float32:
		return host.KindFloat32
	case types.Float64, types.UntypedFloat:
		return host.KindFloat64
	case types.UntypedNil:
		return host.KindVoid
	case types.Invalid:
		return host.KindUnknown
	}
	return host.KindPrimitive
}

// Name drops package qualifiers: []Job, map[string]Node.
func (s *shape) Name() string {
	if named, ok := s.t.(*types.Named); ok {
		return named.Obj().Name()
	}
	return types.TypeString(s.t, func(*types.Package) string { return "" })
}

func (s *shape) ID() string {
	if named, ok := s.t.(*types.Named); ok && named.Obj().Pkg() != nil {
		return named.Obj().Pkg().Path() + "." + named.Obj().Name()
	}
	return types.TypeString(s.t, nil)
}

func (s *shape) Elem() host.Shape {
	switch u := s.t.Underlying().(type) {
	case *types.Slice:
		return newShape(u.Elem(), s.h)
	case *types.Array:
		return newShape(u.Elem(), s.h)
	case *types.Map:
		return newShape(u.Elem(), s.h)
	}
	return nil
}

func (s *shape) EnumValues() []string {
	if named, ok := s.t.(*types.Named); ok {
		return append([]string(nil), s.h.enumValues(named)...)
	}
	return nil
}

func (s *shape) Bean() (host.TypeHandle, bool) {
	named, ok := s.t.(*types.Named)
	if !ok {
		return nil, false
	}
	b, ok := s.h.beans[named.Origin().Obj()]
	if !ok {
		return nil, false
	}
	return &typeHandle{b: b, h: s.h}, true
}
