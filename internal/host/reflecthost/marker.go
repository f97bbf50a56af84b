package reflecthost

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Bean marks a type whose operations are part of the API surface.
// ExportedBean is called on a zero value and must not depend on receiver state.
type Bean interface {
	ExportedBean() BeanInfo
}

// Enum marks a named type as an enumeration.
type Enum interface {
	EnumValues() []string
}

// BeanInfo lists the exported operations of a Bean.
type BeanInfo struct {
	DefaultVisibility int      `validate:"gte=0"`
	Exports           []Export `validate:"dive"`
}

// Export names one method of the bean. The method must be exported and take
// no arguments.
type Export struct {
	Method     string `validate:"required"`
	Visibility int    `validate:"gte=0"`
	// Name overrides the property name and path segment.
	Name string
}

var (
	beanType  = reflect.TypeOf((*Bean)(nil)).Elem()
	enumType  = reflect.TypeOf((*Enum)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// beanInfo returns the validated export metadata of t when t carries the marker.
func beanInfo(t reflect.Type) (BeanInfo, bool, error) {
	if t == nil || !reflect.PointerTo(t).Implements(beanType) {
		return BeanInfo{}, false, nil
	}
	info := reflect.New(t).Interface().(Bean).ExportedBean()
	if err := validate.Struct(info); err != nil {
		return info, true, fmt.Errorf("invalid export metadata on %s: %w", qualifiedName(t), err)
	}
	return info, true, nil
}

func enumValues(t reflect.Type) ([]string, bool) {
	if t == nil || t.Name() == "" || !reflect.PointerTo(t).Implements(enumType) {
		return nil, false
	}
	return reflect.New(t).Interface().(Enum).EnumValues(), true
}

func qualifiedName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
