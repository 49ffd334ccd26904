// Package shape matches values against declarative partial shape templates.
//
// A template names only the fields it cares about. Everything it does not
// mention is ignored, which lets a template recognise a piece of code after
// its identifiers have been renamed. Templates are plain data and carry no
// state between matches.
package shape

import "reflect"

// Object is any value exposing named fields to the matcher.
type Object interface {
	Field(name string) (any, bool)
}

// List is any value exposing indexed elements to the matcher.
type List interface {
	Len() int
	At(i int) any
}

// Record is a map-backed Object, convenient for hand-built values.
type Record map[string]any

// Field implements Object.
func (r Record) Field(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// Template is a partial shape description. The concrete variants are
// Fields, AnyOf, ArrayOf and the value returned by Literal.
type Template interface {
	match(v any) bool
}

// Fields matches an object whose every named field matches the
// corresponding template. Unnamed fields are ignored; an empty Fields
// matches any non-nil object.
type Fields map[string]Template

// AnyOf matches when at least one alternative matches.
type AnyOf []Template

// ArrayOf matches a list of exactly the same length whose elements match
// element-wise.
type ArrayOf []Template

type literal struct {
	value any
}

// Literal matches a scalar equal to v. Numbers compare by value regardless
// of their Go type.
func Literal(v any) Template {
	return literal{value: v}
}

// Any matches any non-nil object.
var Any = Fields{}

// Match reports whether v has the shape described by t. A nil template
// matches everything.
func Match(v any, t Template) bool {
	if t == nil {
		return true
	}
	return t.match(v)
}

// typeField is checked first so mismatching kinds fail before deeper fields are built.
const typeField = "type"

func (f Fields) match(v any) bool {
	obj, ok := asObject(v)
	if !ok {
		return false
	}
	if t, ok := f[typeField]; ok {
		fv, _ := obj.Field(typeField)
		if !Match(fv, t) {
			return false
		}
	}
	for name, t := range f {
		if name == typeField {
			continue
		}
		fv, _ := obj.Field(name)
		if !Match(fv, t) {
			return false
		}
	}
	return true
}

func (a AnyOf) match(v any) bool {
	for _, t := range a {
		if Match(v, t) {
			return true
		}
	}
	return false
}

func (a ArrayOf) match(v any) bool {
	elems, ok := asList(v)
	if !ok || elems.Len() != len(a) {
		return false
	}
	for i, t := range a {
		e := elems.At(i)
		if isNil(e) || !Match(e, t) {
			return false
		}
	}
	return true
}

func (l literal) match(v any) bool {
	if a, ok := toFloat(l.value); ok {
		b, ok := toFloat(v)
		return ok && a == b
	}
	if l.value == nil {
		return isNil(v)
	}
	return v == l.value
}

func asObject(v any) (Object, bool) {
	switch o := v.(type) {
	case nil:
		return nil, false
	case Object:
		if isNil(o) {
			return nil, false
		}
		return o, true
	case map[string]any:
		return Record(o), true
	}
	return nil, false
}

type sliceList []any

func (s sliceList) Len() int     { return len(s) }
func (s sliceList) At(i int) any { return s[i] }

func asList(v any) (List, bool) {
	switch l := v.(type) {
	case List:
		return l, true
	case []any:
		return sliceList(l), true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
