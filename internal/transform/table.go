// Package transform translates between the backend's wire objects
// (snake_case keys) and the internal objects used by display code (compact
// camel keys). Every entity has one fixed field table; nothing outside this
// package reads wire field names.
package transform

import (
	"errors"
	"fmt"
	"sort"
)

// Object is a decoded JSON object in either naming convention.
type Object = map[string]any

var (
	// ErrUnknownField is returned for a key that has no row in the entity's table.
	ErrUnknownField = errors.New("unknown field")
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrShape is returned when a value is not the object or list the table expects.
	ErrShape = errors.New("unexpected value shape")
)

// FieldError locates a mapping failure. Nested failures wrap each other, so
// the innermost sentinel is reachable with errors.Is.
type FieldError struct {
	Entity string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Entity, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Shape describes how a field value is mapped.
type Shape int

const (
	// Scalar values (including lists of scalars) pass through unchanged.
	Scalar Shape = iota
	// Nested values are a single object mapped with Elem.
	Nested
	// List values are a list of objects, each mapped with Elem.
	List
)

// Field is one row of a mapping table.
type Field struct {
	Wire     string
	Internal string
	Optional bool
	Shape    Shape
	Elem     *Table
}

// Table is the fixed field mapping of one entity.
type Table struct {
	Entity string
	Fields []Field
}

type direction bool

const (
	fromWire direction = true
	toWire   direction = false
)

func (f Field) source(dir direction) string {
	if dir == fromWire {
		return f.Wire
	}
	return f.Internal
}

func (f Field) target(dir direction) string {
	if dir == fromWire {
		return f.Internal
	}
	return f.Wire
}

// ToInternal renames every key of a wire object to its internal name.
func (t *Table) ToInternal(obj Object) (Object, error) {
	return t.rename(obj, fromWire)
}

// ToWire renames every key of an internal object to its wire name.
func (t *Table) ToWire(obj Object) (Object, error) {
	return t.rename(obj, toWire)
}

// ListToInternal maps a list of wire objects element-wise.
func (t *Table) ListToInternal(list []any) ([]any, error) {
	return t.renameList(list, fromWire)
}

// ListToWire maps a list of internal objects element-wise.
func (t *Table) ListToWire(list []any) ([]any, error) {
	return t.renameList(list, toWire)
}

// InternalNames returns the internal field names in table order.
func (t *Table) InternalNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Internal)
	}
	return names
}

func (t *Table) rename(src Object, dir direction) (Object, error) {
	if src == nil {
		return nil, &FieldError{Entity: t.Entity, Err: ErrShape}
	}

	out := make(Object, len(src))
	for _, f := range t.Fields {
		val, ok := src[f.source(dir)]
		if !ok {
			if !f.Optional {
				return nil, &FieldError{Entity: t.Entity, Field: f.source(dir), Err: ErrMissingField}
			}
			continue
		}

		mapped, err := f.mapValue(val, dir)
		if err != nil {
			return nil, &FieldError{Entity: t.Entity, Field: f.source(dir), Err: err}
		}
		out[f.target(dir)] = mapped
	}

	if len(out) != len(src) {
		var unknown []string
		for key := range src {
			if !t.has(key, dir) {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		return nil, &FieldError{Entity: t.Entity, Field: unknown[0], Err: ErrUnknownField}
	}

	return out, nil
}

func (t *Table) renameList(list []any, dir direction) ([]any, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]any, len(list))
	for i, elem := range list {
		obj, ok := elem.(Object)
		if !ok {
			return nil, &FieldError{Entity: t.Entity, Field: fmt.Sprintf("[%d]", i), Err: ErrShape}
		}
		mapped, err := t.rename(obj, dir)
		if err != nil {
			return nil, &FieldError{Entity: t.Entity, Field: fmt.Sprintf("[%d]", i), Err: err}
		}
		out[i] = mapped
	}
	return out, nil
}

func (t *Table) has(key string, dir direction) bool {
	for _, f := range t.Fields {
		if f.source(dir) == key {
			return true
		}
	}
	return false
}

func (f Field) mapValue(val any, dir direction) (any, error) {
	// null passes through like any other value
	if val == nil || f.Shape == Scalar {
		return val, nil
	}

	switch f.Shape {
	case Nested:
		obj, ok := val.(Object)
		if !ok {
			return nil, ErrShape
		}
		return f.Elem.rename(obj, dir)
	case List:
		list, ok := val.([]any)
		if !ok {
			return nil, ErrShape
		}
		return f.Elem.renameList(list, dir)
	default:
		return nil, fmt.Errorf("field %s: unsupported shape %d", f.Wire, f.Shape)
	}
}
