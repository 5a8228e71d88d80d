package tracker

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Optional marks whether an update field was supplied. For nullable fields
// use Optional[*T]: Set with a nil Value clears the field.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Or returns the value if set, otherwise fallback.
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// UnmarshalJSON marks the field as set whenever its key is present. An
// explicit null only counts for types that can hold nil; for any other type
// it leaves the field unset so the stored value is kept.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) && !nilable[T]() {
		*o = Optional[T]{}
		return nil
	}
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

func nilable[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}
