package domain

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value for partial updates: absent (leave
// unchanged), null (clear) or a concrete value (overwrite).
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

func Value[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the field was supplied at all, null included.
func (f Field[T]) IsSet() bool { return f.set }

func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the value when one was supplied.
func (f Field[T]) Get() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}

	return f.value, true
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.set = true

	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.null = true
		return nil
	}

	f.null = false

	return json.Unmarshal(b, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return []byte("null"), nil
	}

	return json.Marshal(f.value)
}
