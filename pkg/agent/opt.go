package agent

import (
	"bytes"
	"encoding/json"
)

// Opt is a value that may be unset. The zero Opt is unset.
type Opt[T any] struct {
	v   T
	set bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{v: v, set: true}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.v, o.set
}

// Or returns the value, or def when unset.
func (o Opt[T]) Or(def T) T {
	if o.set {
		return o.v
	}
	return def
}

// IsSet reports whether a value is present.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// IsZero reports whether o is unset. It lets encoding/json omit unset
// fields tagged omitzero.
func (o Opt[T]) IsZero() bool {
	return !o.set
}

// overlay returns u when set, otherwise o.
func (o Opt[T]) overlay(u Opt[T]) Opt[T] {
	if u.set {
		return u
	}
	return o
}

// MarshalJSON encodes an unset Opt as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON decodes null as unset.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
