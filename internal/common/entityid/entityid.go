// Package entityid provides identifiers tagged with the kind of entity they
// name. ID[A] and ID[B] share a representation but are distinct types, so an
// identifier for one kind of entity cannot be passed where another is expected.
package entityid

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNilID = errors.New("entity id cannot be nil")

// ID is a 128-bit identifier. K is a marker type and is never instantiated;
// the zero-length kind array keeps instantiations from being convertible.
type ID[K any] struct {
	_     [0]K
	value uuid.UUID
}

func New[K any](raw uuid.UUID) (ID[K], error) {
	if raw == uuid.Nil {
		return ID[K]{}, ErrNilID
	}
	return ID[K]{value: raw}, nil
}

// Generate returns a fresh random (v4) identifier.
func Generate[K any]() ID[K] {
	return ID[K]{value: uuid.New()}
}

func Parse[K any](s string) (ID[K], error) {
	raw, err := uuid.Parse(s)
	if err != nil {
		return ID[K]{}, fmt.Errorf("parse entity id %q: %w", s, err)
	}
	return New[K](raw)
}

// MustParse is intended for tests and fixed identifiers.
func MustParse[K any](s string) ID[K] {
	id, err := Parse[K](s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID[K]) UUID() uuid.UUID {
	return id.value
}

func (id ID[K]) String() string {
	return id.value.String()
}

func (id ID[K]) IsZero() bool {
	return id.value == uuid.Nil
}

func (id ID[K]) MarshalText() ([]byte, error) {
	return []byte(id.value.String()), nil
}

func (id *ID[K]) UnmarshalText(data []byte) error {
	parsed, err := Parse[K](string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
