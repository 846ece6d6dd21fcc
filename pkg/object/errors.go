package object

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound means no object is stored under the requested hash.
	ErrObjectNotFound = errors.New("object not found")
	// ErrCorruptObject means stored or supplied bytes do not follow the
	// object framing rules.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrUnknownObjectType means an envelope names a type other than blob,
	// tree or commit.
	ErrUnknownObjectType = errors.New("unknown object type")
	// ErrMissingField means a required commit header is absent.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidName means a tree entry name is empty or contains NUL or '/'.
	ErrInvalidName = errors.New("invalid entry name")
)

// ObjectError records the store operation and hash that failed.
type ObjectError struct {
	Op   string
	Hash Hash
	Err  error
}

func (e *ObjectError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("object %s %s: %v", e.Op, e.Hash, e.Err)
}

func (e *ObjectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
