package db

import (
	"errors"
	"fmt"
)

var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrParse        = errors.New("parse error")
	ErrArity        = errors.New("wrong number of arguments")
)

// TypeMismatchError is returned when an operation expects a value kind
// different from the one bound to the key. The key is left unchanged.
type TypeMismatchError struct {
	Key      string
	Expected Kind
	Actual   Kind
}

func NewTypeMismatch(key string, expected, actual Kind) *TypeMismatchError {
	return &TypeMismatchError{Key: key, Expected: expected, Actual: actual}
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: key %q holds a %s, expected a %s", e.Key, e.Actual, e.Expected)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ParseError is returned when a stored value or an argument is not a valid
// integer literal
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %q %s", e.Value, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ArityError is returned for a wrong number of arguments, nothing is applied
type ArityError struct {
	Op  string
	Got int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("wrong number of arguments for '%s' (got %d)", e.Op, e.Got)
}

func (e *ArityError) Is(target error) bool {
	return target == ErrArity
}
