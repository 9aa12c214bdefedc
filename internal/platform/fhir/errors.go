package fhir

import (
	"errors"
	"fmt"
)

// MappingErrorKind classifies failures of the resource mappers.
type MappingErrorKind int

const (
	// InvalidInput means the wire resource cannot be mapped: wrong
	// resource type or malformed element values.
	InvalidInput MappingErrorKind = iota + 1
	// NullInput means a nil entity was handed to a model mapper.
	NullInput
)

func (k MappingErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case NullInput:
		return "null input"
	}
	return "unknown"
}

type MappingError struct {
	Kind     MappingErrorKind
	Resource string
	Msg      string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("map %s: %s: %s", e.Resource, e.Kind, e.Msg)
}

func NewInvalidInput(resource, format string, args ...any) *MappingError {
	return &MappingError{Kind: InvalidInput, Resource: resource, Msg: fmt.Sprintf(format, args...)}
}

// NewWrongType reports a wire resource that is not of the expected type.
func NewWrongType(want string, got Resource) *MappingError {
	name := "nil"
	if got != nil {
		name = got.ResourceType()
	}
	return NewInvalidInput(want, "resource is %s, not %s", name, want)
}

func NewNullInput(resource string) *MappingError {
	return &MappingError{Kind: NullInput, Resource: resource, Msg: "entity is nil"}
}

// IsMappingError reports whether err is a MappingError of the given kind.
func IsMappingError(err error, kind MappingErrorKind) bool {
	var me *MappingError
	return errors.As(err, &me) && me.Kind == kind
}
