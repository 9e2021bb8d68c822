// Package errors defines the error kinds shared by the coordination core and
// the service layer around it.
//
// The core only ever fails in two ways:
//   - NotFoundError: an operation named an intersection the registry does not hold
//   - InvalidArgumentError: the request itself is unusable (for example a green
//     wave over fewer than two known intersections)
//
// Both wrap a sentinel so callers can test with errors.Is without caring about
// the concrete type:
//
//	if errors.Is(err, errors.ErrIntersectionNotFound) { ... }
//
//	var nf *errors.NotFoundError
//	if errors.As(err, &nf) { log.Printf("missing %s", nf.ResourceID) }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions so callers import a single package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors.
var (
	// ErrIntersectionNotFound indicates an unknown intersection ID.
	ErrIntersectionNotFound = New("intersection not found")
	// ErrInvalidArgument indicates a request that cannot be computed.
	ErrInvalidArgument = New("invalid argument")
	// ErrAlreadyExists indicates a duplicate catalog entry.
	ErrAlreadyExists = New("already exists")
)

// NotFoundError represents a resource that could not be found.
//
//	err := errors.NewNotFoundError("intersection", "INT_009")
//	fmt.Println(err) // "intersection 'INT_009' not found"
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

// IntersectionNotFound is shorthand for the most common NotFoundError.
func IntersectionNotFound(id string) *NotFoundError {
	return NewNotFoundError("intersection", id)
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is matches any *NotFoundError, and ErrIntersectionNotFound for intersections.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return target == ErrIntersectionNotFound && e.ResourceType == "intersection"
}

// InvalidArgumentError represents a rejected input.
//
//	err := errors.NewInvalidArgumentError("intersection_ids", "need at least 2 intersections")
type InvalidArgumentError struct {
	Field   string
	Message string
}

// NewInvalidArgumentError creates a new InvalidArgumentError.
func NewInvalidArgumentError(field, message string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Message: message}
}

func (e *InvalidArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid argument: %s", e.Message)
	}
	return fmt.Sprintf("invalid argument [%s]: %s", e.Field, e.Message)
}

// Is matches any *InvalidArgumentError and ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	if _, ok := target.(*InvalidArgumentError); ok {
		return true
	}
	return target == ErrInvalidArgument
}

// AlreadyExistsError represents a resource that already exists.
type AlreadyExistsError struct {
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{ResourceType: resourceType, ResourceID: resourceID}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is matches any *AlreadyExistsError and ErrAlreadyExists.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return target == ErrAlreadyExists
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return As(err, &nf)
}

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return As(err, &ia)
}
