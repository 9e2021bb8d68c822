package errors

import (
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := IntersectionNotFound("INT_009")

	if got := err.Error(); got != "intersection 'INT_009' not found" {
		t.Errorf("unexpected message: %q", got)
	}
	if !Is(err, ErrIntersectionNotFound) {
		t.Error("expected Is(ErrIntersectionNotFound) to match")
	}

	wrapped := fmt.Errorf("optimize: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("expected wrapped error to be classified as not found")
	}
	var nf *NotFoundError
	if !As(wrapped, &nf) || nf.ResourceID != "INT_009" {
		t.Errorf("expected As to recover resource id, got %+v", nf)
	}
}

func TestNotFoundError_OtherResource(t *testing.T) {
	err := NewNotFoundError("corridor", "ring")
	if Is(err, ErrIntersectionNotFound) {
		t.Error("corridor not found must not match the intersection sentinel")
	}
}

func TestInvalidArgumentError(t *testing.T) {
	err := NewInvalidArgumentError("intersection_ids", "need at least 2 intersections")

	if got := err.Error(); got != "invalid argument [intersection_ids]: need at least 2 intersections" {
		t.Errorf("unexpected message: %q", got)
	}
	if !Is(err, ErrInvalidArgument) {
		t.Error("expected Is(ErrInvalidArgument) to match")
	}
	if IsNotFound(err) {
		t.Error("invalid argument must not be classified as not found")
	}
	if !IsInvalidArgument(fmt.Errorf("wrap: %w", err)) {
		t.Error("expected wrapped error to be classified as invalid argument")
	}

	bare := NewInvalidArgumentError("", "empty")
	if got := bare.Error(); got != "invalid argument: empty" {
		t.Errorf("unexpected message without field: %q", got)
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("intersection", "INT_001")
	if !Is(err, ErrAlreadyExists) {
		t.Error("expected Is(ErrAlreadyExists) to match")
	}
	if got := err.Error(); got != "intersection 'INT_001' already exists" {
		t.Errorf("unexpected message: %q", got)
	}
}
