package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestWrapKeepsCodeAndCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, DatabaseError)
	if err.Code != DatabaseError {
		t.Fatalf("expected code %d, got %d", DatabaseError, err.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	if Wrap(nil, DatabaseError) != nil {
		t.Fatal("wrapping nil should yield nil")
	}
}

func TestWrapfCarriesMessageCodeAndCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	err := Wrapf(cause, DatabaseError, "query submission failed")
	if err.Code != DatabaseError {
		t.Fatalf("expected code %d, got %d", DatabaseError, err.Code)
	}
	if err.Error() != "query submission failed" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	if GetCode(err) != DatabaseError {
		t.Fatalf("GetCode returned %d", GetCode(err))
	}
	if Wrapf(nil, DatabaseError, "ignored") != nil {
		t.Fatal("wrapping nil should yield nil")
	}
}

func TestGetErrorConvertsForeignErrors(t *testing.T) {
	t.Parallel()

	if GetError(nil) != nil {
		t.Fatal("nil should stay nil")
	}

	own := Newf(ProblemNotFound, "problem 7 not found")
	if got := GetError(own); got != own {
		t.Fatal("own error type should pass through unchanged")
	}

	foreign := fmt.Errorf("boom")
	converted := GetError(foreign)
	if converted.Code != InternalServerError {
		t.Fatalf("expected code %d, got %d", InternalServerError, converted.Code)
	}
}
