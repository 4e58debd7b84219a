package sessionerr

import (
	"errors"
	"testing"
)

func TestWrapPreservesKind(t *testing.T) {
	err := Wrap(Transport, errors.New("connection refused"), "dial object worker")
	if !Is(err, Transport) {
		t.Fatalf("expected Transport kind, got %v", err)
	}
	if Is(err, Decode) {
		t.Fatal("did not expect Decode kind")
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(Transport, nil, "x") != nil {
		t.Fatal("expected Wrap(nil) to return nil")
	}
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	if ok {
		t.Fatal("expected a plain error to have no session kind")
	}
}

func TestNewClassifiesDirectly(t *testing.T) {
	err := New(NoWorkers, "zero object workers discovered")
	if !Is(err, NoWorkers) {
		t.Fatalf("expected NoWorkers kind, got %v", err)
	}
}
