package obs

import (
	"errors"
	"strings"
	"testing"
)

func TestGraphErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("underlying failure")
	err := NewGraphError(ErrCodeStorageFailure, "vector", "Get", "reading from badger", cause)

	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should find the wrapped cause")
	}
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatal("errors.As should recover the *GraphError")
	}
	if ge.Code != ErrCodeStorageFailure || ge.Component != "vector" || ge.Operation != "Get" {
		t.Fatalf("unexpected fields: %+v", ge)
	}
}

func TestGraphErrorMessageIncludesComponentAndOperation(t *testing.T) {
	err := NewGraphError(ErrCodeInvalidConfig, "graph", "WithMaxDegree", "max degree must be positive, got 0", nil)
	msg := err.Error()
	for _, want := range []string{"INVALID_CONFIG", "graph.WithMaxDegree", "max degree must be positive"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Error() = %q, want substring %q", msg, want)
		}
	}
	if strings.Contains(msg, "cause:") {
		t.Fatalf("Error() = %q, should omit cause when nil", msg)
	}
}

func TestGraphErrorMessageIncludesCauseWhenSet(t *testing.T) {
	cause := errors.New("boom")
	err := NewGraphError(ErrCodeOracleFailure, "graph", "Insert", "scoring node 1", cause)
	if !strings.Contains(err.Error(), "cause: boom") {
		t.Fatalf("Error() = %q, want to include cause", err.Error())
	}
}
