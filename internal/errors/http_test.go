package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status   int
		kind     Kind
		category ErrorCategory
	}{
		{400, Validation, Irrecoverable},
		{401, Validation, Irrecoverable},
		{404, NotFound, Irrecoverable},
		{408, Transport, Recoverable},
		{409, Validation, Irrecoverable},
		{429, Validation, Recoverable},
		{500, Server, Recoverable},
		{503, Server, Recoverable},
	}
	for _, c := range cases {
		ce := NewHTTPError(c.status, "", "op")
		if ce.Kind != c.kind || ce.Category != c.category {
			t.Fatalf("status %d: got kind=%s category=%s", c.status, ce.Kind, ce.Category)
		}
	}
}

func TestMessageParsedFromBody(t *testing.T) {
	t.Parallel()
	ce := NewHTTPError(422, `{"error":"validation_failed","message":"title is required"}`, "create case")
	if ce.Message != "title is required" {
		t.Fatalf("message=%q", ce.Message)
	}
	if got := NewHTTPError(409, `{"error":"duplicate"}`, "x").Message; got != "duplicate" {
		t.Fatalf("fallback to error code, got %q", got)
	}
	if got := NewHTTPError(500, "<html>oops</html>", "x").Message; got != "" {
		t.Fatalf("non-json body should yield empty message, got %q", got)
	}
}

func TestHelpersSeeThroughWrapping(t *testing.T) {
	t.Parallel()
	base := NewNetworkError("list cases", fmt.Errorf("dial tcp: refused"))
	wrapped := fmt.Errorf("cases fetch: %w", base)

	if !IsTransport(wrapped) || !IsQuiet(wrapped) || IsNotFound(wrapped) {
		t.Fatalf("wrapped transport error misclassified: %v", wrapped)
	}
	if IsIrrecoverable(wrapped) {
		t.Fatal("network errors are recoverable")
	}
	nf := fmt.Errorf("get: %w", NewHTTPError(404, "", "get case"))
	if !IsNotFound(nf) || StatusCode(nf) != 404 || !IsIrrecoverable(nf) {
		t.Fatalf("404 misclassified: %v", nf)
	}
	if KindOf(stderrors.New("plain")) != Server {
		t.Fatal("unclassified errors count as server failures")
	}
	if IsServer(nil) {
		t.Fatal("nil is not an error")
	}
}
