package errors

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestIsClientCode(t *testing.T) {
	if !IsClientCode(CodeNotFound) {
		t.Fatalf("not found should be a client code")
	}
	if IsClientCode(CodeDependency) {
		t.Fatalf("dependency should not be a client code")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("disk on fire")
	err := Wrap(CodeDependency, cause, "read catalog")
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if got := CodeOf(fmt.Errorf("outer: %w", err)); got != CodeDependency {
		t.Fatalf("expected dependency code through fmt wrapping, got %s", got)
	}
	if got := CodeOf(cause); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"price": "must be >= 0"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["price"] != "must be >= 0" {
		t.Fatalf("unexpected details %#v", err.Details())
	}
}

func TestDumpCapturesPathErrors(t *testing.T) {
	pathErr := &fs.PathError{Op: "open", Path: "/data/prints.json", Err: fs.ErrPermission}
	d := Dump(Wrap(CodeDependency, pathErr, "load prints"))
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if d.Path != "/data/prints.json" || d.Op != "open" {
		t.Fatalf("unexpected path fields %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected chain of at least two errors, got %v", d.Chain)
	}
}
