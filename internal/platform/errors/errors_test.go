package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapsKnownKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: nil, want: http.StatusOK},
		{err: E(KindInvalidInput, "bad"), want: http.StatusBadRequest},
		{err: E(KindNotFound, "missing"), want: http.StatusNotFound},
		{err: E(KindUnavailable, "down"), want: http.StatusServiceUnavailable},
		{err: E(KindUpstream, "provider"), want: http.StatusBadGateway},
		{err: stderrors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatusFollowsWrappedChain(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("process query: %w", E(KindInvalidInput, "query is required"))
	if got := HTTPStatus(err); got != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", got, http.StatusBadRequest)
	}
	if !IsKind(err, KindInvalidInput) {
		t.Fatal("expected IsKind to match wrapped error")
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	t.Parallel()

	err := Wrap(KindUpstream, "embed query", stderrors.New("status 500"))
	if got := err.Error(); got != "embed query: status 500" {
		t.Fatalf("Error() = %q", got)
	}
	if !stderrors.Is(err, &Error{Kind: KindUpstream}) {
		t.Fatal("expected errors.Is to match by kind")
	}
}

func TestErrorStringFallsBackToKindWhenMessageEmpty(t *testing.T) {
	t.Parallel()

	err := &Error{Kind: KindNotFound}
	if got := err.Error(); got != string(KindNotFound) {
		t.Fatalf("Error() = %q, want %q", got, string(KindNotFound))
	}
}

func TestPublicMessageHidesUnknownErrors(t *testing.T) {
	t.Parallel()

	if got := PublicMessage(stderrors.New("sql: connection refused")); got != "internal error" {
		t.Fatalf("PublicMessage() = %q, want %q", got, "internal error")
	}
	if got := PublicMessage(E(KindInvalidInput, "query is required")); got != "query is required" {
		t.Fatalf("PublicMessage() = %q", got)
	}
}
