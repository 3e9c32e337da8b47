package pagerender

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
)

func TestRenderNilComponent(t *testing.T) {
	t.Parallel()

	got, err := Render(context.Background(), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "" {
		t.Fatalf("Render(nil) = %q, want empty", got)
	}
}

func TestWritePageWritesHTML(t *testing.T) {
	t.Parallel()

	component := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hi</p>")
		return err
	})
	rec := httptest.NewRecorder()
	WritePage(rec, httptest.NewRequest(http.MethodGet, "/", nil), 0, component)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
	if rec.Body.String() != "<p>hi</p>" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestWritePageRenderFailure(t *testing.T) {
	t.Parallel()

	component := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, "<p>partial")
		return errors.New("boom")
	})
	rec := httptest.NewRecorder()
	WritePage(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, component)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestWritePageNilWriter(t *testing.T) {
	t.Parallel()

	WritePage(nil, nil, http.StatusOK, nil)
}
