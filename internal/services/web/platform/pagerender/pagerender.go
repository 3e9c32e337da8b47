// Package pagerender centralizes HTML page rendering behavior.
package pagerender

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"

	"github.com/a-h/templ"

	"github.com/louisbranch/llmrag/internal/services/web/platform/httpx"
)

type emptyComponent struct{}

func (emptyComponent) Render(context.Context, io.Writer) error {
	return nil
}

// Render renders component to a string. A nil component renders nothing.
func Render(ctx context.Context, component templ.Component) (string, error) {
	if component == nil {
		component = emptyComponent{}
	}
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WritePage renders component fully before writing, so a render failure
// becomes a clean 500 instead of a truncated page.
func WritePage(w http.ResponseWriter, r *http.Request, statusCode int, component templ.Component) {
	if w == nil {
		return
	}
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	rendered, err := Render(httpx.RequestContext(r), component)
	if err != nil {
		log.Printf("render page path=%s: %v", requestPath(r), err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	_ = httpx.WriteHTML(w, statusCode, rendered)
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
