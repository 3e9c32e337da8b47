// Package templates renders the course site's HTML.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/louisbranch/llmrag/internal/platform/branding"
)

// LandingContent renders the landing page body: a header with the course
// title and welcome sentence, an empty main region, and the copyright footer.
// It has no inputs and renders identically every time.
func LandingContent() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		parts := []string{
			`<div class="App"><header class="App-header"><h1>`,
			templ.EscapeString(branding.AppName),
			`</h1><p>`,
			templ.EscapeString(branding.Tagline),
			`</p></header><main></main><footer><p>`,
			templ.EscapeString(branding.Copyright()),
			`</p></footer></div>`,
		}
		for _, part := range parts {
			if _, err := io.WriteString(w, part); err != nil {
				return err
			}
		}
		return nil
	})
}

// Document wraps body in the site's HTML shell.
func Document(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`+
			templ.EscapeString(title)+`</title></head><body>`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// LandingPage is the full landing document served at "/".
func LandingPage() templ.Component {
	return Document(branding.AppName, LandingContent())
}
