// Package templates holds the page components served by the mirror.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const siteName = "GitHub Wiki SEE"

// layout wraps body in the shared page chrome.
func layout(title string, indexable bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ew := &errWriter{w: w}
		ew.write(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		ew.write(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		if !indexable {
			ew.write(`<meta name="robots" content="noindex">`)
		}
		ew.write(`<title>` + templ.EscapeString(title) + `</title></head><body>`)
		ew.write(`<header><a href="/">` + siteName + `</a></header><main>`)
		if ew.err != nil {
			return ew.err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		ew.write(`</main><footer>` + templ.EscapeString(DefaultFooterNote) + `</footer></body></html>`)
		return ew.err
	})
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}
