package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer turns plain markdown into sanitised HTML. It is safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer builds a renderer with GitHub flavoured markdown enabled.
func NewRenderer() *Renderer {
	engine := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	return &Renderer{
		engine: engine,
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts md to HTML. Wiki text is untrusted, so the output is passed
// through a user-generated-content policy before it is returned.
func (r *Renderer) Render(md string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(md), &buf); err != nil {
		return "", eris.Wrap(err, "rendering markdown")
	}

	return r.policy.Sanitize(buf.String()), nil
}
