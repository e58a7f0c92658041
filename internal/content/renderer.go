package content

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns product description markdown into sanitised HTML for the
// product detail endpoint. Output always passes the UGC policy regardless of
// what an admin typed into the description field.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRenderer constructs the renderer with GFM tables and strikethrough.
func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
}

// Render converts markdown to sanitised HTML. Conversion failures fall back
// to the sanitised raw text; a description never errors a product page.
func (r *Renderer) Render(description string) string {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(description), &buf); err != nil {
		return r.policy.Sanitize(description)
	}
	return r.policy.Sanitize(buf.String())
}
