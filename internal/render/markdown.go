package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts raw submission text into sanitized HTML. Markdown
// conversion is followed by a link-aware sanitization pass; script and
// markup injection never survives either step.
type Renderer struct {
	markdown goldmark.Markdown
	body     *bluemonday.Policy
	strict   *bluemonday.Policy
}

// NewRenderer creates a renderer with the body and title policies
func NewRenderer() *Renderer {
	body := bluemonday.UGCPolicy()
	body.AllowImages()
	body.AddTargetBlankToFullyQualifiedLinks(true)
	body.RequireNoReferrerOnLinks(true)

	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		body:   body,
		strict: bluemonday.StrictPolicy(),
	}
}

// Render converts raw body text to sanitized presentational HTML. It
// never fails: if markdown conversion errors, the raw text is sanitized
// and returned as-is.
func (r *Renderer) Render(raw string) string {
	if raw == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(raw), &buf); err != nil {
		return r.body.Sanitize(raw)
	}

	return string(r.body.SanitizeBytes(buf.Bytes()))
}

// CleanTitle strips all markup from a submission title before storage
func (r *Renderer) CleanTitle(title string) string {
	return r.strict.Sanitize(title)
}
