package server

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var mcqPolicy = bluemonday.UGCPolicy()

// renderMCQ converts generated MCQ text to HTML for display. Models often
// sprinkle markdown emphasis into their output, so the text is run through
// goldmark and then sanitized; plain text passes through as paragraphs
// either way.
func renderMCQ(text string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>")
	}
	return template.HTML(mcqPolicy.SanitizeBytes(buf.Bytes()))
}
