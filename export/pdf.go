// Package export materializes generated MCQ text as paginated PDF
// artifacts under a configured output directory.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Layout constants for A4 with the origin in the upper left corner.
const (
	linesPerPage = 48
	marginX      = 50.0
	marginY      = 50.0
	leading      = 14.0
	bodyFontSize = 10
	headFontSize = 14
)

// Metadata is optional context rendered into the document header.
type Metadata struct {
	Topic string
	Owner string
}

// PDFExporter writes artifacts under OutputDir, creating it on demand.
type PDFExporter struct {
	OutputDir string
}

func NewPDFExporter(outputDir string) *PDFExporter {
	return &PDFExporter{OutputDir: outputDir}
}

// Export renders text as a paginated PDF, one paragraph per input line,
// and returns the artifact path. Content is escaped before embedding.
// The only failure mode is a filesystem or encoding error.
func (e *PDFExporter) Export(text string, meta Metadata) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir: %w", err)
	}

	doc := buildDocument(text, meta)
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("export: encode: %w", err)
	}

	path := filepath.Join(e.OutputDir, "mcqs_"+uuid.NewString()+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(raw), f, conf); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("export: render: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("export: close: %w", err)
	}
	return path, nil
}

// createDocument mirrors the subset of pdfcpu's create JSON we emit.
type createDocument struct {
	Paper  string                `json:"paper"`
	Origin string                `json:"origin"`
	Pages  map[string]createPage `json:"pages"`
}

type createPage struct {
	Content createContent `json:"content"`
}

type createContent struct {
	Text []createText `json:"text"`
}

type createText struct {
	Value  string     `json:"value"`
	Anchor string     `json:"anchor"`
	Dx     float64    `json:"dx"`
	Dy     float64    `json:"dy"`
	Font   createFont `json:"font"`
}

type createFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

func buildDocument(text string, meta Metadata) createDocument {
	pages := paginate(text)
	doc := createDocument{
		Paper:  "A4",
		Origin: "upperLeft",
		Pages:  make(map[string]createPage, len(pages)),
	}

	for i, lines := range pages {
		var texts []createText
		y := marginY

		if i == 0 && meta.Topic != "" {
			texts = append(texts, createText{
				Value:  escapeLine("MCQs: " + meta.Topic),
				Anchor: "tl",
				Dx:     marginX,
				Dy:     y,
				Font:   createFont{Name: "Helvetica-Bold", Size: headFontSize},
			})
			y += 2 * leading
		}

		for _, line := range lines {
			if line != "" {
				texts = append(texts, createText{
					Value:  line,
					Anchor: "tl",
					Dx:     marginX,
					Dy:     y,
					Font:   createFont{Name: "Helvetica", Size: bodyFontSize},
				})
			}
			y += leading
		}

		doc.Pages[strconv.Itoa(i+1)] = createPage{
			Content: createContent{Text: texts},
		}
	}
	return doc
}

// paginate splits text into pages of escaped lines. Every input line
// becomes one paragraph; blank lines are preserved as vertical space.
func paginate(text string) [][]string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = escapeLine(line)
	}

	var pages [][]string
	for len(lines) > linesPerPage {
		pages = append(pages, lines[:linesPerPage])
		lines = lines[linesPerPage:]
	}
	pages = append(pages, lines)
	return pages
}

// runeFallbacks maps common typographic runes the models emit to ASCII
// equivalents the core fonts can render.
var runeFallbacks = map[rune]string{
	'‘': "'", '’': "'",
	'“': `"`, '”': `"`,
	'–': "-", '—': "-",
	'•': "-",
	'…': "...",
	' ': " ",
}

// escapeLine sanitizes a caller-supplied line before embedding: markup
// ampersands are escaped, control characters dropped, and runes outside
// the core fonts' WinAnsi repertoire replaced so rendering cannot fail
// on non-Latin model output.
func escapeLine(line string) string {
	line = strings.ReplaceAll(line, "&", "&amp;")
	var sb strings.Builder
	for _, r := range line {
		switch {
		case r == '\t':
			sb.WriteString("    ")
		case r < 0x20:
			// dropped
		case r > 0x7e:
			if repl, ok := runeFallbacks[r]; ok {
				sb.WriteString(repl)
			} else if r >= 0xa0 && r <= 0xff {
				sb.WriteRune(r)
			} else {
				sb.WriteRune('?')
			}
		default:
			sb.WriteRune(r)
		}
	}
	return strings.TrimRight(sb.String(), " ")
}
