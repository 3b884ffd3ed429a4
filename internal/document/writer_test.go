package document

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/manbook/internal/manpage"
)

func sampleDocument() *Document {
	results := map[string]manpage.Entry{
		"pkgA":   manpage.Found("pkgA", "NAME\n       pkgA - does `things` <fast>\n\nSYNOPSIS\n       pkgA [-v]"),
		"pkgB":   manpage.Missing("pkgB"),
		"libc++": manpage.Failed("libc++", "timed out after 30s"),
	}
	return NewBuilder("Man Pages & Friends", smallLayout()).Build(pkgs("pkgA", "pkgB", "libc++"), results, generated)
}

func render(t *testing.T, w Writer, doc *Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, doc))
	return buf.Bytes()
}

func TestNewWriter(t *testing.T) {
	for format, want := range map[string]Writer{
		"pdf":  PDFWriter{},
		"":     PDFWriter{},
		"txt":  TextWriter{},
		"html": HTMLWriter{},
	} {
		got, err := NewWriter(format)
		require.NoError(t, err)
		assert.IsType(t, want, got)
	}
	_, err := NewWriter("docx")
	require.Error(t, err)
}

func TestTextWriterPagination(t *testing.T) {
	doc := sampleDocument()
	out := string(render(t, TextWriter{}, doc))

	pages := strings.Split(out, "\f")
	require.Len(t, pages, len(doc.Pages))

	for i, page := range pages {
		lines := strings.Split(strings.TrimSuffix(page, "\n"), "\n")
		// running head, blank, body, blank, footer
		assert.Len(t, lines, doc.Layout.Height+4, "page %d", i+1)
		assert.Equal(t, "Page "+strconv.Itoa(i+1), strings.TrimSpace(lines[len(lines)-1]))
	}

	assert.Contains(t, pages[0], "Man Pages & Friends")
	assert.Contains(t, pages[0], "Found: 1  Missing: 1  Errors: 1")
	assert.Contains(t, pages[1], "Contents")
	assert.Contains(t, pages[2], "       pkgA - does `things` <fast>")
	assert.Contains(t, out, "No man page available.")
	assert.Contains(t, flatten(out), "Man page could not be retrieved: timed out after 30s")
}

func TestWritersAreDeterministic(t *testing.T) {
	for _, w := range []Writer{TextWriter{}, PDFWriter{}, HTMLWriter{}} {
		first := render(t, w, sampleDocument())
		second := render(t, w, sampleDocument())
		assert.Equal(t, first, second, "%T", w)
	}
}

func TestPDFWriter(t *testing.T) {
	out := render(t, PDFWriter{}, sampleDocument())
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "%%EOF")
}

func TestPDFGeometryFitsPage(t *testing.T) {
	for _, l := range []Layout{DefaultLayout(), {Width: 200, Height: 60}, {Width: 40, Height: 150}} {
		size, line := pdfGeometry(l)
		assert.Greater(t, size, 0.0)
		assert.LessOrEqual(t, size, pdfMaxFont)
		assert.LessOrEqual(t, float64(l.Width)*size*0.6*ptToMM, pdfPageWidth-2*pdfMargin)
		assert.LessOrEqual(t, float64(l.Height)*line, pdfPageHeight-pdfMargin-pdfHeadHeight-pdfFootHeight)
	}
}

func TestCP1252(t *testing.T) {
	assert.Equal(t, "caf\xe9 ? ok", cp1252("café 漢 ok"))
}

func TestHTMLWriter(t *testing.T) {
	out := string(render(t, HTMLWriter{}, sampleDocument()))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Man Pages &amp; Friends</title>")
	assert.Contains(t, out, `id="pkg-pkga"`)
	assert.Contains(t, out, `href="#pkg-pkga"`)
	assert.Contains(t, out, `id="pkg-libc"`)
	assert.Contains(t, out, `<div class="page" id="page-1">`)
	assert.Contains(t, out, "does `things` &lt;fast&gt;")
	assert.Contains(t, out, "No man page available.")
	assert.Equal(t, len(sampleDocument().Pages), strings.Count(out, `<div class="page"`))
}

func TestWriteCodeBlockFence(t *testing.T) {
	var b bytes.Buffer
	writeCodeBlock(&b, []string{"", "run ```cmd``` now", ""})
	assert.Equal(t, "````\nrun ```cmd``` now\n````\n\n", b.String())

	b.Reset()
	writeCodeBlock(&b, []string{"", "  "})
	assert.Empty(t, b.String())
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `libc\+\+ \[x\]`, escapeMarkdown("libc++ [x]"))
}

// flatten collapses line breaks and indentation so wrapped text can be
// matched as one string.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
