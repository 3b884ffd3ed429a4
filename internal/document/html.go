package document

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const htmlStyle = `body{max-width:60em;margin:auto;font-family:sans-serif}
.page{page-break-after:always;border-bottom:1px solid #ccc;padding:1em 0}
.running,.footer{text-align:center;color:#666;font-size:small}
pre{font-size:0.85em;line-height:1.2}
li{font-family:monospace;list-style:none;white-space:pre}`

// HTMLWriter renders the pages as Markdown and converts it with goldmark.
// Each page becomes a div; headings carry the section IDs the table of
// contents links to.
type HTMLWriter struct{}

func (HTMLWriter) Write(w io.Writer, doc *Document) error {
	md := goldmark.New(
		goldmark.WithParserOptions(parser.WithAttribute()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	var body bytes.Buffer
	if err := md.Convert(markdown(doc), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	title := html.EscapeString(doc.Title)
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n%s</body>\n</html>\n",
		title, htmlStyle, body.Bytes())
	return err
}

func markdown(doc *Document) []byte {
	var b bytes.Buffer
	for _, page := range doc.Pages {
		fmt.Fprintf(&b, "<div class=\"page\" id=\"page-%d\">\n\n", page.Number)
		if page.Running != "" {
			fmt.Fprintf(&b, "<p class=\"running\">%s</p>\n\n", html.EscapeString(page.Running))
		}

		var block []string
		var list []string
		flushBlock := func() {
			writeCodeBlock(&b, block)
			block = nil
		}
		flushList := func() {
			for _, item := range list {
				b.WriteString(item)
			}
			if len(list) > 0 {
				b.WriteString("\n")
			}
			list = nil
		}

		for _, line := range page.Lines {
			if line.Kind != LineBody {
				flushBlock()
			}
			if line.Kind != LineTOC {
				flushList()
			}
			switch line.Kind {
			case LineTitle:
				fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(strings.TrimSpace(line.Text)))
			case LineHeading:
				if line.Target != "" {
					fmt.Fprintf(&b, "## %s {#%s}\n\n", escapeMarkdown(line.Text), line.Target)
				} else {
					fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(line.Text))
				}
			case LineRule:
			case LineTOC:
				list = append(list, fmt.Sprintf("- [%s](#%s)\n", escapeMarkdown(line.Text), line.Target))
			default:
				if page.Kind == PageTitle {
					if text := strings.TrimSpace(line.Text); text != "" {
						fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(text))
					}
					continue
				}
				block = append(block, line.Text)
			}
		}
		flushBlock()
		flushList()

		fmt.Fprintf(&b, "<p class=\"footer\">Page %d</p>\n\n</div>\n\n", page.Number)
	}
	return b.Bytes()
}

// writeCodeBlock emits lines as a fenced block, using a fence longer than
// any backtick run inside. Blocks of only blank lines are dropped.
func writeCodeBlock(b *bytes.Buffer, lines []string) {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return
	}

	longest := 0
	for _, line := range lines {
		run := 0
		for _, r := range line {
			if r == '`' {
				run++
				longest = max(longest, run)
			} else {
				run = 0
			}
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))

	b.WriteString(fence + "\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(fence + "\n\n")
}

// escapeMarkdown backslash-escapes ASCII punctuation so package names and
// reasons are rendered literally.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune("\\`*_{}[]()<>#+-.!|~&\"'$%,/:;=?@^", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
