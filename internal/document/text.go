package document

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextWriter renders pages as fixed-width plain text. Pages are separated
// by a form feed and padded to the layout height so footers line up.
type TextWriter struct{}

func (TextWriter) Write(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	width := doc.Layout.Width

	for i, page := range doc.Pages {
		if i > 0 {
			bw.WriteString("\f")
		}
		bw.WriteString(strings.TrimRight(center(page.Running, width), " "))
		bw.WriteString("\n\n")
		for _, line := range page.Lines {
			bw.WriteString(line.Text)
			bw.WriteString("\n")
		}
		for range doc.Layout.Height - len(page.Lines) {
			bw.WriteString("\n")
		}
		bw.WriteString("\n")
		bw.WriteString(center(fmt.Sprintf("Page %d", page.Number), width))
		bw.WriteString("\n")
	}
	return bw.Flush()
}
