package document

import (
	"fmt"
	"io"
)

// Writer serializes a laid-out document.
type Writer interface {
	Write(w io.Writer, doc *Document) error
}

// NewWriter returns the writer for format: pdf, txt or html.
func NewWriter(format string) (Writer, error) {
	switch format {
	case "pdf", "":
		return PDFWriter{}, nil
	case "txt":
		return TextWriter{}, nil
	case "html":
		return HTMLWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}
