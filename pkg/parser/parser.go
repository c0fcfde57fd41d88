package parser

import (
	"fmt"
	"io"
)

// Page is one extracted unit of a source file. For plain text files there
// is a single page; paged formats produce one Page per physical page.
type Page struct {
	Number  int
	Content string
}

// Document is the parsed form handed to the chunk stages.
type Document struct {
	Pages []Page
}

// Parser extracts pages from an uploaded file. Concrete parsing of rich
// formats (PDF, slides, images) lives behind this contract; only plain
// text parsing ships in-process.
type Parser interface {
	Parse(r io.Reader) (*Document, error)
}

// ForDocument picks the parser for an extension/processing-type pair,
// mirroring the upload validation on the HTTP layer.
func ForDocument(extension, procType string) (Parser, error) {
	switch procType {
	case "text/plain", "text":
		switch extension {
		case "txt", "md", "":
			return NewTextParser(), nil
		default:
			return nil, fmt.Errorf("no parser for extension %q with proc_type %q", extension, procType)
		}
	default:
		return nil, fmt.Errorf("no parser for proc_type %q", procType)
	}
}
