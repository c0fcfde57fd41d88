package parser

import (
	"io"
	"strings"
)

// TextParser reads the whole stream as UTF-8 text, splitting on form feed
// characters so pre-paginated text files keep their page numbers.
type TextParser struct{}

func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Parse(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	for i, part := range strings.Split(string(raw), "\f") {
		content := strings.TrimSpace(part)
		if content == "" {
			continue
		}
		doc.Pages = append(doc.Pages, Page{
			Number:  i + 1,
			Content: content,
		})
	}

	return doc, nil
}
