package parser

import (
	"strings"
	"testing"
)

func TestTextParser(t *testing.T) {
	t.Run("single page", func(t *testing.T) {
		doc, err := NewTextParser().Parse(strings.NewReader("just one page\n"))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if len(doc.Pages) != 1 {
			t.Fatalf("pages = %d, want 1", len(doc.Pages))
		}
		if doc.Pages[0].Number != 1 || doc.Pages[0].Content != "just one page" {
			t.Errorf("page = %+v", doc.Pages[0])
		}
	})

	t.Run("form feed separates pages", func(t *testing.T) {
		doc, err := NewTextParser().Parse(strings.NewReader("first\f second \fthird"))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if len(doc.Pages) != 3 {
			t.Fatalf("pages = %d, want 3", len(doc.Pages))
		}
		if doc.Pages[1].Content != "second" {
			t.Errorf("page 2 content = %q", doc.Pages[1].Content)
		}
		if doc.Pages[2].Number != 3 {
			t.Errorf("page 3 number = %d", doc.Pages[2].Number)
		}
	})

	t.Run("blank pages keep numbering of the rest", func(t *testing.T) {
		doc, err := NewTextParser().Parse(strings.NewReader("first\f\fthird"))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if len(doc.Pages) != 2 {
			t.Fatalf("pages = %d, want 2", len(doc.Pages))
		}
		if doc.Pages[1].Number != 3 {
			t.Errorf("third page number = %d, want 3", doc.Pages[1].Number)
		}
	})
}

func TestForDocument(t *testing.T) {
	tests := []struct {
		extension string
		procType  string
		wantErr   bool
	}{
		{"txt", "text/plain", false},
		{"md", "text/plain", false},
		{"", "text/plain", false},
		{"txt", "text", false},
		{"pdf", "text/plain", true},
		{"txt", "application/pdf", true},
	}
	for _, tt := range tests {
		_, err := ForDocument(tt.extension, tt.procType)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForDocument(%q, %q) err = %v, wantErr %v", tt.extension, tt.procType, err, tt.wantErr)
		}
	}
}
