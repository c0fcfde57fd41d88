package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := SplitText("hello", 100, 20)
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Errorf("got %v, want [hello]", chunks)
		}
	})

	t.Run("chunks respect size", func(t *testing.T) {
		text := strings.Repeat("a", 250)
		chunks := SplitText(text, 100, 20)
		for i, c := range chunks {
			if len(c) > 100 {
				t.Errorf("chunk %d length %d exceeds 100", i, len(c))
			}
		}
	})

	t.Run("consecutive chunks overlap", func(t *testing.T) {
		text := "abcdefghijklmnopqrstuvwxyz"
		chunks := SplitText(text, 10, 4)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %v", chunks)
		}
		first, second := chunks[0], chunks[1]
		if first[len(first)-4:] != second[:4] {
			t.Errorf("chunks do not overlap: %q then %q", first, second)
		}
	})

	t.Run("no characters are lost", func(t *testing.T) {
		text := strings.Repeat("xyz", 123)
		chunks := SplitText(text, 50, 10)
		joined := chunks[0]
		for i := 1; i < len(chunks); i++ {
			joined += chunks[i][10:]
		}
		if joined != text {
			t.Error("reassembled text does not match original")
		}
	})

	t.Run("overlap larger than chunk size falls back", func(t *testing.T) {
		text := strings.Repeat("b", 30)
		chunks := SplitText(text, 10, 15)
		if len(chunks) != 3 {
			t.Errorf("got %d chunks, want 3", len(chunks))
		}
	})

	t.Run("multibyte runes stay intact", func(t *testing.T) {
		text := strings.Repeat("日本語テキスト", 10)
		chunks := SplitText(text, 10, 2)
		for i, c := range chunks {
			if !strings.HasPrefix(text, chunks[0]) {
				t.Fatalf("first chunk is not a prefix of the text")
			}
			for _, r := range c {
				if r == '�' {
					t.Errorf("chunk %d contains a broken rune", i)
				}
			}
		}
	})
}
