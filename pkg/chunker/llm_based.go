package chunker

import (
	"context"
	"fmt"
	"strings"

	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/parser"
)

const chunkDelimiter = "---CHUNK---"

const chunkPrompt = `Split the following passage into self-contained chunks.
Each chunk must cover exactly one topic and make sense on its own.
Output the chunks verbatim, separated by the line %s. Do not add
commentary, numbering, or any other text.

Passage:
%s`

// LLMStage asks a language model to split pages along semantic boundaries.
// It is slower than the rule-based pass but produces chunks that align with
// topics instead of character windows.
type LLMStage struct {
	provider llm.LLMProvider
}

func NewLLMStage(provider llm.LLMProvider) *LLMStage {
	return &LLMStage{provider: provider}
}

func (s *LLMStage) Tag() string {
	return "llm_based"
}

func (s *LLMStage) Chunk(ctx context.Context, doc *parser.Document) (int, <-chan Record, error) {
	var records []Record
	for _, page := range doc.Pages {
		response, err := s.provider.Generate(ctx,
			fmt.Sprintf(chunkPrompt, chunkDelimiter, page.Content),
			llm.WithTemperature(0.0),
		)
		if err != nil {
			return 0, nil, fmt.Errorf("llm chunking page %d: %w", page.Number, err)
		}

		for _, piece := range strings.Split(response, chunkDelimiter) {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			records = append(records, Record{
				Content:    piece,
				PageNumber: page.Number,
			})
		}
	}
	return len(records), stream(records), nil
}
