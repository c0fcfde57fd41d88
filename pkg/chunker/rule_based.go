package chunker

import (
	"context"
	"strings"

	"ai-docsearch-be/pkg/parser"
	"ai-docsearch-be/pkg/utils"
)

// RuleBasedStage splits each page with a character window and overlap.
type RuleBasedStage struct {
	cfg Config
}

func NewRuleBasedStage(cfg Config) *RuleBasedStage {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	return &RuleBasedStage{cfg: cfg}
}

func (s *RuleBasedStage) Tag() string {
	return "rule_based"
}

func (s *RuleBasedStage) Chunk(ctx context.Context, doc *parser.Document) (int, <-chan Record, error) {
	var records []Record
	for _, page := range doc.Pages {
		for _, piece := range utils.SplitText(page.Content, s.cfg.ChunkSize, s.cfg.ChunkOverlap) {
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
