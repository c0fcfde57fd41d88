package chunker

import (
	"context"
	"fmt"
	"os"

	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/parser"
)

// Record is one produced chunk, tagged with the page it came from.
type Record struct {
	Content    string
	PageNumber int
}

// Stage turns a parsed document into chunks. Chunk declares the total
// count upfront and then streams the records lazily; the declared count is
// what progress accounting trusts, it is never recomputed. A stage is
// restartable: every Chunk call produces a fresh sequence.
type Stage interface {
	Tag() string
	Chunk(ctx context.Context, doc *parser.Document) (int, <-chan Record, error)
}

// Config tunes how stages size their chunks.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 100),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return defaultVal
}

// StagesFor returns the ordered stage list for a document, mirroring the
// upload validation: rule-based splitting always runs first, the semantic
// LLM pass second when a provider is configured.
func StagesFor(procType string, cfg Config, llmProvider llm.LLMProvider) ([]Stage, error) {
	switch procType {
	case "text/plain", "text":
		stages := []Stage{NewRuleBasedStage(cfg)}
		if llmProvider != nil {
			stages = append(stages, NewLLMStage(llmProvider))
		}
		return stages, nil
	default:
		return nil, fmt.Errorf("no chunk stages for proc_type %q", procType)
	}
}

// stream feeds pre-computed records into a channel so consumers can pull
// them lazily. The channel is always closed once drained.
func stream(records []Record) <-chan Record {
	out := make(chan Record)
	go func() {
		defer close(out)
		for _, rec := range records {
			out <- rec
		}
	}()
	return out
}
