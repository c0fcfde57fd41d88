package search

import (
	"testing"

	"ai-docsearch-be/internal/entity"
	"ai-docsearch-be/internal/repository/contract"

	"github.com/google/uuid"
)

func hit(score float64) *contract.ScoredChunk {
	return &contract.ScoredChunk{
		Chunk: &entity.DocumentChunk{Id: uuid.New()},
		Score: score,
	}
}

func TestDynamicThresholdCutoff(t *testing.T) {
	tests := []struct {
		name string
		d    DynamicThreshold
		top1 float64
		want float64
	}{
		{"percentage band", DynamicThreshold{StrategyPercentage, 0.15}, 0.8, 0.68},
		{"offset band", DynamicThreshold{StrategyOffset, 0.4}, 0.9, 0.5},
		{"offset can go negative", DynamicThreshold{StrategyOffset, 0.5}, 0.2, -0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.d.Cutoff(tt.top1)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cutoff(%f) = %f, want %f", tt.top1, got, tt.want)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for s, want := range map[string]StrategyKind{
		"pct":        StrategyPercentage,
		"percentage": StrategyPercentage,
		"offset":     StrategyOffset,
		"absolute":   StrategyOffset,
	} {
		got, err := ParseStrategy(s)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = (%v, %v), want %v", s, got, err, want)
		}
	}
	if _, err := ParseStrategy("bogus"); err == nil {
		t.Error("ParseStrategy(bogus) should fail")
	}
}

func TestFilter(t *testing.T) {
	t.Run("both thresholds must pass", func(t *testing.T) {
		// top1=0.9, offset 0.4 -> cutoff 0.5; static floor 0.5.
		// 0.5 ties both boundaries and is dropped, 0.3 fails both.
		hits := []*contract.ScoredChunk{hit(0.9), hit(0.5), hit(0.3)}
		got := Filter(hits, 0.5, DynamicThreshold{StrategyOffset, 0.4})
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		if got[0].Score != 0.9 {
			t.Errorf("kept score = %f, want 0.9", got[0].Score)
		}
	})

	t.Run("percentage strategy", func(t *testing.T) {
		// top1=1.0, pct 0.15 -> cutoff 0.85
		hits := []*contract.ScoredChunk{hit(1.0), hit(0.9), hit(0.85), hit(0.6)}
		got := Filter(hits, 0.5, DynamicThreshold{StrategyPercentage, 0.15})
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
	})

	t.Run("static floor still applies when cutoff is negative", func(t *testing.T) {
		// top1=0.2, offset 0.5 -> cutoff -0.3; floor 0.5 rejects all
		hits := []*contract.ScoredChunk{hit(0.2), hit(0.1)}
		got := Filter(hits, 0.5, DynamicThreshold{StrategyOffset, 0.5})
		if len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})

	t.Run("preserves engine rank order", func(t *testing.T) {
		hits := []*contract.ScoredChunk{hit(0.9), hit(0.8), hit(0.7)}
		got := Filter(hits, 0.1, DynamicThreshold{StrategyOffset, 1.0})
		for i := 1; i < len(got); i++ {
			if got[i].Score > got[i-1].Score {
				t.Errorf("rank order broken at %d", i)
			}
		}
	})

	t.Run("empty input yields empty non-nil slice", func(t *testing.T) {
		got := Filter(nil, 0.5, DynamicThreshold{})
		if got == nil || len(got) != 0 {
			t.Errorf("got %v, want empty slice", got)
		}
	})
}
