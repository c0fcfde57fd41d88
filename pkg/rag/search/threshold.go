package search

import "fmt"

// StrategyKind selects how the dynamic cutoff derives from the top hit.
type StrategyKind int

const (
	// StrategyPercentage keeps hits within a percentage band below the
	// top score: cutoff = top1 * (1 - value).
	StrategyPercentage StrategyKind = iota
	// StrategyOffset keeps hits within an absolute band below the top
	// score: cutoff = top1 - value.
	StrategyOffset
)

// DynamicThreshold is the cutoff derived from the strongest hit of one
// search. A very low top score can push the cutoff negative, letting weak
// hits through; that is intentional and tuned via the static floor.
type DynamicThreshold struct {
	Kind  StrategyKind
	Value float64
}

func (d DynamicThreshold) Cutoff(top1 float64) float64 {
	switch d.Kind {
	case StrategyOffset:
		return top1 - d.Value
	default:
		return top1 * (1 - d.Value)
	}
}

func ParseStrategy(s string) (StrategyKind, error) {
	switch s {
	case "pct", "percentage":
		return StrategyPercentage, nil
	case "offset", "absolute":
		return StrategyOffset, nil
	default:
		return 0, fmt.Errorf("unknown dynamic threshold strategy %q", s)
	}
}
