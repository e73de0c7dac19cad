package engine

import (
	"math"
	"sort"
)

// Multiplier is a payout lookup result. Default is set when no curve applies
// (zero successes or unknown risk level); Clamped is set when the success
// count ran past the end of the curve and the last entry was used.
type Multiplier struct {
	Value   float64
	Default bool
	Clamped bool
}

// PayoutTable maps a risk level (mine count) to its multiplier curve; entry i
// is the multiplier after i+1 successes.
type PayoutTable struct {
	fieldSize int
	curves    map[int][]float64
}

func NewPayoutTable(fieldSize int, curves map[int][]float64) (*PayoutTable, error) {
	if fieldSize < 2 {
		return nil, newError(CodeInvalidConfiguration, "field size must be at least 2, got %d", fieldSize)
	}

	table := &PayoutTable{
		fieldSize: fieldSize,
		curves:    make(map[int][]float64, len(curves)),
	}
	for risk, curve := range curves {
		if risk < 1 || risk >= fieldSize {
			return nil, newError(CodeInvalidConfiguration, "risk level %d outside [1, %d)", risk, fieldSize)
		}
		if len(curve) == 0 {
			return nil, newError(CodeInvalidConfiguration, "risk level %d has an empty curve", risk)
		}
		if len(curve) > fieldSize-risk {
			return nil, newError(CodeInvalidConfiguration,
				"risk level %d has %d multipliers, at most %d safe reveals exist", risk, len(curve), fieldSize-risk)
		}
		prev := 0.0
		for i, m := range curve {
			if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
				return nil, newError(CodeInvalidConfiguration, "risk level %d: multiplier %d is not positive", risk, i)
			}
			if m < prev {
				return nil, newError(CodeInvalidConfiguration, "risk level %d: multipliers decrease at index %d", risk, i)
			}
			prev = m
		}
		table.curves[risk] = append([]float64(nil), curve...)
	}
	return table, nil
}

func (p *PayoutTable) FieldSize() int { return p.fieldSize }

func (p *PayoutTable) Lookup(riskLevel, successCount int) Multiplier {
	curve, ok := p.curves[riskLevel]
	if !ok || successCount <= 0 {
		return Multiplier{Value: 1.0, Default: true}
	}
	idx := successCount - 1
	if idx >= len(curve) {
		return Multiplier{Value: curve[len(curve)-1], Clamped: true}
	}
	return Multiplier{Value: curve[idx]}
}

// MultiplierFor never fails: see Lookup for the defaulting and clamping rules.
func (p *PayoutTable) MultiplierFor(riskLevel, successCount int) float64 {
	return p.Lookup(riskLevel, successCount).Value
}

// Curve returns a copy of the curve for riskLevel, or nil.
func (p *PayoutTable) Curve(riskLevel int) []float64 {
	curve, ok := p.curves[riskLevel]
	if !ok {
		return nil
	}
	return append([]float64(nil), curve...)
}

func (p *PayoutTable) RiskLevels() []int {
	levels := make([]int, 0, len(p.curves))
	for risk := range p.curves {
		levels = append(levels, risk)
	}
	sort.Ints(levels)
	return levels
}

// FairCurve derives the curve from the odds of surviving k reveals:
// C(N, mines) / C(N-k, mines), scaled by (1 - houseEdge) and rounded to cents.
func FairCurve(fieldSize, mines int, houseEdge float64) []float64 {
	safe := fieldSize - mines
	if mines < 1 || safe < 1 {
		return nil
	}
	curve := make([]float64, safe)
	odds := 1.0
	for k := 0; k < safe; k++ {
		odds *= float64(fieldSize-k) / float64(safe-k)
		curve[k] = math.Round(odds*(1-houseEdge)*100) / 100
	}
	return curve
}
