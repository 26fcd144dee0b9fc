package enrichment

import "math"

// Weights maps each risk category to its contribution weight in the overall
// score.  Categories absent from the map fall back to DefaultWeights.
type Weights map[RiskCategoryName]float64

// DefaultWeights returns the production weight table.  Security-adjacent
// categories dominate; misinformation is discounted because it is the
// noisiest signal the model produces.
func DefaultWeights() Weights {
	return Weights{
		CategorySecurity:       1.5,
		CategoryConfidential:   1.3,
		CategoryPII:            1.2,
		CategoryDataLeakage:    1.1,
		CategoryCompliance:     1.0,
		CategoryMisinformation: 0.7,
	}
}

// Thresholds holds the inclusive lower bound of each risk tier above "none".
// Scores on a boundary resolve to the higher tier.
type Thresholds struct {
	Critical float64
	High     float64
	Medium   float64
	Low      float64
}

// DefaultThresholds returns the production tier table.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 80, High: 60, Medium: 40, Low: 20}
}

// Descending reports whether the tiers are strictly ordered and non-negative,
// the only shape under which LevelFor is well defined.
func (t Thresholds) Descending() bool {
	return t.Critical > t.High && t.High > t.Medium && t.Medium > t.Low && t.Low >= 0
}

// LevelFor maps a 0-100 score to a risk level through this tier table.
func (t Thresholds) LevelFor(score float64) RiskLevel {
	switch {
	case score >= t.Critical:
		return RiskLevelCritical
	case score >= t.High:
		return RiskLevelHigh
	case score >= t.Medium:
		return RiskLevelMedium
	case score >= t.Low:
		return RiskLevelLow
	default:
		return RiskLevelNone
	}
}

// LevelFromScore maps a 0-100 score to a risk level through the default tier
// table.
func LevelFromScore(score float64) RiskLevel {
	return DefaultThresholds().LevelFor(score)
}

// RiskScoreCalculator computes the overall risk score as a weighted average
// of the six category scores.  The model's own "overall" judgment is never
// consulted; this calculator is the system of record.
type RiskScoreCalculator struct {
	weights    Weights
	thresholds Thresholds
}

// NewRiskScoreCalculator builds a calculator from the supplied weight table
// and the default tier thresholds.  A nil or partial table is completed from
// DefaultWeights so every category always carries a positive weight.
func NewRiskScoreCalculator(weights Weights) *RiskScoreCalculator {
	return NewRiskScoreCalculatorWithThresholds(weights, DefaultThresholds())
}

// NewRiskScoreCalculatorWithThresholds additionally overrides the tier
// thresholds.  A table that is not strictly descending is replaced with
// DefaultThresholds so a bad override can degrade, never misorder, the tiers.
func NewRiskScoreCalculatorWithThresholds(weights Weights, thresholds Thresholds) *RiskScoreCalculator {
	merged := DefaultWeights()
	for name, w := range weights {
		if w > 0 {
			merged[name] = w
		}
	}
	if !thresholds.Descending() {
		thresholds = DefaultThresholds()
	}
	return &RiskScoreCalculator{weights: merged, thresholds: thresholds}
}

// Thresholds returns the tier table in effect.
func (c *RiskScoreCalculator) Thresholds() Thresholds {
	return c.thresholds
}

// OverallScore returns Σ(score·weight)/Σ(weight) over the six fixed
// categories, rounded to two decimal places.  Categories missing from cats
// contribute a zero score but their weight still counts, matching the
// validator's synthesize-as-zero convention.
func (c *RiskScoreCalculator) OverallScore(cats map[RiskCategoryName]RiskCategory) float64 {
	var weightedSum, weightSum float64
	for _, name := range AllRiskCategories() {
		w := c.weights[name]
		weightSum += w
		if cat, ok := cats[name]; ok {
			weightedSum += cat.Score * w
		}
	}
	if weightSum == 0 {
		return 0
	}
	return math.Round(weightedSum/weightSum*100) / 100
}

// OverallLevel is a convenience combining OverallScore and the calculator's
// tier table.
func (c *RiskScoreCalculator) OverallLevel(cats map[RiskCategoryName]RiskCategory) (float64, RiskLevel) {
	score := c.OverallScore(cats)
	return score, c.thresholds.LevelFor(score)
}
