package enrichment

import (
	"encoding/json"

	"github.com/promptdeck/promptdeck/pkg/errors"
)

// The validator is the trust boundary between the model and the rest of the
// system.  It consumes the repaired JSON text, decodes it into a raw map, and
// produces a fully shaped result: every required field present, every numeric
// value clamped into range, every enum re-derived when the model invented a
// value.  Missing or invalid fields are recovered with safe defaults rather
// than rejected; only undecodable JSON is an error.

// decodeObject parses text into a raw key/value map.  Returns
// ErrCodeEnrichMalformedResponse when the text is not a JSON object.
func decodeObject(text string) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEnrichMalformedResponse, "model response is not a JSON object")
	}
	return raw, nil
}

// ValidateClassification shapes a raw decoded map into a ClassificationResult.
// Quality and Feedback stay nil when the corresponding block is entirely
// absent; a block that is present but incomplete is zero-defaulted.
func ValidateClassification(raw map[string]interface{}) *ClassificationResult {
	result := &ClassificationResult{
		IsWorkRelated: getBool(raw, "is_work_related"),
		Theme:         getString(raw, "theme"),
		Intent:        getString(raw, "intent"),
	}

	if qualityRaw, ok := rawObject(raw, "quality"); ok {
		result.Quality = &QualityMetrics{
			QualityScore:       clampInt(getInt(qualityRaw, "quality_score"), 0, 100),
			ClarityScore:       clampInt(getInt(qualityRaw, "clarity_score"), 0, 5),
			ContextScore:       clampInt(getInt(qualityRaw, "context_score"), 0, 5),
			SpecificityScore:   clampInt(getInt(qualityRaw, "specificity_score"), 0, 5),
			ActionabilityScore: clampInt(getInt(qualityRaw, "actionability_score"), 0, 5),
		}
	}

	if feedbackRaw, ok := rawObject(raw, "feedback"); ok {
		result.Feedback = &Feedback{
			Summary:               getString(feedbackRaw, "summary"),
			Strengths:             getStringSlice(feedbackRaw, "strengths"),
			Improvements:          getStringSlice(feedbackRaw, "improvements"),
			ImprovedPromptExample: getString(feedbackRaw, "improved_prompt_example"),
		}
	}

	return result
}

// ValidateRiskAssessment shapes a raw decoded map into a RiskAssessmentResult
// with exactly the six fixed category keys.  Categories the model omitted are
// synthesized as {none, 0, false}; unknown category keys are dropped; invented
// level strings are re-derived from the score through the supplied tier table.
// The overall score and level are left zero here — the caller recomputes them
// via RiskScoreCalculator, which is the only source of truth for "overall".
func ValidateRiskAssessment(raw map[string]interface{}, thresholds Thresholds) *RiskAssessmentResult {
	result := &RiskAssessmentResult{
		Categories:  make(map[RiskCategoryName]RiskCategory, 6),
		RiskSummary: getStringSlice(raw, "risk_summary"),
	}

	catsRaw, _ := rawObject(raw, "categories")
	for _, name := range AllRiskCategories() {
		catRaw, ok := rawObject(catsRaw, string(name))
		if !ok {
			result.Categories[name] = RiskCategory{Level: RiskLevelNone}
			continue
		}

		score := clampFloat(getFloat(catRaw, "score"), 0, 100)
		level := RiskLevel(getString(catRaw, "level"))
		if !level.IsValid() {
			// The model invented a level; re-derive it from the score.
			level = thresholds.LevelFor(score)
		}

		result.Categories[name] = RiskCategory{
			Level:    level,
			Score:    score,
			Detected: getBool(catRaw, "detected"),
			Details:  getString(catRaw, "details"),
		}
	}

	return result
}

// --- raw map accessors -----------------------------------------------------
//
// encoding/json decodes every JSON number to float64 and every nested object
// to map[string]interface{}; the accessors below absorb wrong-typed values as
// zero rather than failing the whole result.

func rawObject(raw map[string]interface{}, key string) (map[string]interface{}, bool) {
	if raw == nil {
		return nil, false
	}
	obj, ok := raw[key].(map[string]interface{})
	return obj, ok
}

func getString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	s, _ := raw[key].(string)
	return s
}

func getBool(raw map[string]interface{}, key string) bool {
	if raw == nil {
		return false
	}
	b, _ := raw[key].(bool)
	return b
}

func getFloat(raw map[string]interface{}, key string) float64 {
	if raw == nil {
		return 0
	}
	switch v := raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func getInt(raw map[string]interface{}, key string) int {
	return int(getFloat(raw, key))
}

func getStringSlice(raw map[string]interface{}, key string) []string {
	out := []string{}
	if raw == nil {
		return out
	}
	items, ok := raw[key].([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
