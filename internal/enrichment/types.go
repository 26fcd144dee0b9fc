// Package enrichment implements the AI enrichment engine: LLM-backed content
// classification with quality scoring, and risk assessment across six fixed
// risk categories.  The engine is stateless; every call builds a prompt,
// invokes a model transport, repairs and validates the reply, and returns a
// fully populated result object.  Durability is the caller's concern.
package enrichment

// RiskLevel is the severity tier assigned to a risk category or to the
// overall assessment.
type RiskLevel string

const (
	RiskLevelNone     RiskLevel = "none"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// IsValid reports whether l is one of the five known levels.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelNone, RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// RiskCategoryName identifies one of the six fixed risk dimensions.  The set
// is closed: validation drops unknown keys from model output and synthesizes
// missing ones, so a result always carries exactly these six.
type RiskCategoryName string

const (
	CategoryPII            RiskCategoryName = "pii"
	CategorySecurity       RiskCategoryName = "security"
	CategoryConfidential   RiskCategoryName = "confidential"
	CategoryMisinformation RiskCategoryName = "misinformation"
	CategoryDataLeakage    RiskCategoryName = "data_leakage"
	CategoryCompliance     RiskCategoryName = "compliance"
)

// AllRiskCategories returns the six fixed category names in a stable order.
func AllRiskCategories() []RiskCategoryName {
	return []RiskCategoryName{
		CategoryPII,
		CategorySecurity,
		CategoryConfidential,
		CategoryMisinformation,
		CategoryDataLeakage,
		CategoryCompliance,
	}
}

// QualityMetrics scores the quality of a user's prompt.  QualityScore is on a
// 0-100 scale; the four sub-scores are on a 0-5 scale.  After validation all
// five fields are always populated (zero when the model omitted them).
type QualityMetrics struct {
	QualityScore       int `json:"quality_score"`
	ClarityScore       int `json:"clarity_score"`
	ContextScore       int `json:"context_score"`
	SpecificityScore   int `json:"specificity_score"`
	ActionabilityScore int `json:"actionability_score"`
}

// Feedback is the model's qualitative commentary on a prompt.  Strengths and
// Improvements are never nil after validation.
type Feedback struct {
	Summary               string   `json:"summary"`
	Strengths             []string `json:"strengths"`
	Improvements          []string `json:"improvements"`
	ImprovedPromptExample string   `json:"improved_prompt_example,omitempty"`
}

// ClassificationResult is the structured judgment produced by the
// classification pipeline.  Quality and Feedback are nil when the model's
// reply contained no corresponding block at all; a present-but-incomplete
// block is zero-defaulted instead.
type ClassificationResult struct {
	IsWorkRelated    bool            `json:"is_work_related"`
	Theme            string          `json:"theme"`
	Intent           string          `json:"intent"`
	Quality          *QualityMetrics `json:"quality,omitempty"`
	Feedback         *Feedback       `json:"feedback,omitempty"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	ModelUsed        string          `json:"model_used"`
}

// RiskCategory is the judgment for a single risk dimension.
type RiskCategory struct {
	Level    RiskLevel `json:"level"`
	Score    float64   `json:"score"`
	Detected bool      `json:"detected"`
	Details  string    `json:"details,omitempty"`
}

// RiskAssessmentResult is the structured judgment produced by the risk
// pipeline.  OverallRiskScore and OverallRiskLevel are always recomputed
// locally from the six category scores; the model's own "overall" opinion is
// discarded.
type RiskAssessmentResult struct {
	OverallRiskLevel RiskLevel                         `json:"overall_risk_level"`
	OverallRiskScore float64                           `json:"overall_risk_score"`
	Categories       map[RiskCategoryName]RiskCategory `json:"categories"`
	RiskSummary      []string                          `json:"risk_summary"`
	ProcessingTimeMs int64                             `json:"processing_time_ms"`
	ModelUsed        string                            `json:"model_used"`
}

// ClassificationInput is one unit of work for the classification pipeline.
// CorrelationID is the caller-supplied identifier (e.g., the provider's chat
// or message id) echoed back on batch results and used for deduplication.
type ClassificationInput struct {
	CorrelationID     string `json:"correlation_id"`
	UserMessage       string `json:"user_message"`
	AssistantResponse string `json:"assistant_response,omitempty"`
}

// RiskInput is one unit of work for the risk-assessment pipeline.
type RiskInput struct {
	CorrelationID string            `json:"correlation_id"`
	Content       string            `json:"content"`
	Role          string            `json:"role"`
	Context       map[string]string `json:"context,omitempty"`
}

// BatchItemResult wraps one item's outcome inside a batch response.  Exactly
// one of Data and Error is set; Success discriminates.  The slice returned by
// a batch operation preserves input order and always has one entry per input
// item.
type BatchItemResult[T any] struct {
	CorrelationID string `json:"correlation_id"`
	Success       bool   `json:"success"`
	Data          *T     `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
}
