package enrichment

import (
	"context"
	"strings"
	"time"

	"github.com/promptdeck/promptdeck/internal/enrichment/transport"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// RiskAssessmentService runs the risk pipeline.  It shares the call, retry,
// repair, and validate stages with classification, then recomputes the
// overall score locally from the six category scores.
type RiskAssessmentService struct {
	transport  transport.ModelTransport
	calculator *RiskScoreCalculator
	cfg        ServiceConfig
	log        logging.Logger
}

// NewRiskAssessmentService wires a risk pipeline around the given transport
// and score calculator.  A nil calculator gets default weights.
func NewRiskAssessmentService(tr transport.ModelTransport, calc *RiskScoreCalculator, cfg ServiceConfig, log logging.Logger) *RiskAssessmentService {
	if calc == nil {
		calc = NewRiskScoreCalculator(nil)
	}
	return &RiskAssessmentService{
		transport:  tr,
		calculator: calc,
		cfg:        cfg,
		log:        log.Named("enrichment.risk"),
	}
}

// AssessRisk produces a RiskAssessmentResult for one piece of content.
// Returns ErrCodeEnrichEmptyInput when the content is blank, and
// ErrCodeEnrichRiskFailed wrapping the last cause when the retry budget is
// spent.
func (s *RiskAssessmentService) AssessRisk(ctx context.Context, content, role string, contextInfo map[string]string) (*RiskAssessmentResult, error) {
	start := time.Now()

	if strings.TrimSpace(content) == "" {
		return nil, errors.New(errors.ErrCodeEnrichEmptyInput, "content is empty")
	}

	prompt := buildRiskPrompt(Truncate(content, s.cfg.MaxContentLength), role, contextInfo)

	raw, err := invokeAndDecode(ctx, s.transport, prompt, s.cfg.policy(), s.log)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEnrichRiskFailed, "risk assessment failed")
	}

	result := ValidateRiskAssessment(raw, s.calculator.Thresholds())
	result.OverallRiskScore, result.OverallRiskLevel = s.calculator.OverallLevel(result.Categories)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	result.ModelUsed = s.cfg.Model

	s.log.Debug("risk assessed",
		logging.String("overall_level", string(result.OverallRiskLevel)),
		logging.Float64("overall_score", result.OverallRiskScore),
		logging.Int64("processing_time_ms", result.ProcessingTimeMs),
	)
	return result, nil
}
