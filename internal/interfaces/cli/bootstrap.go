package cli

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/promptdeck/promptdeck/internal/config"
	engine "github.com/promptdeck/promptdeck/internal/enrichment"
	"github.com/promptdeck/promptdeck/internal/enrichment/transport"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	prommetrics "github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/prometheus"
)

// loadConfig resolves configuration from the --config flag, search paths,
// and environment.
func loadConfig() (*config.AppConfig, error) {
	return config.Load(cfgFile)
}

// buildLogger constructs the root logger and installs it as the process
// default.
func buildLogger(cfg *config.AppConfig) (logging.Logger, error) {
	log, err := logging.NewLogger(cfg.Log.ToLoggingConfig())
	if err != nil {
		return nil, err
	}
	logging.SetDefault(log)
	return log, nil
}

// buildTransport selects the model transport from configuration.
func buildTransport(cfg config.EnrichmentConfig, log logging.Logger) transport.ModelTransport {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	if cfg.TransportMode == "assistant" {
		return transport.NewAssistantTransport(client, transport.AssistantConfig{
			AssistantID:  cfg.AssistantID,
			PollInterval: cfg.PollInterval,
		}, log)
	}
	return transport.NewCompletionTransport(client, transport.CompletionConfig{
		Model:           cfg.Model,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}, log)
}

// enrichmentEngine bundles the three engine components one bootstrap builds.
type enrichmentEngine struct {
	classifier *engine.ClassificationService
	risk       *engine.RiskAssessmentService
	batch      *engine.BatchOrchestrator
}

// buildEngine wires the enrichment engine.  metrics may be nil (ad-hoc CLI
// commands run without a metrics endpoint).
func buildEngine(cfg config.EnrichmentConfig, metrics *prommetrics.Metrics, log logging.Logger) *enrichmentEngine {
	base := engine.ServiceConfig{
		Model:            cfg.Model,
		MaxContentLength: cfg.MaxContentLength,
		MaxPromptLength:  cfg.MaxPromptLength,
		MaxRetries:       cfg.MaxRetries,
		RetryDelay:       cfg.RetryDelay,
		CallTimeout:      cfg.CallTimeout,
	}

	classifyCfg := base
	riskCfg := base
	if metrics != nil {
		classifyCfg.OnRetry = func(int) { metrics.RetriesTotal.WithLabelValues("classification").Inc() }
		riskCfg.OnRetry = func(int) { metrics.RetriesTotal.WithLabelValues("risk_assessment").Inc() }
	}

	weights := make(engine.Weights, len(cfg.RiskWeights))
	for name, w := range cfg.RiskWeights {
		weights[engine.RiskCategoryName(name)] = w
	}
	calc := engine.NewRiskScoreCalculatorWithThresholds(weights, engine.Thresholds{
		Critical: cfg.RiskThresholds.Critical,
		High:     cfg.RiskThresholds.High,
		Medium:   cfg.RiskThresholds.Medium,
		Low:      cfg.RiskThresholds.Low,
	})

	tr := buildTransport(cfg, log)
	classifier := engine.NewClassificationService(tr, classifyCfg, log)
	risk := engine.NewRiskAssessmentService(tr, calc, riskCfg, log)
	batch := engine.NewBatchOrchestrator(classifier, risk, engine.BatchConfig{
		ClassifyLimit:       cfg.ClassifyBatchLimit,
		RiskLimit:           cfg.RiskBatchLimit,
		ClassifyConcurrency: cfg.ClassifyConcurrency,
		RiskConcurrency:     cfg.RiskConcurrency,
	}, log)

	return &enrichmentEngine{classifier: classifier, risk: risk, batch: batch}
}
