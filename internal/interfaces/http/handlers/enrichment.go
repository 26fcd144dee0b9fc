package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	engine "github.com/promptdeck/promptdeck/internal/enrichment"
	"github.com/promptdeck/promptdeck/internal/infrastructure/database/postgres"
	"github.com/promptdeck/promptdeck/internal/interfaces/http/middleware"
)

// EnrichmentService is the application facade consumed by the handlers.
type EnrichmentService interface {
	Classify(ctx context.Context, orgID string, input engine.ClassificationInput) (*engine.ClassificationResult, error)
	AssessRisk(ctx context.Context, orgID string, input engine.RiskInput) (*engine.RiskAssessmentResult, error)
	ClassifyBatch(ctx context.Context, orgID string, items []engine.ClassificationInput) ([]engine.BatchItemResult[engine.ClassificationResult], error)
	AssessRiskBatch(ctx context.Context, orgID string, items []engine.RiskInput) ([]engine.BatchItemResult[engine.RiskAssessmentResult], error)
	RecentResults(ctx context.Context, orgID, kind string, limit int) ([]postgres.StoredEnrichment, error)
}

// EnrichmentHandler serves the /api/v1/enrichment routes.
type EnrichmentHandler struct {
	service EnrichmentService
}

// NewEnrichmentHandler builds the handler.
func NewEnrichmentHandler(service EnrichmentService) *EnrichmentHandler {
	return &EnrichmentHandler{service: service}
}

// Register mounts the enrichment routes on the given group.
func (h *EnrichmentHandler) Register(group *gin.RouterGroup) {
	group.POST("/classify", h.classify)
	group.POST("/classify/batch", h.classifyBatch)
	group.POST("/risk", h.assessRisk)
	group.POST("/risk/batch", h.assessRiskBatch)
	group.GET("/results", h.recentResults)
}

type classifyRequest struct {
	CorrelationID     string `json:"correlation_id"`
	UserMessage       string `json:"user_message" binding:"required"`
	AssistantResponse string `json:"assistant_response"`
}

func (r classifyRequest) toInput() engine.ClassificationInput {
	return engine.ClassificationInput{
		CorrelationID:     r.CorrelationID,
		UserMessage:       r.UserMessage,
		AssistantResponse: r.AssistantResponse,
	}
}

func (h *EnrichmentHandler) classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.service.Classify(c.Request.Context(), c.GetString(middleware.CtxKeyOrgID), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type classifyBatchRequest struct {
	Items []classifyRequest `json:"items" binding:"required"`
}

func (h *EnrichmentHandler) classifyBatch(c *gin.Context) {
	var req classifyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	items := make([]engine.ClassificationInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.toInput()
	}

	results, err := h.service.ClassifyBatch(c.Request.Context(), c.GetString(middleware.CtxKeyOrgID), items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type riskRequest struct {
	CorrelationID string            `json:"correlation_id"`
	Content       string            `json:"content" binding:"required"`
	Role          string            `json:"role" binding:"required"`
	Context       map[string]string `json:"context"`
}

func (r riskRequest) toInput() engine.RiskInput {
	return engine.RiskInput{
		CorrelationID: r.CorrelationID,
		Content:       r.Content,
		Role:          r.Role,
		Context:       r.Context,
	}
}

func (h *EnrichmentHandler) assessRisk(c *gin.Context) {
	var req riskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.service.AssessRisk(c.Request.Context(), c.GetString(middleware.CtxKeyOrgID), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type riskBatchRequest struct {
	Items []riskRequest `json:"items" binding:"required"`
}

func (h *EnrichmentHandler) assessRiskBatch(c *gin.Context) {
	var req riskBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	items := make([]engine.RiskInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.toInput()
	}

	results, err := h.service.AssessRiskBatch(c.Request.Context(), c.GetString(middleware.CtxKeyOrgID), items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *EnrichmentHandler) recentResults(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		limit = parsed
	}

	stored, err := h.service.RecentResults(c.Request.Context(), c.GetString(middleware.CtxKeyOrgID), c.Query("kind"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if stored == nil {
		stored = []postgres.StoredEnrichment{}
	}
	c.JSON(http.StatusOK, gin.H{"results": stored})
}
