package validation

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sammathaik/flatfundpro/pkg/common"
)

// ServiceInterface defines the pipeline operations used by the handler
type ServiceInterface interface {
	AnalyzeImage(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)
	ValidateProof(ctx context.Context, req ValidateRequest) (*ValidateResponse, error)
	GetAnalysis(ctx context.Context, paymentSubmissionID string) (*ImageFraudAnalysis, error)
}

// Handler handles HTTP requests for payment-proof validation
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new validation handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// AnalyzeImage runs the fraud-analysis pipeline for a submission
func (h *Handler) AnalyzeImage(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.AnalyzeImage(c.Request.Context(), req)
	if err != nil {
		common.ErrorResponse(c, common.StatusCode(err), "failed to analyze payment image")
		return
	}

	common.SuccessResponse(c, result)
}

// ValidateProof runs the OCR and decision pipeline for a submission
func (h *Handler) ValidateProof(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ValidateProof(c.Request.Context(), req)
	if err != nil {
		common.ErrorResponse(c, common.StatusCode(err), "failed to validate payment proof")
		return
	}

	common.SuccessResponse(c, result)
}

// GetAnalysis returns the stored fraud analysis for a submission
func (h *Handler) GetAnalysis(c *gin.Context) {
	paymentSubmissionID := c.Param("payment_submission_id")
	if paymentSubmissionID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "payment_submission_id is required")
		return
	}

	analysis, err := h.service.GetAnalysis(c.Request.Context(), paymentSubmissionID)
	if err != nil {
		common.ErrorResponse(c, common.StatusCode(err), "failed to get fraud analysis")
		return
	}

	common.SuccessResponse(c, analysis)
}

// RegisterRoutes mounts the validation endpoints on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	proofs := rg.Group("/payment-proofs")
	{
		proofs.POST("/analyze", h.AnalyzeImage)
		proofs.POST("/validate", h.ValidateProof)
		proofs.GET("/:payment_submission_id/analysis", h.GetAnalysis)
	}
}
