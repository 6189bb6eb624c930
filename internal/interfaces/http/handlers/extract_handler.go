package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/structflo/structflo-ner/internal/application/annotation"
	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// ExtractRequest is the single-document request body.
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractResponse is the single-document response body.
type ExtractResponse struct {
	Entities []ner.Match `json:"entities"`
	Count    int         `json:"count"`
	Cached   bool        `json:"cached"`
}

// BatchExtractRequest is the batch request body.
type BatchExtractRequest struct {
	Texts []string `json:"texts"`
}

// BatchExtractResponse is the batch response body; results align with the
// request texts by index.
type BatchExtractResponse struct {
	Results []ExtractResponse `json:"results"`
}

// ExtractHandler serves the extraction endpoints.
type ExtractHandler struct {
	svc *annotation.Service
}

// NewExtractHandler constructs an ExtractHandler.
func NewExtractHandler(svc *annotation.Service) *ExtractHandler {
	return &ExtractHandler{svc: svc}
}

// Extract handles POST /api/v1/extract.
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "malformed request body"))
		return
	}

	result, cached, err := h.svc.Extract(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{
		Entities: result.Entities,
		Count:    len(result.Entities),
		Cached:   cached,
	})
}

// ExtractBatch handles POST /api/v1/extract/batch.
func (h *ExtractHandler) ExtractBatch(c *gin.Context) {
	var req BatchExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "malformed request body"))
		return
	}

	results, err := h.svc.ExtractBatch(c.Request.Context(), req.Texts)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := BatchExtractResponse{Results: make([]ExtractResponse, len(results))}
	for i, r := range results {
		resp.Results[i] = ExtractResponse{Entities: r.Entities, Count: len(r.Entities)}
	}
	c.JSON(http.StatusOK, resp)
}
