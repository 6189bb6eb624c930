package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/structflo/structflo-ner/internal/application/annotation"
)

// GazetteerHandler serves dictionary inspection and reload endpoints.
type GazetteerHandler struct {
	svc *annotation.Service
}

// NewGazetteerHandler constructs a GazetteerHandler.
func NewGazetteerHandler(svc *annotation.Service) *GazetteerHandler {
	return &GazetteerHandler{svc: svc}
}

// Summary handles GET /api/v1/gazetteers.
func (h *GazetteerHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Summary())
}

// Reload handles POST /api/v1/gazetteers/reload.
func (h *GazetteerHandler) Reload(c *gin.Context) {
	if err := h.svc.Reload(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Summary())
}
