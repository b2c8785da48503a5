package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status returns the most recent cycle's stats.
func (h *Handler) Status(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.status")
	defer span.End()

	c.JSON(http.StatusOK, h.scan.LastCycle())
}

// Candidates returns the passing candidates from the most recent cycle.
func (h *Handler) Candidates(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.candidates")
	defer span.End()

	candidates := h.scan.LastCandidates()
	c.JSON(http.StatusOK, gin.H{
		"count":      len(candidates),
		"candidates": candidates,
	})
}
