package handler

import (
	"smallcap-radar/internal/domain"
	"smallcap-radar/internal/job"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ScanStatus is the read-only view of the scanner the HTTP surface exposes.
type ScanStatus interface {
	LastCycle() job.CycleStats
	LastCandidates() []domain.Candidate
}

type Handler struct {
	tracer trace.Tracer
	scan   ScanStatus
}

func New(tracer trace.Tracer, scan ScanStatus) *Handler {
	return &Handler{tracer: tracer, scan: scan}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/status", h.Status)
	api.GET("/candidates", h.Candidates)
}
