package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"insighthub/internal/alert/detector"
	"insighthub/internal/alert/models"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
)

type Service interface {
	ListOpen(ctx context.Context) ([]*models.Alert, error)
	SeverityCounts(ctx context.Context) (models.SeverityCounts, error)
	Acknowledge(ctx context.Context, alertID string) (*models.Alert, error)
	TriggerDetection(ctx context.Context) (*detector.Receipt, error)
}

// Handler exposes alert triage.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/alerts", h.handleListOpen)
	r.Get("/alerts/counts", h.handleCounts)
	r.Post("/alerts/detect", h.handleDetect)
	r.Post("/alerts/{alertID}/acknowledge", h.handleAcknowledge)
}

type listResponse struct {
	Alerts []*models.Alert `json:"alerts"`
	Count  int             `json:"count"`
}

func (h *Handler) handleListOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alerts, err := h.service.ListOpen(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list open alerts",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Alerts: alerts, Count: len(alerts)})
}

func (h *Handler) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.SeverityCounts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Acknowledge(r.Context(), chi.URLParam(r, "alertID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

// handleDetect returns 202: alerts show up on a later listing, not in this response.
func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	receipt, err := h.service.TriggerDetection(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "detection trigger failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, receipt)
}
