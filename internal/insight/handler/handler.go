package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"insighthub/internal/insight/models"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
)

type Service interface {
	ListCurrent(ctx context.Context, category string) ([]*models.Insight, error)
	RequestExplanation(ctx context.Context, req models.ExplanationRequest) (*models.Explanation, error)
	GenerateAll(ctx context.Context) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/insights", h.handleList)
	r.Get("/insights/options", h.handleOptions)
	r.Post("/insights/explain", h.handleExplain)
	r.Post("/insights/generate", h.handleGenerateAll)
}

type listResponse struct {
	Insights []*models.Insight `json:"insights"`
	Count    int               `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListCurrent(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Insights: out, Count: len(out)})
}

type optionsResponse struct {
	AgeGroups []models.AgeGroup `json:"age_groups"`
	Regions   []models.Region   `json:"regions"`
}

// handleOptions lists the accepted enum values for the explanation form.
func (h *Handler) handleOptions(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, optionsResponse{AgeGroups: models.AgeGroups(), Regions: models.Regions()})
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.ExplanationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.service.RequestExplanation(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.GenerateAll(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "completed"})
}
