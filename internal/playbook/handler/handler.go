package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"insighthub/internal/playbook/models"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
)

// Service is the catalog surface the handler needs.
type Service interface {
	ListActive(ctx context.Context, category string) ([]*models.Playbook, error)
	Get(ctx context.Context, id string) (*models.Playbook, error)
	Categories(ctx context.Context) ([]string, error)
}

// Handler serves the playbook catalog.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the catalog routes. Execution lives in the execution handler.
func (h *Handler) Register(r chi.Router) {
	r.Get("/playbooks", h.handleList)
	r.Get("/playbooks/categories", h.handleCategories)
	r.Get("/playbooks/{playbookID}", h.handleGet)
}

type listResponse struct {
	Playbooks []*models.Playbook `json:"playbooks"`
	Count     int                `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playbooks, err := h.service.ListActive(ctx, r.URL.Query().Get("category"))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list playbooks",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Playbooks: playbooks, Count: len(playbooks)})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"categories": cats})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "playbookID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
