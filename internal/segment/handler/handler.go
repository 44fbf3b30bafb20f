package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"insighthub/internal/segment/models"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context) ([]*models.Segment, error)
	Overview(ctx context.Context) (*models.Overview, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/segments", h.handleList)
	r.Get("/segments/overview", h.handleOverview)
}

type listResponse struct {
	Segments []*models.Segment `json:"segments"`
	Count    int               `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	segments, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		httputil.WriteJSON(w, http.StatusOK, listResponse{Segments: segments, Count: len(segments)})
		return
	}
	rows := make([][]string, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, seg.CSVRecord())
	}
	if err := httputil.WriteCSV(w, "combined_risk_segments.csv", models.CSVHeader(), rows); err != nil {
		h.logger.WarnContext(ctx, "segment export interrupted",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ov)
}
