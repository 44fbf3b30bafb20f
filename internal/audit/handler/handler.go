package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"insighthub/internal/audit/models"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
)

type Service interface {
	Query(ctx context.Context, f models.Filter) ([]*models.ExecutionAttempt, error)
	Summary(ctx context.Context) (*models.Summary, error)
}

// Handler serves the audit trail.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleList)
	r.Get("/audit/summary", h.handleSummary)
	r.Get("/audit/export", h.handleExport)
}

type listResponse struct {
	Records []*models.ExecutionAttempt `json:"records"`
	Count   int                        `json:"count"`
	Offset  int                        `json:"offset"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.Query(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to query audit log",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Records: records,
		Count:   len(records),
		Offset:  filter.Offset,
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.Query(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.CSVRecord())
	}
	filename := fmt.Sprintf("audit_log_%s.csv", requestcontext.Now(ctx).UTC().Format("20060102_150405"))
	if err := httputil.WriteCSV(w, filename, models.CSVHeader(), rows); err != nil {
		h.logger.WarnContext(ctx, "audit export interrupted",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func parseFilter(q url.Values) (models.Filter, error) {
	status, err := models.ParseStatus(q.Get("status"))
	if err != nil {
		return models.Filter{}, err
	}
	limit, err := optionalInt(q, "limit")
	if err != nil {
		return models.Filter{}, err
	}
	offset, err := optionalInt(q, "offset")
	if err != nil {
		return models.Filter{}, err
	}
	return models.Filter{Status: status, Search: q.Get("search"), Limit: limit, Offset: offset}, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidParameter, key+" must be a non-negative integer")
	}
	return n, nil
}
