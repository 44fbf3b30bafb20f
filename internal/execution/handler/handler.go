package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"insighthub/internal/execution/service"
	"insighthub/internal/warehouse"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
)

type Gateway interface {
	Execute(ctx context.Context, req service.Request) (*service.Result, error)
}

type Handler struct {
	gateway Gateway
	logger  *slog.Logger
}

func New(gateway Gateway, logger *slog.Logger) *Handler {
	return &Handler{gateway: gateway, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/playbooks/{playbookID}/execute", h.handleExecute)
}

// ExecuteRequest carries the business purpose. Blank purposes are rejected by
// the gateway so the rule lives in one place.
type ExecuteRequest struct {
	Purpose string `json:"purpose" validate:"max=1000"`
}

func (r *ExecuteRequest) Validate() error {
	r.Purpose = strings.TrimSpace(r.Purpose)
	return nil
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ExecuteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.gateway.Execute(ctx, service.Request{
		PlaybookID:   chi.URLParam(r, "playbookID"),
		Purpose:      req.Purpose,
		Principal:    requestcontext.Principal(ctx),
		Organization: requestcontext.Organization(ctx),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "playbook execution failed",
			"request_id", requestID,
			"playbook_id", chi.URLParam(r, "playbookID"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if wantsCSV(r) {
		rs := &warehouse.ResultSet{Columns: res.Columns, Rows: res.Rows}
		w.Header().Set("X-Audit-ID", res.AuditID.String())
		if err := httputil.WriteCSV(w, csvFilename(res.PlaybookName), res.Columns, rs.StringRows()); err != nil {
			h.logger.WarnContext(ctx, "result export interrupted", "request_id", requestID, "error", err)
		}
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv" || strings.Contains(r.Header.Get("Accept"), "text/csv")
}

func csvFilename(playbookName string) string {
	return strings.ReplaceAll(playbookName, " ", "_") + ".csv"
}
