// Package handler exposes reporting endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/report"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// Service defines the reporting operations the handler depends on.
type Service interface {
	Certificate(ctx context.Context, verificationID string) (string, error)
	Internal(ctx context.Context, verificationID string) (report.InternalReport, error)
	Summary(ctx context.Context, start, end time.Time) (report.ComplianceSummary, error)
}

// Handler handles reporting endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a reporting Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the reporting routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reports/summary", h.handleSummary)
	r.Get("/reports/{verificationID}", h.handleInternal)
	r.Get("/reports/{verificationID}/certificate", h.handleCertificate)
}

func (h *Handler) handleInternal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rep, err := h.service.Internal(ctx, chi.URLParam(r, "verificationID"))
	if err != nil {
		h.writeFailure(ctx, w, "internal report failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cert, err := h.service.Certificate(ctx, chi.URLParam(r, "verificationID"))
	if err != nil {
		h.writeFailure(ctx, w, "certificate failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(cert))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, err := parseDate(r.URL.Query().Get("start"), time.Time{})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"), time.Now().UTC())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.Summary(ctx, start, end)
	if err != nil {
		h.writeFailure(ctx, w, "compliance summary failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "invalid date: "+s)
	}
	return t, nil
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
