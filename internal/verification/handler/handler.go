// Package handler exposes the verification pipeline over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/audit"
	"veridoc/internal/verification"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// Service defines the verification operations the handler depends on.
type Service interface {
	Verify(ctx context.Context, req verification.VerifyRequest) (verification.Verification, error)
	Get(ctx context.Context, id string) (verification.Verification, error)
	List(ctx context.Context, customerID string) ([]verification.Verification, error)
	Trail(ctx context.Context, id string) ([]audit.Entry, error)
}

// Handler handles verification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a verification Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.handleVerify)
	r.Get("/verifications", h.handleList)
	r.Get("/verifications/{id}", h.handleGet)
	r.Get("/verifications/{id}/audit", h.handleTrail)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[verification.VerifyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.Verify(ctx, req)
	if err != nil {
		h.writeFailure(ctx, w, "verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	v, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "verification lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.List(ctx, r.URL.Query().Get("customer_id"))
	if err != nil {
		h.writeFailure(ctx, w, "verification list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"verifications": list})
}

func (h *Handler) handleTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	trail, err := h.service.Trail(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "audit trail lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"trail": trail})
}

// writeFailure logs the error at the right level and writes the translated
// response. Expected client errors stay at warn; everything else is an error
// with full detail server-side only.
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
