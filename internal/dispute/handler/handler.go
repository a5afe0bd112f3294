// Package handler exposes the dispute lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/audit"
	"veridoc/internal/dispute"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// Service defines the dispute operations the handler depends on.
type Service interface {
	Create(ctx context.Context, req dispute.CreateRequest) (dispute.Dispute, error)
	Triage(ctx context.Context, id string) (dispute.Dispute, error)
	ReVerify(ctx context.Context, id string) (dispute.Dispute, error)
	Resolve(ctx context.Context, id string, req dispute.ResolveRequest) (dispute.Dispute, error)
	Get(ctx context.Context, id string) (dispute.Dispute, error)
	Trail(ctx context.Context, id string) ([]audit.Entry, error)
	ResolutionLetter(ctx context.Context, id string) (string, error)
	GetAnalytics(ctx context.Context) (dispute.Analytics, error)
}

// Handler handles dispute endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a dispute Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the dispute routes. The static analytics route is mounted
// before the {id} routes so it is never captured as an ID.
func (h *Handler) Register(r chi.Router) {
	r.Post("/disputes", h.handleCreate)
	r.Get("/disputes/analytics", h.handleAnalytics)
	r.Get("/disputes/{id}", h.handleGet)
	r.Post("/disputes/{id}/triage", h.handleTriage)
	r.Post("/disputes/{id}/reverify", h.handleReVerify)
	r.Post("/disputes/{id}/resolve", h.handleResolve)
	r.Get("/disputes/{id}/letter", h.handleLetter)
	r.Get("/disputes/{id}/audit", h.handleTrail)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[dispute.CreateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeFailure(ctx, w, "dispute creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "dispute lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleTriage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := h.service.Triage(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "dispute triage failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleReVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := h.service.ReVerify(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "dispute re-verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[dispute.ResolveRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.service.Resolve(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeFailure(ctx, w, "dispute resolution failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	letter, err := h.service.ResolutionLetter(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "resolution letter failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(letter))
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

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := h.service.GetAnalytics(ctx)
	if err != nil {
		h.writeFailure(ctx, w, "dispute analytics failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
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
