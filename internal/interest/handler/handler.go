// Package handler exposes the interest ledger over HTTP: tenants register
// and list interests, owners work through their queue.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentmeroom/internal/access"
	"rentmeroom/internal/interest/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/platform/validation"
	"rentmeroom/pkg/requestcontext"
)

// Service is the interest use-case surface the handler depends on.
type Service interface {
	MarkInterested(ctx context.Context, caller access.Identity, roomID id.RoomID, message string) (*models.MyInterest, error)
	ListMyInterests(ctx context.Context, caller access.Identity) ([]models.MyInterest, error)
	ListOwnerQueue(ctx context.Context, caller access.Identity) ([]models.QueueGroup, error)
	MarkContacted(ctx context.Context, caller access.Identity, interestID id.InterestID) (*models.Interest, error)
	DeleteInterest(ctx context.Context, caller access.Identity, interestID id.InterestID) error
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	authenticate func(http.Handler) http.Handler
	limitWrites  func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithWriteRateLimit guards interest creation.
func WithWriteRateLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if mw != nil {
			h.limitWrites = mw
		}
	}
}

// New builds the handler. authenticate must resolve the caller identity.
func New(service Service, logger *slog.Logger, authenticate func(http.Handler) http.Handler, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		logger:       logger,
		authenticate: authenticate,
		limitWrites:  func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.With(h.limitWrites).Post("/interests", h.handleMark)
		r.Get("/interests", h.handleListMine)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Use(access.Require(access.RoleOwner, true, h.logger))
		r.Get("/owner/interests", h.handleQueue)
		r.Put("/owner/interests/{id}/contacted", h.handleContacted)
		r.Delete("/owner/interests/{id}", h.handleDelete)
	})
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	var req markInterestRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid request body", err)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.fail(w, r, "request validation failed", err)
		return
	}
	roomID, err := id.ParseRoomID(req.RoomID)
	if err != nil {
		h.fail(w, r, "invalid room id", err)
		return
	}
	interest, err := h.service.MarkInterested(r.Context(), access.FromContext(r.Context()), roomID, req.Message)
	if err != nil {
		h.fail(w, r, "failed to record interest", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, interest)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	interests, err := h.service.ListMyInterests(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "failed to list interests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, interestsResponse{Interests: interests})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListOwnerQueue(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "failed to load interest queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, queueResponse{Rooms: groups})
}

func (h *Handler) handleContacted(w http.ResponseWriter, r *http.Request) {
	interestID, ok := h.interestIDParam(w, r)
	if !ok {
		return
	}
	interest, err := h.service.MarkContacted(r.Context(), access.FromContext(r.Context()), interestID)
	if err != nil {
		h.fail(w, r, "failed to mark interest contacted", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toInterestResponse(interest))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	interestID, ok := h.interestIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteInterest(r.Context(), access.FromContext(r.Context()), interestID); err != nil {
		h.fail(w, r, "failed to delete interest", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) interestIDParam(w http.ResponseWriter, r *http.Request) (id.InterestID, bool) {
	interestID, err := id.ParseInterestID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "invalid interest id", err)
		return id.InterestID{}, false
	}
	return interestID, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
