// Package handler exposes room listings, search, owner management and
// moderation over HTTP.
package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentmeroom/internal/access"
	"rentmeroom/internal/listing/models"
	"rentmeroom/internal/platform/upload"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/requestcontext"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service is the listing use-case surface the handler depends on.
type Service interface {
	CreateListing(ctx context.Context, caller access.Identity, draft models.Draft) (*models.Room, error)
	ListPublic(ctx context.Context, page, limit int) (*models.Page[models.PublicRoom], error)
	GetPublic(ctx context.Context, roomID id.RoomID) (*models.PublicRoom, error)
	Search(ctx context.Context, f models.SearchFilter) (*models.Page[models.PublicRoom], error)
	UpdateListing(ctx context.Context, caller access.Identity, roomID id.RoomID, patch models.Patch) (*models.Room, error)
	DeleteListing(ctx context.Context, caller access.Identity, roomID id.RoomID) error
	ListOwnerRooms(ctx context.Context, caller access.Identity) ([]models.OwnerRoom, error)
	GetOwnerRoom(ctx context.Context, caller access.Identity, roomID id.RoomID) (*models.OwnerRoom, error)
	AdminListAll(ctx context.Context, caller access.Identity, f models.AdminFilter) (*models.Page[models.OwnerRoom], error)
	AdminGetByID(ctx context.Context, caller access.Identity, roomID id.RoomID) (*models.OwnerRoom, error)
	VerifyRoom(ctx context.Context, caller access.Identity, roomID id.RoomID) (*models.Room, error)
	ExportXLSX(ctx context.Context, caller access.Identity, f models.AdminFilter, w io.Writer) error
}

type Handler struct {
	service        Service
	logger         *slog.Logger
	authenticate   func(http.Handler) http.Handler
	maxUploadBytes int64
}

// New builds the handler. authenticate must resolve the caller identity.
func New(service Service, logger *slog.Logger, authenticate func(http.Handler) http.Handler, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		logger:         logger,
		authenticate:   authenticate,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/rooms", h.handleListPublic)
	r.Get("/rooms/search", h.handleSearch)
	r.Get("/rooms/{id}", h.handleGetPublic)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Use(access.Require(access.RoleOwner, true, h.logger))
		r.Post("/rooms", h.handleCreate)
		r.Put("/rooms/{id}", h.handleUpdate)
		r.Get("/owner/rooms", h.handleListOwner)
		r.Get("/owner/rooms/{id}", h.handleGetOwner)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Use(access.RequireAny(h.logger,
			access.Rule{Role: access.RoleOwner, RequireVerified: true},
			access.Rule{Role: access.RoleAdmin},
		))
		r.Delete("/rooms/{id}", h.handleDelete)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Use(access.Require(access.RoleAdmin, false, h.logger))
		r.Get("/admin/rooms", h.handleAdminList)
		r.Get("/admin/rooms/export", h.handleExport)
		r.Get("/admin/rooms/{id}", h.handleAdminGet)
		r.Put("/admin/rooms/{id}/verify", h.handleVerify)
	})
}

func (h *Handler) handleListPublic(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListPublic(r.Context(), httputil.QueryInt(r, "page", 1), httputil.QueryInt(r, "limit", 10))
	if err != nil {
		h.fail(w, r, "failed to list rooms", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	f, err := parseSearch(r)
	if err != nil {
		h.fail(w, r, "invalid search", err)
		return
	}
	page, err := h.service.Search(r.Context(), f)
	if err != nil {
		h.fail(w, r, "search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetPublic(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomIDParam(w, r)
	if !ok {
		return
	}
	room, err := h.service.GetPublic(r.Context(), roomID)
	if err != nil {
		h.fail(w, r, "failed to load room", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := upload.Parse(w, r, h.maxUploadBytes); err != nil {
		h.fail(w, r, "invalid listing form", err)
		return
	}
	form := &upload.Form{}
	defer form.Close()

	draft, err := parseDraft(r)
	if err != nil {
		h.fail(w, r, "invalid listing form", err)
		return
	}
	if draft.Uploads, err = form.Images(r, "images", models.MaxImages); err != nil {
		h.fail(w, r, "invalid listing images", err)
		return
	}
	room, err := h.service.CreateListing(r.Context(), access.FromContext(r.Context()), draft)
	if err != nil {
		h.fail(w, r, "listing creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, room.Full())
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomIDParam(w, r)
	if !ok {
		return
	}
	if err := upload.Parse(w, r, h.maxUploadBytes); err != nil {
		h.fail(w, r, "invalid listing form", err)
		return
	}
	form := &upload.Form{}
	defer form.Close()

	patch, err := parsePatch(r)
	if err != nil {
		h.fail(w, r, "invalid listing form", err)
		return
	}
	if patch.Uploads, err = form.Images(r, "images", models.MaxImages); err != nil {
		h.fail(w, r, "invalid listing images", err)
		return
	}
	room, err := h.service.UpdateListing(r.Context(), access.FromContext(r.Context()), roomID, patch)
	if err != nil {
		h.fail(w, r, "listing update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room.Full())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteListing(r.Context(), access.FromContext(r.Context()), roomID); err != nil {
		h.fail(w, r, "listing deletion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListOwner(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListOwnerRooms(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "failed to list owner rooms", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ownerRoomsResponse{Rooms: rooms})
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomIDParam(w, r)
	if !ok {
		return
	}
	room, err := h.service.GetOwnerRoom(r.Context(), access.FromContext(r.Context()), roomID)
	if err != nil {
		h.fail(w, r, "failed to load room", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room)
}

func (h *Handler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	f, err := parseAdminFilter(r)
	if err != nil {
		h.fail(w, r, "invalid room filter", err)
		return
	}
	page, err := h.service.AdminListAll(r.Context(), access.FromContext(r.Context()), f)
	if err != nil {
		h.fail(w, r, "failed to list rooms", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomIDParam(w, r)
	if !ok {
		return
	}
	room, err := h.service.AdminGetByID(r.Context(), access.FromContext(r.Context()), roomID)
	if err != nil {
		h.fail(w, r, "failed to load room", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomIDParam(w, r)
	if !ok {
		return
	}
	room, err := h.service.VerifyRoom(r.Context(), access.FromContext(r.Context()), roomID)
	if err != nil {
		h.fail(w, r, "room verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, room.Full())
}

// handleExport renders into memory first so a failure still gets a JSON error.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseAdminFilter(r)
	if err != nil {
		h.fail(w, r, "invalid room filter", err)
		return
	}
	var buf bytes.Buffer
	if err := h.service.ExportXLSX(r.Context(), access.FromContext(r.Context()), f, &buf); err != nil {
		h.fail(w, r, "room export failed", err)
		return
	}
	filename := "rooms-" + requestcontext.Now(r.Context()).Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", "request_id", requestcontext.RequestID(r.Context()), "error", err)
	}
}

func (h *Handler) roomIDParam(w http.ResponseWriter, r *http.Request) (id.RoomID, bool) {
	roomID, err := id.ParseRoomID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "invalid room id", err)
		return id.RoomID{}, false
	}
	return roomID, true
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
