// Package handler exposes registration, sessions, owner promotion and account
// administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rentmeroom/internal/access"
	"rentmeroom/internal/identity/models"
	"rentmeroom/internal/platform/upload"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/requestcontext"
)

// Service is the identity use-case surface the handler depends on.
type Service interface {
	Register(ctx context.Context, name, email, password string) error
	ConfirmRegistration(ctx context.Context, email, code string) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context, userID id.UserID, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID id.UserID) (*models.User, error)
	PromoteToOwner(ctx context.Context, userID id.UserID, app models.OwnerApplication) (*models.User, error)
	AdminVerifyOwner(ctx context.Context, actor, userID id.UserID) (*models.User, error)
	ListUsers(ctx context.Context, page, limit int) (*models.UserPage, error)
	GetUser(ctx context.Context, userID id.UserID) (*models.User, error)
	DeleteUser(ctx context.Context, actor, userID id.UserID) error
	UpdateRole(ctx context.Context, actor, userID id.UserID, role access.Role) (*models.User, error)
}

type Handler struct {
	service        Service
	logger         *slog.Logger
	authenticate   func(http.Handler) http.Handler
	limitAuth      func(http.Handler) http.Handler
	maxUploadBytes int64
}

type Option func(*Handler)

// WithAuthRateLimit guards signup, OTP confirmation and login.
func WithAuthRateLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if mw != nil {
			h.limitAuth = mw
		}
	}
}

// New builds the handler. authenticate must resolve the caller identity.
func New(service Service, logger *slog.Logger, authenticate func(http.Handler) http.Handler, maxUploadBytes int64, opts ...Option) *Handler {
	h := &Handler{
		service:        service,
		logger:         logger,
		authenticate:   authenticate,
		limitAuth:      func(next http.Handler) http.Handler { return next },
		maxUploadBytes: maxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.limitAuth)
		r.Post("/auth/signup", h.handleSignup)
		r.Post("/auth/verify-otp", h.handleVerifyOTP)
		r.Post("/auth/login", h.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/auth/logout", h.handleLogout)
		r.Get("/users/me", h.handleMe)
		r.Put("/users/upgrade-to-owner", h.handleUpgradeToOwner)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Use(access.Require(access.RoleAdmin, false, h.logger))
		r.Get("/admin/users", h.handleListUsers)
		r.Get("/admin/users/{id}", h.handleGetUser)
		r.Put("/admin/users/{id}/verify-owner", h.handleVerifyOwner)
		r.Put("/admin/users/{id}/role", h.handleUpdateRole)
		r.Delete("/admin/users/{id}", h.handleDeleteUser)
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Register(r.Context(), strings.TrimSpace(req.Name), req.Email, req.Password); err != nil {
		h.fail(w, r, "signup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "A verification code was sent to your email.",
	})
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.service.ConfirmRegistration(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(w, r, "registration confirmation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.service.Logout(ctx, requestcontext.UserID(ctx), requestcontext.TokenID(ctx), requestcontext.TokenExpiry(ctx))
	if err != nil {
		h.fail(w, r, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := access.FromContext(r.Context())
	user, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		h.fail(w, r, "failed to load profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleUpgradeToOwner(w http.ResponseWriter, r *http.Request) {
	if err := upload.Parse(w, r, h.maxUploadBytes); err != nil {
		h.fail(w, r, "invalid owner application", err)
		return
	}
	form := &upload.Form{}
	defer form.Close()

	req := ownerRequest{
		Phone:       strings.TrimSpace(r.FormValue("phone")),
		Address:     strings.TrimSpace(r.FormValue("address")),
		GovIDType:   strings.TrimSpace(r.FormValue("govIdType")),
		GovIDNumber: strings.TrimSpace(r.FormValue("govIdNumber")),
		Bio:         r.FormValue("bio"),
		Facebook:    r.FormValue("facebook"),
		WhatsApp:    r.FormValue("whatsapp"),
	}
	if err := validate(req); err != nil {
		h.fail(w, r, "invalid owner application", err)
		return
	}
	govImage, err := form.Image(r, "govIdImage")
	if err != nil {
		h.fail(w, r, "invalid owner application", err)
		return
	}
	profileImage, err := form.Image(r, "profileImage")
	if err != nil {
		h.fail(w, r, "invalid owner application", err)
		return
	}

	user, err := h.service.PromoteToOwner(r.Context(), access.FromContext(r.Context()).UserID, models.OwnerApplication{
		Phone:        req.Phone,
		Address:      req.Address,
		GovIDType:    req.GovIDType,
		GovIDNumber:  req.GovIDNumber,
		Bio:          req.Bio,
		Facebook:     req.Facebook,
		WhatsApp:     req.WhatsApp,
		GovIDImage:   govImage,
		ProfileImage: profileImage,
	})
	if err != nil {
		h.fail(w, r, "owner promotion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListUsers(r.Context(), httputil.QueryInt(r, "page", 1), httputil.QueryInt(r, "limit", 20))
	if err != nil {
		h.fail(w, r, "failed to list users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserListResponse(page))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to load user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleVerifyOwner(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	user, err := h.service.AdminVerifyOwner(r.Context(), access.FromContext(r.Context()).UserID, userID)
	if err != nil {
		h.fail(w, r, "owner verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.UpdateRole(r.Context(), access.FromContext(r.Context()).UserID, userID, access.Role(req.Role))
	if err != nil {
		h.fail(w, r, "role update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), access.FromContext(r.Context()).UserID, userID); err != nil {
		h.fail(w, r, "user deletion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads and validates a JSON body, writing the error response itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.fail(w, r, "invalid request body", err)
		return false
	}
	if err := validate(dst); err != nil {
		h.fail(w, r, "request validation failed", err)
		return false
	}
	return true
}

func (h *Handler) userIDParam(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "invalid user id", err)
		return id.UserID{}, false
	}
	return userID, true
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
