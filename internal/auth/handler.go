package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Handler exposes the auth HTTP surface.
type Handler struct {
	service  *Service
	sessions *shared.SessionManager
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs the auth handler.
func NewHandler(service *Service, sessions *shared.SessionManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// MountPublicRoutes registers routes reachable without a session.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

// MountProtectedRoutes registers routes behind RequireAuth.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/me", h.me)
}

type registerRequest struct {
	BusinessName          string `json:"business_name" validate:"required,max=200"`
	BusinessType          string `json:"business_type" validate:"required"`
	OwnerName             string `json:"owner_name" validate:"required,max=200"`
	Email                 string `json:"email" validate:"required,email"`
	Password              string `json:"password" validate:"required,min=8,max=128"`
	CreateDefaultLocation bool   `json:"create_default_location"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		BusinessName:          req.BusinessName,
		BusinessType:          req.BusinessType,
		OwnerName:             req.OwnerName,
		Email:                 req.Email,
		Password:              req.Password,
		CreateDefaultLocation: req.CreateDefaultLocation,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetUser(user.ID.String())
		if err := h.sessions.Commit(r.Context(), w, sess); err != nil {
			h.logger.Error("failed to commit session", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, userJSON(user))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(user.ID.String())
	if err := h.sessions.Commit(r.Context(), w, sess); err != nil {
		h.logger.Error("failed to commit session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, userJSON(user))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessions.Destroy(sess)
		if err := h.sessions.Commit(r.Context(), w, sess); err != nil {
			h.logger.Error("failed to destroy session", slog.Any("error", err))
		}
	}
	httpx.NoContent(w)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, err := h.service.GetUser(r.Context(), identity.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userJSON(user))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		httpx.Problem(w, http.StatusUnauthorized, "Invalid Credentials", "email or password is incorrect")
	case errors.Is(err, ErrEmailTaken):
		httpx.Problem(w, http.StatusConflict, "Email Taken", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func userJSON(u User) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"business_id": u.BusinessID,
		"email":       u.Email,
		"name":        u.Name,
		"role":        u.Role,
		"is_active":   u.IsActive,
		"created_at":  u.CreatedAt,
	}
}
