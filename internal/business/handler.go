package business

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Handler exposes the business HTTP surface.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the business handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers business routes. Mutations require a managing role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/business", func(r chi.Router) {
		r.Get("/", h.getBusiness)
		r.Put("/", h.updateBusiness)
		r.Get("/locations", h.listLocations)
		r.Post("/locations", h.createLocation)
		r.Post("/locations/default", h.ensureDefaultLocation)
		r.Put("/locations/{locationID}", h.updateLocation)
		r.Delete("/locations/{locationID}", h.deleteLocation)
	})
}

func (h *Handler) getBusiness(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	b, err := h.service.Get(r.Context(), identity.BusinessID)
	if err != nil {
		respondBusinessError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, businessJSON(b))
}

type updateBusinessRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Type string `json:"business_type" validate:"required"`
}

func (h *Handler) updateBusiness(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	var req updateBusinessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	b, err := h.service.Update(r.Context(), identity.BusinessID, req.Name, Type(req.Type))
	if err != nil {
		respondBusinessError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, businessJSON(b))
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	locations, err := h.service.ListLocations(r.Context(), identity.BusinessID)
	if err != nil {
		respondBusinessError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(locations))
	for _, loc := range locations {
		items = append(items, locationJSON(loc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"locations": items})
}

type locationRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Address   string `json:"address" validate:"max=500"`
	IsDefault bool   `json:"is_default"`
}

func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	var req locationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	loc, err := h.service.CreateLocation(r.Context(), CreateLocationInput{
		BusinessID: identity.BusinessID,
		Name:       req.Name,
		Address:    req.Address,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		respondBusinessError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, locationJSON(loc))
}

func (h *Handler) ensureDefaultLocation(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	loc, err := h.service.EnsureDefaultLocation(r.Context(), identity.BusinessID)
	if err != nil {
		respondBusinessError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, locationJSON(loc))
}

func (h *Handler) updateLocation(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid location id")
		return
	}
	var req locationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	loc, err := h.service.UpdateLocation(r.Context(), Location{
		ID:         locationID,
		BusinessID: identity.BusinessID,
		Name:       req.Name,
		Address:    req.Address,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		respondBusinessError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, locationJSON(loc))
}

func (h *Handler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid location id")
		return
	}
	if err := h.service.DeleteLocation(r.Context(), identity.BusinessID, locationID); err != nil {
		respondBusinessError(w, err)
		return
	}
	httpx.NoContent(w)
}

func requireManager(w http.ResponseWriter, r *http.Request) (shared.Identity, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return shared.Identity{}, false
	}
	if !identity.Role.CanManage() {
		httpx.RespondError(w, httpx.ErrForbidden)
		return shared.Identity{}, false
	}
	return identity, true
}

func respondBusinessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrLocationInUse):
		httpx.Problem(w, http.StatusConflict, "Location In Use", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func businessJSON(b Business) map[string]any {
	return map[string]any{
		"id":            b.ID,
		"name":          b.Name,
		"business_type": b.Type,
		"created_at":    b.CreatedAt,
		"updated_at":    b.UpdatedAt,
	}
}

func locationJSON(loc Location) map[string]any {
	return map[string]any{
		"id":         loc.ID,
		"name":       loc.Name,
		"address":    loc.Address,
		"is_default": loc.IsDefault,
		"created_at": loc.CreatedAt,
		"updated_at": loc.UpdatedAt,
	}
}
