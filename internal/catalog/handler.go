package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/inventory"
	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Handler exposes the catalog HTTP surface.
type Handler struct {
	service    *Service
	aggregator *inventory.Aggregator
	validate   *validator.Validate
}

// NewHandler constructs the catalog handler.
func NewHandler(service *Service, aggregator *inventory.Aggregator) *Handler {
	return &Handler{
		service:    service,
		aggregator: aggregator,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/categories", h.listCategories)
		r.Post("/categories", h.createCategory)
		r.Put("/categories/{categoryID}", h.updateCategory)
		r.Delete("/categories/{categoryID}", h.deleteCategory)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Get("/products/{productID}", h.getProduct)
		r.Put("/products/{productID}", h.updateProduct)
		r.Delete("/products/{productID}", h.deleteProduct)
		r.Get("/products/{productID}/stock", h.productStock)
	})
}

type categoryRequest struct {
	ParentID    *uuid.UUID `json:"parent_id"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=500"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.CreateCategory(r.Context(), CreateCategoryInput{
		BusinessID:  identity.BusinessID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, categoryJSON(c))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	categories, err := h.service.ListCategories(r.Context(), identity.BusinessID)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(categories))
	for _, c := range categories {
		items = append(items, categoryJSON(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": items})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid category id")
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), Category{
		ID:          categoryID,
		BusinessID:  identity.BusinessID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, categoryJSON(c))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid category id")
		return
	}
	if err := h.service.DeleteCategory(r.Context(), identity.BusinessID, categoryID); err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.NoContent(w)
}

type productRequest struct {
	CategoryID  *uuid.UUID `json:"category_id"`
	Name        string     `json:"name" validate:"required,max=200"`
	SKU         string     `json:"sku" validate:"required,max=100"`
	Barcode     string     `json:"barcode" validate:"max=100"`
	Description string     `json:"description" validate:"max=1000"`
	Unit        string     `json:"unit" validate:"max=50"`
	MinStock    int64      `json:"min_stock" validate:"gte=0"`
	IsActive    *bool      `json:"is_active"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.CreateProduct(r.Context(), CreateProductInput{
		BusinessID:  identity.BusinessID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		SKU:         req.SKU,
		Barcode:     req.Barcode,
		Description: req.Description,
		Unit:        req.Unit,
		MinStock:    req.MinStock,
	})
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, productJSON(p))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	p, err := h.service.GetProduct(r.Context(), identity.BusinessID, productID)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productJSON(p))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	filter := ProductFilter{
		BusinessID: identity.BusinessID,
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid category filter")
			return
		}
		filter.CategoryID = &id
	}
	page := shared.NewPageRequest(queryInt(r, "page", 1), queryInt(r, "per_page", 50))
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(products))
	for _, p := range products {
		items = append(items, productJSON(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": items, "pagination": page})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p, err := h.service.UpdateProduct(r.Context(), Product{
		ID:          productID,
		BusinessID:  identity.BusinessID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		SKU:         req.SKU,
		Barcode:     req.Barcode,
		Description: req.Description,
		Unit:        req.Unit,
		MinStock:    req.MinStock,
		IsActive:    active,
	})
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productJSON(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireManager(w, r)
	if !ok {
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	if err := h.service.DeleteProduct(r.Context(), identity.BusinessID, productID); err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.NoContent(w)
}

// productStock returns the derived stock view for one product.
func (h *Handler) productStock(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	p, err := h.service.GetProduct(r.Context(), identity.BusinessID, productID)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	snap, err := h.aggregator.Snapshot(r.Context(), identity.BusinessID, p.ID, p.MinStock)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
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

func respondCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductInUse):
		httpx.Problem(w, http.StatusConflict, "Product In Use", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func categoryJSON(c Category) map[string]any {
	item := map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
	if c.ParentID != nil {
		item["parent_id"] = *c.ParentID
	}
	return item
}

func productJSON(p Product) map[string]any {
	item := map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"sku":         p.SKU,
		"barcode":     p.Barcode,
		"description": p.Description,
		"unit":        p.Unit,
		"min_stock":   p.MinStock,
		"is_active":   p.IsActive,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
	if p.CategoryID != nil {
		item["category_id"] = *p.CategoryID
	}
	return item
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
