package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rafiqulislamrabbii/expensetracker/internal/auth"
	"github.com/rafiqulislamrabbii/expensetracker/internal/storage"
	"github.com/rafiqulislamrabbii/expensetracker/internal/validation"
)

type CategoriesHandler struct {
	store  ScopedStore
	logger *slog.Logger
}

func NewCategoriesHandler(store ScopedStore, logger *slog.Logger) *CategoriesHandler {
	return &CategoriesHandler{store: store, logger: logger}
}

func (h *CategoriesHandler) RegisterRoutes(r gin.IRouter, verifier *auth.Verifier) {
	g := r.Group("/api/categories", auth.Middleware(verifier))
	g.GET("", h.List)
	g.POST("", h.Create)
}

type categoryJSON struct {
	ID        string `json:"id"`
	NameEn    string `json:"nameEn"`
	NameBn    string `json:"nameBn"`
	Type      string `json:"type"`
	IsDefault bool   `json:"isDefault"`
}

func toCategoryJSON(cat *storage.Category) categoryJSON {
	return categoryJSON{
		ID:        cat.ID.String(),
		NameEn:    cat.NameEn,
		NameBn:    cat.NameBn,
		Type:      cat.Type,
		IsDefault: cat.IsDefault,
	}
}

func (h *CategoriesHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	items, err := h.store.ForUser(userID).ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("list categories", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]categoryJSON, 0, len(items))
	for i := range items {
		out = append(out, toCategoryJSON(&items[i]))
	}
	respondOK(c, out)
}

type categoryRequest struct {
	NameEn string `json:"nameEn"`
	NameBn string `json:"nameBn"`
	Type   string `json:"type"`
}

// Create adds a private category for the authenticated user. Seeded
// defaults can only come from the seeder, never this endpoint.
func (h *CategoriesHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	in, errs := validation.ValidateCategory(validation.CategoryInput{
		NameEn: req.NameEn,
		NameBn: req.NameBn,
		Type:   req.Type,
	})
	if len(errs) > 0 {
		respondValidationError(c, errs)
		return
	}

	cat, err := h.store.ForUser(userID).CreateCategory(c.Request.Context(), in.NameEn, in.NameBn, in.Type)
	if err != nil {
		h.logger.Error("create category", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respondOK(c, toCategoryJSON(cat))
}
