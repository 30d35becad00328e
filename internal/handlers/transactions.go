package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rafiqulislamrabbii/expensetracker/internal/auth"
	"github.com/rafiqulislamrabbii/expensetracker/internal/storage"
	"github.com/rafiqulislamrabbii/expensetracker/internal/validation"
)

// ScopedStore hands out a repository view locked to one user. Handlers
// never see cross-user query methods, so an ownership filter cannot be
// forgotten at a call site.
type ScopedStore interface {
	ForUser(userID uuid.UUID) storage.Scope
}

type TransactionsHandler struct {
	store   ScopedStore
	logger  *slog.Logger
	metrics *Metrics
}

func NewTransactionsHandler(store ScopedStore, logger *slog.Logger, metrics *Metrics) *TransactionsHandler {
	return &TransactionsHandler{store: store, logger: logger, metrics: metrics}
}

func (h *TransactionsHandler) RegisterRoutes(r gin.IRouter, verifier *auth.Verifier) {
	g := r.Group("/api/transactions", auth.Middleware(verifier))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type transactionJSON struct {
	ID         string        `json:"id"`
	Amount     string        `json:"amount"`
	Type       string        `json:"type"`
	CategoryID string        `json:"categoryId"`
	Date       time.Time     `json:"date"`
	Notes      *string       `json:"notes"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Category   *categoryJSON `json:"category,omitempty"`
}

func toTransactionJSON(t *storage.Transaction) transactionJSON {
	out := transactionJSON{
		ID:         t.ID.String(),
		Amount:     t.Amount.String(),
		Type:       t.Type,
		CategoryID: t.CategoryID.String(),
		Date:       t.Date,
		Notes:      t.Notes,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.Category != nil {
		cat := toCategoryJSON(t.Category)
		out.Category = &cat
	}
	return out
}

// parseDateParam accepts either a full RFC3339 timestamp or a bare
// YYYY-MM-DD day, which the web client sends for range pickers.
func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *TransactionsHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	var filter storage.TransactionFilter

	if raw := c.Query("from"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid from date")
			return
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid to date")
			return
		}
		filter.To = &t
	}
	if raw := strings.ToUpper(c.Query("type")); raw != "" {
		if raw != validation.TypeIncome && raw != validation.TypeExpense {
			respondError(c, http.StatusBadRequest, "invalid type filter")
			return
		}
		filter.Type = raw
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	items, err := h.store.ForUser(userID).ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list transactions", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]transactionJSON, 0, len(items))
	for i := range items {
		out = append(out, toTransactionJSON(&items[i]))
	}
	respondOK(c, out)
}

type transactionRequest struct {
	Amount     json.Number `json:"amount"`
	Type       string      `json:"type"`
	CategoryID string      `json:"categoryId"`
	Date       string      `json:"date"`
	Notes      *string     `json:"notes"`
}

func (h *TransactionsHandler) bindTransaction(c *gin.Context, userID uuid.UUID) (*validation.TransactionInput, bool) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	in, errs := validation.ValidateTransaction(req.Amount.String(), req.Type, req.CategoryID, req.Date, req.Notes)
	if len(errs) > 0 {
		respondValidationError(c, errs)
		return nil, false
	}

	visible, err := h.store.ForUser(userID).CategoryVisible(c.Request.Context(), in.CategoryID)
	if err != nil {
		h.logger.Error("check category", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if !visible {
		respondError(c, http.StatusBadRequest, "unknown category")
		return nil, false
	}

	return &in, true
}

func (h *TransactionsHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	in, ok := h.bindTransaction(c, userID)
	if !ok {
		return
	}

	tx, err := h.store.ForUser(userID).CreateTransaction(c.Request.Context(), storage.TransactionUpdate{
		Amount:     in.Amount,
		Type:       in.Type,
		CategoryID: in.CategoryID,
		Date:       in.Date,
		Notes:      in.Notes,
	})
	if err != nil {
		h.logger.Error("create transaction", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	h.metrics.TransactionWrites.WithLabelValues("create").Inc()
	respondOK(c, toTransactionJSON(tx))
}

func (h *TransactionsHandler) Update(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid transaction id")
		return
	}

	in, ok := h.bindTransaction(c, userID)
	if !ok {
		return
	}

	matched, err := h.store.ForUser(userID).UpdateTransaction(c.Request.Context(), id, storage.TransactionUpdate{
		Amount:     in.Amount,
		Type:       in.Type,
		CategoryID: in.CategoryID,
		Date:       in.Date,
		Notes:      in.Notes,
	})
	if err != nil {
		h.logger.Error("update transaction", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	// An id that doesn't exist under this user is indistinguishable from
	// one that never existed; both report success without touching data.
	if matched {
		h.metrics.TransactionWrites.WithLabelValues("update").Inc()
	}
	respondOK(c, gin.H{"updated": matched})
}

func (h *TransactionsHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid transaction id")
		return
	}

	matched, err := h.store.ForUser(userID).DeleteTransaction(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete transaction", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	if matched {
		h.metrics.TransactionWrites.WithLabelValues("delete").Inc()
	}
	respondOK(c, gin.H{"message": "transaction deleted"})
}
