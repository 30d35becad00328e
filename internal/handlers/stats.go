package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rafiqulislamrabbii/expensetracker/internal/auth"
)

type StatsHandler struct {
	store  ScopedStore
	logger *slog.Logger
	clock  Clock
}

func NewStatsHandler(store ScopedStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{store: store, logger: logger, clock: realClock{}}
}

func (h *StatsHandler) WithClock(clock Clock) *StatsHandler {
	h.clock = clock
	return h
}

func (h *StatsHandler) RegisterRoutes(r gin.IRouter, verifier *auth.Verifier) {
	g := r.Group("/api/stats", auth.Middleware(verifier))
	g.GET("/dashboard", h.Dashboard)
}

type pieSliceJSON struct {
	NameBn string `json:"nameBn"`
	NameEn string `json:"nameEn"`
	Value  string `json:"value"`
}

// monthBounds returns the first and last instant of the month containing t,
// in UTC.
func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}

// Dashboard reports the current month's income and expense totals plus a
// per-category expense breakdown for the pie chart.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	from, to := monthBounds(h.clock.Now())
	scope := h.store.ForUser(userID)

	income, expense, err := scope.MonthlySummary(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("monthly summary", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	breakdown, err := scope.ExpenseBreakdown(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("expense breakdown", "error", err, "user_id", userID)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	pie := make([]pieSliceJSON, 0, len(breakdown))
	for _, slice := range breakdown {
		pie = append(pie, pieSliceJSON{
			NameBn: slice.NameBn,
			NameEn: slice.NameEn,
			Value:  slice.Value.String(),
		})
	}

	respondOK(c, gin.H{
		"summary": gin.H{
			"income":  income.String(),
			"expense": expense.String(),
			"net":     income.Sub(expense).String(),
		},
		"pieData": pie,
	})
}
