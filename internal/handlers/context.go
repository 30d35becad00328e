package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rafiqulislamrabbii/expensetracker/internal/auth"
)

// userIDFromContext reads the identity bound by the auth middleware. A
// missing or malformed id means the route was wired without the gate, so
// the caller should fail closed with 401.
func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(auth.ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
