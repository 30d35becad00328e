package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rafiqulislamrabbii/expensetracker/internal/validation"
)

// The web client expects every payload wrapped in a success envelope:
// {"success":true,"data":...} or {"success":false,"error":{"message":...}}.

type errorBody struct {
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	if data == nil {
		c.JSON(200, gin.H{"success": true})
		return
	}
	c.JSON(200, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": errorBody{Message: message}})
}

func respondValidationError(c *gin.Context, errs validation.ValidationErrors) {
	c.JSON(400, gin.H{"success": false, "error": errorBody{Message: "invalid request", Fields: errs}})
}
