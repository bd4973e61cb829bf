// Package handler holds the gin HTTP handlers. Every response uses the same
// envelope: {"success": true, "data": ...} or {"success": false, "error": ...}.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/lifecycle"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondServiceError maps service errors onto HTTP statuses. Rule denials
// from the ticket state machine surface verbatim with a 403.
func respondServiceError(c *gin.Context, err error) {
	var ruleErr *lifecycle.RuleError
	if errors.As(err, &ruleErr) {
		respondError(c, http.StatusForbidden, ruleErr.Message)
		return
	}

	switch {
	case errors.Is(err, errs.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, errs.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, errs.UserMessage(err))
	case errors.Is(err, errs.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, errs.ErrAccessDenied):
		respondError(c, http.StatusForbidden, errs.UserMessage(err))
	case errors.Is(err, errs.ErrConflict):
		respondError(c, http.StatusConflict, errs.UserMessage(err))
	case errors.Is(err, errs.ErrTooManyRequests):
		respondError(c, http.StatusTooManyRequests, errs.UserMessage(err))
	default:
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
