package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mzhurov/commune/internal/chat"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors fall back to a generic "action failed" message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyContent), errors.Is(err, chat.ErrSelfTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, chat.ErrBlocked):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "blocked": true})

	case errors.Is(err, chat.ErrForbidden), errors.Is(err, chat.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, chat.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, chat.ErrStateConflict),
		errors.Is(err, chat.ErrRequestPending),
		errors.Is(err, chat.ErrLastAdmin),
		errors.Is(err, chat.ErrAlreadyBlocked),
		errors.Is(err, chat.ErrNotBlocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "action failed"})
	}
}
