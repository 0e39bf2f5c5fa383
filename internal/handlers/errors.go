package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/models"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var incorrect *models.IncorrectPasswordError
	switch {
	case errors.As(err, &incorrect):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrAttemptsExceeded),
		errors.Is(err, models.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status it maps to. Unexpected errors are
// also attached to the context so the error middleware logs them.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, models.ErrorResponse("internal server error", err.Error()))
		return
	}
	c.JSON(status, models.ErrorResponse(err.Error(), ""))
}

func badRequest(c *gin.Context, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse(message, detail))
}

// currentUser returns the identity set by the auth middleware.
func currentUser(c *gin.Context) (*helpers.AuthUser, bool) {
	v, exists := c.Get(helpers.ContextUserKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized", ""))
		return nil, false
	}
	user, ok := v.(*helpers.AuthUser)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims", ""))
		return nil, false
	}
	return user, true
}
