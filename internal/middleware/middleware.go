package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/models"
)

// Authenticator resolves an access token to the caller's identity.
type Authenticator interface {
	Authenticate(accessToken string) (*helpers.AuthUser, error)
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger logs one line per request. Server errors log at error
// level and client errors at warn.
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		requestID, _ := c.Get("request_id")
		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if v, ok := c.Get(helpers.ContextUserKey); ok {
			if user, ok := v.(*helpers.AuthUser); ok {
				attrs = append(attrs, "user_id", user.UserID)
			}
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP Request", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP Request", attrs...)
		default:
			logger.Info("HTTP Request", attrs...)
		}
	}
}

// ErrorHandler logs errors attached with c.Error and answers 500 when the
// handler did not write a response itself.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse("internal server error", err.Error()))
		}
	}
}

// AuthMiddleware requires "Authorization: Bearer <accessToken>" and stores
// the caller under helpers.ContextUserKey.
func AuthMiddleware(auth Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized access", "bearer token not found"))
			return
		}

		user, err := auth.Authenticate(token)
		if err != nil {
			message := "invalid access token"
			if errors.Is(err, models.ErrTokenExpired) {
				message = "access token expired"
			}
			logger.Debug("rejected access token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized access", message))
			return
		}

		c.Set(helpers.ContextUserKey, user)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(helpers.ContextUserKey)
		user, ok := v.(*helpers.AuthUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized access", ""))
			return
		}
		if !user.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse("Access denied", "requires role "+role))
			return
		}
		c.Next()
	}
}
