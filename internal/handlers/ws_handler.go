package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/realtime"
	"github.com/joshua-takyi/talknet/internal/services"
)

// Realtime upgrades to a websocket. Browsers cannot set headers on the
// upgrade request, so the access token may also come from ?token=.
func Realtime(hub *realtime.Hub, as *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = helpers.BearerToken(c.GetHeader("Authorization"))
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized", "access token not found"))
			return
		}

		user, err := as.Authenticate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized", err.Error()))
			return
		}

		if err := realtime.Serve(hub, c.Writer, c.Request, user.UserID); err != nil {
			// the upgrader has already answered the client
			_ = c.Error(err)
		}
	}
}
