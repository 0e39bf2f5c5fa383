package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/services"
)

func SendMessage(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload", err)
			return
		}

		msg, err := ms.Send(c.Request.Context(), user.UserID, c.Param("receiverId"), req.Text)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(msg, "message sent"))
	}
}

// MessageHistory pages through the conversation with peerId using the limit
// and offset query parameters.
func MessageHistory(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
		if err != nil || limit < 0 {
			badRequest(c, "invalid limit parameter", nil)
			return
		}
		offset, err := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
		if err != nil || offset < 0 {
			badRequest(c, "invalid offset parameter", nil)
			return
		}

		messages, err := ms.History(c.Request.Context(), user.UserID, c.Param("peerId"), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(messages, ""))
	}
}
