package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/services"
)

func SendFriendRequest(fs *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		view, err := fs.SendRequest(c.Request.Context(), user.UserID, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(view, "friend request sent"))
	}
}

// ListFriendRequests lists the caller's pending requests in one direction.
func ListFriendRequests(fs *services.FriendService, dir models.Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		views, err := fs.ListPending(c.Request.Context(), user.UserID, dir)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(views, ""))
	}
}

// AcceptFriendRequest reports an already accepted request as 404.
func AcceptFriendRequest(fs *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		req, err := fs.Accept(c.Request.Context(), user.UserID, c.Param("id"))
		if errors.Is(err, models.ErrAlreadyAccepted) {
			c.JSON(http.StatusNotFound, models.ErrorResponse(err.Error(), ""))
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(req, "friend request accepted"))
	}
}

func DeclineFriendRequest(fs *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		status, err := fs.Decline(c.Request.Context(), user.UserID, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"status": status}, "friend request declined"))
	}
}

func ListFriends(fs *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		friends, err := fs.ListFriends(c.Request.Context(), user.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(friends, ""))
	}
}

// FriendshipStatus reports whether the caller and :id are friends.
func FriendshipStatus(fs *services.FriendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		friends, err := fs.AreFriends(c.Request.Context(), user.UserID, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"friends": friends}, ""))
	}
}
