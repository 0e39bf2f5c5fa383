package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/services"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ListUsers returns the other regular users.
func ListUsers(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		users, err := us.ListUsers(c.Request.Context(), user.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(users, ""))
	}
}

// ListAllUsers is the admin listing of every account.
func ListAllUsers(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := us.ListAll(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(users, ""))
	}
}

func GetUser(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			badRequest(c, "user ID is required", nil)
			return
		}

		user, err := us.GetUser(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}

func SearchUsers(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			Search string `json:"search"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload", err)
			return
		}

		users, err := us.SearchUsers(c.Request.Context(), user.UserID, req.Search)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(users, ""))
	}
}

func ChangePassword(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		var in services.ChangePasswordInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid request payload", err)
			return
		}

		if err := us.ChangePassword(c.Request.Context(), user.UserID, in); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "password changed"))
	}
}

// UpdateProfile accepts a multipart form with optional username, phoneNumber
// and profile fields. An uploaded image is staged in a temp file that is
// always removed before the handler returns.
func UpdateProfile(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var in services.ProfileInput
		if v, ok := c.GetPostForm("username"); ok {
			in.Username = &v
		}
		if v, ok := c.GetPostForm("phoneNumber"); ok {
			in.PhoneNumber = &v
		}

		file, err := c.FormFile("profile")
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// keep the current image
		case err != nil:
			badRequest(c, "invalid profile upload", err)
			return
		default:
			ext := strings.ToLower(filepath.Ext(file.Filename))
			if !imageExtensions[ext] {
				badRequest(c, "profile must be an image", nil)
				return
			}
			staged, err := os.CreateTemp("", "talknet-profile-*"+ext)
			if err != nil {
				writeError(c, err)
				return
			}
			staged.Close()
			defer os.Remove(staged.Name())

			if err := c.SaveUploadedFile(file, staged.Name()); err != nil {
				writeError(c, err)
				return
			}
			in.ImagePath = staged.Name()
		}

		if in.Username == nil && in.PhoneNumber == nil && in.ImagePath == "" {
			badRequest(c, "nothing to update", nil)
			return
		}

		profile, err := us.UpdateProfile(c.Request.Context(), user.UserID, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, "profile updated"))
	}
}
