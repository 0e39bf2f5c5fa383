package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/services"
)

func Register(as *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid request payload", err)
			return
		}

		user, err := as.Register(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(user.Public(), "account created, check your email to verify it"))
	}
}

// Verify answers 201 when the link had expired and a new one was mailed.
func Verify(as *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, outcome, err := as.Verify(c.Request.Context(), c.Param("token"))
		if err != nil {
			writeError(c, err)
			return
		}
		if outcome == services.LinkResent {
			c.JSON(http.StatusCreated, models.SuccessResponse(nil, "verification link expired, a new one has been sent to your email"))
			return
		}

		cookie.Set(c, sess.Tokens.RefreshToken)
		c.JSON(http.StatusOK, models.TokenResponse(sess.Tokens.AccessToken, sess.User.Public(), "account verified"))
	}
}

func ForgetPassword(as *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload", err)
			return
		}

		if err := as.ForgetPassword(c.Request.Context(), req.Email); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "if the account exists, a reset link has been sent"))
	}
}

func ResetPassword(as *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.ResetPasswordInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid request payload", err)
			return
		}

		outcome, err := as.ResetPassword(c.Request.Context(), c.Param("token"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		if outcome == services.LinkResent {
			c.JSON(http.StatusCreated, models.SuccessResponse(nil, "reset link expired, a new one has been sent to your email"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "password has been reset"))
	}
}

func Login(as *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.LoginInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid request payload", err)
			return
		}

		sess, err := as.Login(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}

		cookie.Set(c, sess.Tokens.RefreshToken)
		c.JSON(http.StatusOK, models.TokenResponse(sess.Tokens.AccessToken, sess.User.Public(), "login successful"))
	}
}

// RefreshToken rotates the session from the refresh cookie.
func RefreshToken(as *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie(RefreshCookieName)

		sess, err := as.Refresh(c.Request.Context(), presented)
		if err != nil {
			writeError(c, err)
			return
		}

		cookie.Set(c, sess.Tokens.RefreshToken)
		c.JSON(http.StatusOK, models.TokenResponse(sess.Tokens.AccessToken, nil, "token refreshed"))
	}
}

func Logout(as *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		if err := as.Logout(c.Request.Context(), user.UserID); err != nil {
			writeError(c, err)
			return
		}

		cookie.Clear(c)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "logged out successfully"))
	}
}
