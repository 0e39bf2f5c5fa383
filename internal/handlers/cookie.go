package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const RefreshCookieName = "refreshToken"

// SessionCookie writes the refresh token cookie. The same max-age is used
// after verify, login and refresh.
type SessionCookie struct {
	MaxAge time.Duration
	Secure bool
}

func (sc SessionCookie) Set(c *gin.Context, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, refreshToken, int(sc.MaxAge.Seconds()), "/", "", sc.Secure, true)
}

func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", sc.Secure, true)
}
