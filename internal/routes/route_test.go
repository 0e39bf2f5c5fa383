package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/talknet/internal/config"
	"github.com/joshua-takyi/talknet/internal/container"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *container.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Environment:    "test",
		MongoDBName:    "talknet_test",
		AppBaseURL:     "http://localhost:8080/api/v1",
		AllowedOrigins: []string{"http://localhost:3000"},
		JWT: config.JWTConfig{
			Secret:     "route-test-secret",
			VerifyTTL:  10 * time.Minute,
			ResetTTL:   10 * time.Minute,
			AccessTTL:  time.Hour,
			RefreshTTL: 14 * 24 * time.Hour,
		},
		Mail: config.MailConfig{QueueSize: 4, MaxRetries: 1, RetryBase: time.Millisecond},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := container.NewContainer(logger, cfg, nil, nil)
	return SetupRoutes(c), c
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "talknet-api")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/users",
		"/api/v1/friends",
		"/api/v1/friends/65f0c0ffee0000000000000b",
		"/api/v1/requests",
		"/api/v1/requests/incoming",
		"/api/v1/messages/65f0c0ffee0000000000000a",
		"/api/v1/admin/users",
		"/api/v1/ws",
	} {
		assert.Equal(t, http.StatusUnauthorized, get(r, path, "").Code, path)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r, c := newTestRouter(t)

	token, err := c.Tokens.Issue(tokens.PurposeAccess, "65f0c0ffee0000000000000a", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "/api/v1/admin/users", token).Code)

	refresh, err := c.Tokens.Issue(tokens.PurposeRefresh, "65f0c0ffee0000000000000a", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/admin/users", refresh).Code, "refresh tokens are not access tokens")
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
