package helpers

import "strings"

// ContextUserKey is the gin context key holding the authenticated *AuthUser.
const ContextUserKey = "user"

// AuthUser is the identity attached to a request by the auth middleware.
type AuthUser struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
}

func (au *AuthUser) HasRole(role string) bool {
	return au.Role == role
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. It returns "" for any other scheme.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
