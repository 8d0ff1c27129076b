package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDKey for storing the session's user in Gin context
const UserIDKey = "userID"

const (
	SessionCookie = "sessionid"
	CSRFCookie    = "csrftoken"
	CSRFHeader    = "X-CSRFToken"
)

// Session trusts the session cookie value as the user identity.
func Session(cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := c.Cookie(cookie)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Las credenciales de autenticación no se proveyeron."})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID extracts the session user from the Gin context
func GetUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok
}

// CSRF rejects unsafe requests whose header token does not match the token
// cookie.
func CSRF(cookie, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		// Cookie values come back percent-decoded
		raw, err := c.Cookie(cookie)
		sent := c.GetHeader(header)
		if err != nil || raw == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(sent)) != 1 {
			GetLogger(c).Warn("CSRF check failed", "has_cookie", raw != "", "has_header", sent != "")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			return
		}
		c.Next()
	}
}
