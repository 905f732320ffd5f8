package middleware

import (
	"net/http"
	"strings"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextAuthKey is where the resolved identity lives in the gin context.
const ContextAuthKey = "auth_info"

// BearerAuth extracts the caller's identity from an Authorization bearer
// token. A missing header leaves the request anonymous — the engine decides
// per operation whether anonymity is a 401. A present but invalid token is
// rejected here.
func BearerAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "malformed authorization header"})
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		c.Set(ContextAuthKey, &domain.AuthInfo{ID: claims.Subject})
		c.Next()
	}
}

// AuthFromContext returns the caller's identity, or nil for anonymous.
func AuthFromContext(c *gin.Context) *domain.AuthInfo {
	v, exists := c.Get(ContextAuthKey)
	if !exists {
		return nil
	}
	auth, ok := v.(*domain.AuthInfo)
	if !ok {
		return nil
	}
	return auth
}
