package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"marketplace-service/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserContextKey      = "userID"
	PrincipalContextKey = "principal"
)

// AuthMiddleware resolves the caller. The API gateway forwards X-User-ID and
// X-User-Role; direct callers may send a bearer JWT signed with jwtSecret
// carrying "sub" (or "user_id") and "role" (or "roles") claims.
func AuthMiddleware(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := principalFromRequest(c, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "unauthorized"})
			return
		}
		c.Set(UserContextKey, principal.UserID)
		c.Set(PrincipalContextKey, principal)
		c.Next()
	}
}

func principalFromRequest(c *gin.Context, jwtSecret []byte) (models.Principal, error) {
	if userID := strings.TrimSpace(c.GetHeader("X-User-ID")); userID != "" {
		return models.Principal{
			UserID: userID,
			Roles:  models.ParseRoles(c.GetHeader("X-User-Role")),
		}, nil
	}

	header := c.GetHeader("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return models.Principal{}, errors.New("missing credentials")
	}
	claims, err := ParseToken(strings.TrimSpace(tokenStr), jwtSecret)
	if err != nil {
		return models.Principal{}, err
	}
	return principalFromClaims(claims)
}

// ParseToken parses an HMAC signed JWT and returns its claims.
func ParseToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func principalFromClaims(claims jwt.MapClaims) (models.Principal, error) {
	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return models.Principal{}, errors.New("token has no subject")
	}

	var raw []string
	switch v := claims["roles"].(type) {
	case []interface{}:
		for _, r := range v {
			if s, ok := r.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = append(raw, v)
	}
	if role, ok := claims["role"].(string); ok {
		raw = append(raw, role)
	}

	return models.Principal{UserID: userID, Roles: models.ParseRoles(strings.Join(raw, ","))}, nil
}

// GetPrincipal returns the caller resolved by AuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, error) {
	if val, ok := c.Get(PrincipalContextKey); ok {
		if p, ok := val.(models.Principal); ok && p.UserID != "" {
			return p, nil
		}
	}
	return models.Principal{}, errors.New("principal not found in context")
}
