package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/model"
)

const (
	userKey     = "user"
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// UserLoader resolves the account a token refers to.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type authError struct {
	status  int
	message string
}

func authenticate(c *gin.Context, secret string, users UserLoader, header string) *authError {
	if !strings.HasPrefix(header, "Bearer ") {
		return &authError{http.StatusUnauthorized, "unauthorized"}
	}

	token, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return &authError{http.StatusUnauthorized, "invalid token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return &authError{http.StatusUnauthorized, "invalid claims"}
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return &authError{http.StatusUnauthorized, "invalid user id"}
	}

	user, err := users.GetByID(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return &authError{http.StatusInternalServerError, "internal server error"}
	}
	if user == nil {
		return &authError{http.StatusUnauthorized, "user not found"}
	}

	// The stored role wins over the claim so demotions apply immediately.
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
	c.Set(userRoleKey, user.Role)
	return nil
}

func AuthMiddleware(secret string, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if e := authenticate(c, secret, users, c.GetHeader("Authorization")); e != nil {
			c.AbortWithStatusJSON(e.status, gin.H{"error": e.message})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a bearer token is present and
// lets anonymous requests through untouched.
func OptionalAuth(secret string, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		if e := authenticate(c, secret, users, header); e != nil {
			c.AbortWithStatusJSON(e.status, gin.H{"error": e.message})
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(userIDKey)
	uid, _ := id.(uuid.UUID)
	return uid
}

// OptionalUserID is nil for anonymous requests.
func OptionalUserID(c *gin.Context) *uuid.UUID {
	id, ok := c.Get(userIDKey)
	if !ok {
		return nil
	}
	uid, ok := id.(uuid.UUID)
	if !ok {
		return nil
	}
	return &uid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get(userRoleKey)
	r, _ := role.(string)
	return r
}

func GetUser(c *gin.Context) *model.User {
	u, _ := c.Get(userKey)
	user, _ := u.(*model.User)
	return user
}
