package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/apperror"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entities.User, error)
}

// Middleware handles authentication for API requests.
type Middleware struct {
	auth Authenticator
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(auth Authenticator) *Middleware {
	return &Middleware{auth: auth}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the Gin context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortWithError(c, apperror.Unauthenticated("Missing Authorization header"))
			return
		}

		user, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

// RequireLibrarian allows only callers holding the librarian role.
// It must run after RequireAuth.
func (m *Middleware) RequireLibrarian() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsLibrarian(c) {
			abortWithError(c, apperror.Forbidden("Insufficient permissions"))
			return
		}
		c.Next()
	}
}

// SetUser stores the authenticated user's identity in the Gin context.
func SetUser(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyRole, user.RoleName())
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortWithError(c *gin.Context, err error) {
	status := apperror.StatusCode(err)
	message, code := apperror.Message(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message, "code": code})
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request is not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetUserRole retrieves the authenticated user's role label from the context.
func GetUserRole(c *gin.Context) string {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(string); ok {
			return role
		}
	}
	return ""
}

// IsLibrarian reports whether the authenticated caller is a librarian.
func IsLibrarian(c *gin.Context) bool {
	return GetUserRole(c) == entities.RoleLibrarian
}
