package auth

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/apperror"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

// AccountService is the subset of Service used by the HTTP controller.
type AccountService interface {
	Login(ctx context.Context, email, username, password, clientIP string) (*LoginResult, error)
	Register(ctx context.Context, email, username, password string) (*entities.User, error)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// AuthController handles the login and registration endpoints.
type AuthController struct {
	service     AccountService
	rateLimiter *RateLimiter
}

// NewAuthController creates a new authentication controller. rateLimiter may be nil.
func NewAuthController(service AccountService, rateLimiter *RateLimiter) *AuthController {
	return &AuthController{service: service, rateLimiter: rateLimiter}
}

// RegisterRoutes registers the public authentication routes.
func (ac *AuthController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/login", ac.Login)
	api.POST("/register", ac.Register)
}

// Login authenticates a user and returns an access token.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperror.FromBinding(err))
		return
	}
	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many login attempts. Please try again later.",
				"code":        "too_many_attempts",
				"retry_after": retryAfter.String(),
			})
			return
		}
	}

	result, err := ac.service.Login(c.Request.Context(), req.Email, req.Username, req.Password, clientIP)
	if err != nil {
		if ac.rateLimiter != nil && apperror.StatusCode(err) == http.StatusUnauthorized {
			ac.rateLimiter.RecordFailure(clientIP, req.Email)
		}
		abortWithError(c, err)
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Logged in successfully",
		"role":         result.Role,
		"user_id":      result.UserID,
		"access_token": result.AccessToken,
		"expires_at":   result.ExpiresAt,
	})
}

// Register creates a regular user account.
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperror.FromBinding(err))
		return
	}

	user, err := ac.service.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "User registered successfully",
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
	})
}
