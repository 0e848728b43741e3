package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/auth"
)

// ProfileController handles user listings, the caller's profile and their
// lending statistics.
type ProfileController struct {
	profiles ProfileService
	stats    StatsStore
}

// NewProfileController creates a new ProfileController.
func NewProfileController(profiles ProfileService, stats StatsStore) *ProfileController {
	return &ProfileController{
		profiles: profiles,
		stats:    stats,
	}
}

// UpdateProfileBody is the payload for PUT /api/user/profile. Empty fields
// are left unchanged.
type UpdateProfileBody struct {
	Username string `json:"username" binding:"omitempty,min=3,max=64"`
	Email    string `json:"email" binding:"omitempty,email,max=254"`
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
}

// ListUsers handles GET /api/users
func (pc *ProfileController) ListUsers(c *gin.Context) {
	users, err := pc.profiles.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "list users")
		return
	}
	if users == nil {
		users = []auth.UserSummary{}
	}
	c.JSON(http.StatusOK, users)
}

// GetProfile handles GET /api/user/profile
func (pc *ProfileController) GetProfile(c *gin.Context) {
	user, err := pc.profiles.GetUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, err, "get profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"role":        user.RoleName(),
		"no_of_books": user.NoOfBooks,
	})
}

// UpdateProfile handles PUT /api/user/profile
// A password change invalidates every token issued before it.
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	var body UpdateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindingError(c, err)
		return
	}

	_, err := pc.profiles.UpdateProfile(c.Request.Context(), auth.GetUserID(c), auth.ProfileUpdate{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		respondError(c, err, "update profile")
		return
	}

	respondMessage(c, "Profile updated successfully")
}

// GetStats handles GET /api/user/stats
func (pc *ProfileController) GetStats(c *gin.Context) {
	stats, err := pc.stats.UserStats(auth.GetUserID(c))
	if err != nil {
		respondError(c, err, "user stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
