package handlers

import (
	"github.com/gin-gonic/gin"

	"finguy/internal/services"
)

// AuthHandler exposes the locally provisioned profile of the session user.
// Sign-in itself happens at the identity provider.
type AuthHandler struct {
	userService services.UserServicer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's local profile, created on first request
// @Tags        user
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=models.User} "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, user)
}
