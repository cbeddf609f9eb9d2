package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/social-service/internal/dto"
	"github.com/prperemyshlev/social-service/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves profiles, follows and the circle
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// GetMe returns the caller's account
// @Summary Get current user
// @Tags users
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetMe(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Get my profile success", Result: user})
}

// UpdateMe applies a partial profile update
// @Summary Update current user
// @Tags users
// @Security BearerAuth
// @Param request body dto.UpdateMeRequest true "Fields to change"
// @Success 200 {object} dto.MessageResponse
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Update my profile success", Result: user})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Get profile success", Result: profile})
}

func (h *UserHandler) Follow(c *gin.Context) {
	var req dto.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.userService.Follow(c.Request.Context(), currentUserID(c), req.FollowedUserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "Follow success"
	if result.AlreadyFollowing {
		message = "Followed"
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: message})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	if err := h.userService.Unfollow(c.Request.Context(), currentUserID(c), c.Param("user_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Unfollow success"})
}

func (h *UserHandler) AddToCircle(c *gin.Context) {
	var req dto.CircleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.userService.AddToCircle(c.Request.Context(), currentUserID(c), req.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Add to circle success"})
}

func (h *UserHandler) RemoveFromCircle(c *gin.Context) {
	if err := h.userService.RemoveFromCircle(c.Request.Context(), currentUserID(c), c.Param("user_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Remove from circle success"})
}
