package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/social-service/internal/dto"
	"github.com/prperemyshlev/social-service/internal/service"
	"go.uber.org/zap"
)

// TweetHandler serves tweets and bookmarks
type TweetHandler struct {
	tweetService    service.TweetService
	bookmarkService service.BookmarkService
	logger          *zap.Logger
}

func NewTweetHandler(tweetService service.TweetService, bookmarkService service.BookmarkService, logger *zap.Logger) *TweetHandler {
	return &TweetHandler{
		tweetService:    tweetService,
		bookmarkService: bookmarkService,
		logger:          logger,
	}
}

// CreateTweet posts a tweet, retweet, comment or quote tweet
// @Summary Create tweet
// @Tags tweets
// @Security BearerAuth
// @Param request body dto.CreateTweetRequest true "Tweet"
// @Success 201 {object} dto.MessageResponse
// @Router /tweets [post]
func (h *TweetHandler) CreateTweet(c *gin.Context) {
	var req dto.CreateTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tweet, err := h.tweetService.CreateTweet(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MessageResponse{Message: "Create tweet success", Result: tweet})
}

// GetTweet returns a tweet; circle tweets need an authorized viewer
// @Summary Get tweet
// @Tags tweets
// @Param tweet_id path string true "Tweet id"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /tweets/{tweet_id} [get]
func (h *TweetHandler) GetTweet(c *gin.Context) {
	tweet, err := h.tweetService.GetTweet(c.Request.Context(), c.Param("tweet_id"), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Get tweet success", Result: tweet})
}

func (h *TweetHandler) Bookmark(c *gin.Context) {
	var req dto.BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bookmark, err := h.bookmarkService.Bookmark(c.Request.Context(), currentUserID(c), req.TweetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Bookmark success", Result: bookmark})
}

func (h *TweetHandler) Unbookmark(c *gin.Context) {
	if err := h.bookmarkService.Unbookmark(c.Request.Context(), currentUserID(c), c.Param("tweet_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Unbookmark success"})
}
