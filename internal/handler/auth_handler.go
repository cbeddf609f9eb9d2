package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/dto"
	"github.com/prperemyshlev/social-service/internal/service"
	"go.uber.org/zap"
)

const refreshCookie = "refresh_token"

// AuthHandlerConfig holds transport settings of the auth endpoints
type AuthHandlerConfig struct {
	// CookiePath scopes the refresh token cookie
	CookiePath   string
	SecureCookie bool
	// ClientRedirectURL receives the tokens after Google sign-in
	ClientRedirectURL string
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	cfg         AuthHandlerConfig
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, cfg AuthHandlerConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
		logger:      logger,
	}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, h.authService.RefreshTokenExpiry(), h.cfg.CookiePath, "", h.cfg.SecureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, "", -1, h.cfg.CookiePath, "", h.cfg.SecureCookie, true)
}

// refreshTokenFrom reads the refresh token from the body, falling back to the cookie
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) (string, bool) {
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return "", false
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshCookie)
	}
	return req.RefreshToken, true
}

func (h *AuthHandler) authResponse(c *gin.Context, pair *domain.TokenPair) *dto.AuthResponse {
	h.setRefreshCookie(c, pair.RefreshToken)
	return &dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    h.authService.AccessTokenExpiry(),
	}
}

// Register handles user registration
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	pair, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, h.authResponse(c, pair))
}

// Login handles user login
// @Summary Login user
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.authResponse(c, pair))
}

// OAuthGoogle completes Google sign-in and redirects to the client with the tokens
// @Summary Google OAuth callback
// @Tags users
// @Param code query string true "Authorization code"
// @Success 302
// @Router /users/oauth/google [get]
func (h *AuthHandler) OAuthGoogle(c *gin.Context) {
	result, err := h.authService.OAuthLogin(c.Request.Context(), c.Query("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken)

	if h.cfg.ClientRedirectURL == "" {
		c.JSON(http.StatusOK, dto.MessageResponse{
			Message: "Login success",
			Result: gin.H{
				"access_token":  result.Tokens.AccessToken,
				"refresh_token": result.Tokens.RefreshToken,
				"new_user":      result.NewUser,
				"verify":        result.Verify,
			},
		})
		return
	}

	target, err := url.Parse(h.cfg.ClientRedirectURL)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	q := target.Query()
	q.Set("access_token", result.Tokens.AccessToken)
	q.Set("refresh_token", result.Tokens.RefreshToken)
	q.Set("new_user", strconv.FormatBool(result.NewUser))
	q.Set("verify", strconv.Itoa(int(result.Verify)))
	target.RawQuery = q.Encode()

	c.Redirect(http.StatusFound, target.String())
}

// Logout ends the session of the presented refresh token
// @Summary Logout user
// @Tags users
// @Security BearerAuth
// @Param request body dto.RefreshTokenRequest false "Refresh token, or the refresh_token cookie"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logout success"})
}

// RefreshToken rotates the session
// @Summary Refresh tokens
// @Tags users
// @Param request body dto.RefreshTokenRequest false "Refresh token, or the refresh_token cookie"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.authResponse(c, pair))
}

// VerifyEmail consumes an email verify token
// @Summary Verify email
// @Tags users
// @Param request body dto.VerifyEmailRequest true "Email verify token"
// @Success 200 {object} dto.MessageResponse
// @Router /users/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.VerifyEmail(c.Request.Context(), req.EmailVerifyToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if result.AlreadyVerified {
		c.JSON(http.StatusOK, dto.MessageResponse{Message: "Email already verified before"})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Email verify success",
		Result:  h.authResponse(c, result.Tokens),
	})
}

func (h *AuthHandler) ResendVerifyEmail(c *gin.Context) {
	if err := h.authService.ResendVerifyEmail(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Resend verify email success"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Check email to reset password"})
}

func (h *AuthHandler) VerifyForgotPassword(c *gin.Context) {
	var req dto.VerifyForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.VerifyForgotPasswordToken(c.Request.Context(), req.ForgotPasswordToken); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Verify forgot password success"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.ForgotPasswordToken, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Reset password success"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), currentUserID(c), req.OldPassword, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Change password success"})
}
