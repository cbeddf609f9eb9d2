package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/social-service/internal/config"
	"github.com/prperemyshlev/social-service/internal/handler"
	"github.com/prperemyshlev/social-service/internal/oauth"
	"github.com/prperemyshlev/social-service/internal/repository"
	"github.com/prperemyshlev/social-service/internal/service"
	"github.com/prperemyshlev/social-service/internal/utils"
	"github.com/prperemyshlev/social-service/pkg/database"
	"github.com/prperemyshlev/social-service/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	serviceName     = "social-service"
	shutdownTimeout = 5 * time.Second
)

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	janitor *service.SessionJanitor
}

// components are the services behind the HTTP surface
type components struct {
	auth      service.AuthService
	users     service.UserService
	tweets    service.TweetService
	bookmarks service.BookmarkService
	limiter   *service.RateLimiter
	janitor   *service.SessionJanitor
}

func newComponents(cfg *config.Config, repos *repository.Repositories, redis *database.Redis, logger *zap.Logger, meter metric.Meter) (*components, error) {
	codec, err := utils.NewTokenCodec(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	hasher, err := utils.NewPasswordHasher(cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	opts := []service.AuthOption{service.WithMeter(meter)}
	if cfg.OAuth.GoogleEnabled() {
		opts = append(opts, service.WithIdentityProvider(oauth.NewGoogleProvider(cfg.OAuth)))
	}

	authService, err := service.NewAuthService(
		repos,
		codec,
		hasher,
		service.NewRedisOutbox(redis, cfg.Mail.OutboxKey),
		logger,
		opts...,
	)
	if err != nil {
		return nil, err
	}

	return &components{
		auth:      authService,
		users:     service.NewUserService(repos, logger),
		tweets:    service.NewTweetService(repos),
		bookmarks: service.NewBookmarkService(repos),
		limiter:   service.NewRateLimiter(redis),
		janitor:   service.NewSessionJanitor(repos.Token, cfg.Security.SessionCleanupInterval.Duration, logger),
	}, nil
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	repos := repository.NewRepositories(infra.Postgres())

	comps, err := newComponents(cfg, repos, infra.Redis(), infra.Logger(), infra.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, err
	}

	healthChecker := NewHealthChecker(infra, cfg.Mail.OutboxKey)
	router, err := newRouter(cfg, comps, infra.Logger(), healthChecker.Handler, infra.MetricsHandler())
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		janitor: comps.janitor,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func newRouter(cfg *config.Config, comps *components, logger *zap.Logger, health gin.HandlerFunc, metricsHandler http.Handler) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", health)

	authHandler := handler.NewAuthHandler(comps.auth, handler.AuthHandlerConfig{
		CookiePath:        "/api/v1/users",
		SecureCookie:      cfg.Env == "production",
		ClientRedirectURL: cfg.OAuth.ClientRedirectURL,
	}, logger)
	userHandler := handler.NewUserHandler(comps.users, logger)
	tweetHandler := handler.NewTweetHandler(comps.tweets, comps.bookmarks, logger)

	rateLimit := handler.RateLimitMiddleware(
		comps.limiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.RouteAndIPKey,
		logger,
	)
	auth := handler.AuthMiddleware(comps.auth, logger)
	optionalAuth := handler.OptionalAuthMiddleware(comps.auth, logger)
	verified := handler.VerifiedUserMiddleware(logger)
	verifiedIfPresent := handler.VerifiedIfPresentMiddleware(logger)

	api := router.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", rateLimit, authHandler.Register)
			users.POST("/login", rateLimit, authHandler.Login)
			users.GET("/oauth/google", authHandler.OAuthGoogle)
			users.POST("/logout", authHandler.Logout)
			users.POST("/refresh-token", authHandler.RefreshToken)
			users.POST("/verify-email", authHandler.VerifyEmail)
			users.POST("/resend-verify-email", auth, rateLimit, authHandler.ResendVerifyEmail)
			users.POST("/forgot-password", rateLimit, authHandler.ForgotPassword)
			users.POST("/verify-forgot-password", authHandler.VerifyForgotPassword)
			users.POST("/reset-password", authHandler.ResetPassword)
			users.PUT("/change-password", auth, verified, authHandler.ChangePassword)

			users.GET("/me", auth, userHandler.GetMe)
			users.PATCH("/me", auth, verified, userHandler.UpdateMe)
			users.POST("/me/circle", auth, verified, userHandler.AddToCircle)
			users.DELETE("/me/circle/:user_id", auth, verified, userHandler.RemoveFromCircle)
			users.POST("/follow", auth, verified, userHandler.Follow)
			users.DELETE("/follow/:user_id", auth, verified, userHandler.Unfollow)
			users.GET("/:username", userHandler.GetProfile)
		}

		tweets := api.Group("/tweets")
		{
			tweets.POST("", auth, verified, tweetHandler.CreateTweet)
			tweets.GET("/:tweet_id", optionalAuth, verifiedIfPresent, tweetHandler.GetTweet)
		}

		bookmarks := api.Group("/bookmarks")
		{
			bookmarks.POST("", auth, verified, tweetHandler.Bookmark)
			bookmarks.DELETE("/tweets/:tweet_id", auth, verified, tweetHandler.Unbookmark)
		}
	}

	return router, nil
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.janitor.Run(janitorCtx)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopJanitor()

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		return err
	}

	return nil
}
