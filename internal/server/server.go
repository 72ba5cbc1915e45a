// Package server contains the HTTP handlers for the vidnest API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"vidnest/internal/auth"
	"vidnest/internal/bootstrap"
	"vidnest/internal/config"
	"vidnest/internal/database"
	"vidnest/internal/media"
	"vidnest/internal/middleware"
	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/repository"
	"vidnest/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	credentialLimit  = 10
	credentialWindow = 15 * time.Minute
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	promRegistry   *prometheus.Registry
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens   *auth.Tokens
	store    media.Store
	uploader service.MediaUploader
	notifier *notifications.Notifier
	limits   service.Limits

	userRepo    repository.UserRepository
	videoRepo   repository.VideoRepository
	tweetRepo   repository.TweetRepository
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	subRepo     repository.SubscriptionRepository

	projector *service.Projector
	threads   *service.ThreadAssembler

	userService         *service.UserService
	videoService        *service.VideoService
	commentService      *service.CommentService
	likeService         *service.LikeService
	subscriptionService *service.SubscriptionService
	tweetService        *service.TweetService
}

// NewServer connects the database, redis and the media backend and builds a Server on top.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. A nil redis client disables caching, token
// revocation and notifications.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("media store is required")
	}
	limits := service.LimitsFromConfig(cfg)

	prom, promRegistry := middleware.InitMetrics("vidnest-api")
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		promRegistry:   promRegistry,
		tokens: auth.NewTokens(cfg.JWTSecret,
			time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute,
			time.Duration(cfg.RefreshTokenTTLHours)*time.Hour,
			auth.NewRedisRevocations(redisClient)),
		store:       store,
		uploader:    media.NewUploader(store, cfg),
		notifier:    notifications.NewNotifier(redisClient),
		limits:      limits,
		userRepo:    repository.NewUserRepository(db),
		videoRepo:   repository.NewVideoRepository(db),
		tweetRepo:   repository.NewTweetRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		likeRepo:    repository.NewLikeRepository(db),
		subRepo:     repository.NewSubscriptionRepository(db),
	}

	s.projector = service.NewProjector(s.likeRepo, s.subRepo)
	s.threads = service.NewThreadAssembler(s.commentRepo, s.projector, limits)

	s.userService = service.NewUserService(s.userRepo, s.tokens, s.uploader, s.projector)
	s.videoService = service.NewVideoService(s.videoRepo, s.userRepo, s.likeRepo, s.commentRepo,
		s.projector, s.threads, s.uploader, limits, time.Duration(cfg.VideoListCacheTTL)*time.Second)
	s.commentService = service.NewCommentService(s.commentRepo, s.videoRepo, s.tweetRepo, s.likeRepo,
		s.projector, s.threads, s.notifier, limits)
	s.likeService = service.NewLikeService(s.likeRepo, s.videoRepo, s.tweetRepo, s.commentRepo,
		s.projector, s.notifier, limits)
	s.subscriptionService = service.NewSubscriptionService(s.subRepo, s.userRepo, s.projector, s.notifier, limits)
	s.tweetService = service.NewTweetService(s.tweetRepo, s.userRepo, s.commentRepo, s.likeRepo,
		s.projector, s.threads, s.uploader, limits)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagate request id, trace id and user id into the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so throttled responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all API routes
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.HealthCheck)

	if s.promRegistry != nil {
		app.Get("/metrics", middleware.MetricsHandler(s.promRegistry))
	}
	app.Get("/monitor", monitor.New(monitor.Config{Title: "vidnest monitor"}))

	if s.config.MediaBackend == config.MediaBackendLocal || s.config.MediaBackend == "" {
		app.Static("/media", s.config.MediaLocalDir)
	}

	api := app.Group("/api/v1")
	api.Get("/healthcheck", s.HealthCheck)

	required := middleware.AuthRequired(s.tokens)
	optional := middleware.OptionalAuth(s.tokens)
	credentials := middleware.RateLimit(s.redis, credentialLimit, credentialWindow, "credentials", middleware.FailOpen)

	users := api.Group("/users")
	users.Post("/register", credentials, s.Register)
	users.Post("/login", credentials, s.Login)
	users.Post("/refresh-token", credentials, s.RefreshToken)
	users.Post("/logout", required, s.Logout)
	users.Post("/change-password", required, credentials, s.ChangePassword)
	users.Get("/me", required, s.GetMe)
	users.Patch("/me", required, s.UpdateAccount)
	users.Patch("/avatar", required, s.UpdateAvatar)
	users.Patch("/cover-image", required, s.UpdateCoverImage)
	users.Get("/c/:username", optional, s.GetChannelProfile)

	videos := api.Group("/videos")
	videos.Get("/", optional, s.ListVideos)
	videos.Post("/", required, s.PublishVideo)
	videos.Patch("/toggle/publish/:id", required, s.TogglePublish)
	videos.Get("/:id", optional, s.GetVideo)
	videos.Patch("/:id", required, s.UpdateVideo)
	videos.Patch("/:id/thumbnail", required, s.UpdateThumbnail)
	videos.Delete("/:id", required, s.DeleteVideo)

	comments := api.Group("/comments")
	comments.Get("/thread/:commentId", optional, s.GetCommentThread)
	comments.Post("/:commentId/replies", required, s.AddReply)
	comments.Patch("/c/:commentId", required, s.UpdateComment)
	comments.Delete("/c/:commentId", required, s.DeleteComment)
	comments.Get("/:videoId", optional, s.ListVideoComments)
	comments.Post("/:videoId", required, s.AddVideoComment)
	comments.Patch("/:commentId", required, s.UpdateComment)
	comments.Delete("/:commentId", required, s.DeleteComment)

	likes := api.Group("/likes", required)
	likes.Post("/toggle/:kind/:id", s.ToggleLike)
	likes.Get("/videos", s.GetLikedVideos)

	subs := api.Group("/subscriptions")
	subs.Post("/toggle/:channelId", required, s.ToggleSubscription)
	subs.Get("/c/:channelId", optional, s.GetChannelSubscribers)
	subs.Get("/u/:subscriberId", optional, s.GetSubscribedChannels)

	tweets := api.Group("/tweets")
	tweets.Post("/", required, s.CreateTweet)
	tweets.Get("/user/:userId", optional, s.GetUserTweets)
	tweets.Get("/:id", optional, s.GetTweet)
	tweets.Patch("/:id", required, s.UpdateTweet)
	tweets.Delete("/:id", required, s.DeleteTweet)
	tweets.Get("/:id/comments", optional, s.ListTweetComments)
	tweets.Post("/:id/comments", required, s.AddTweetComment)

	notes := api.Group("/notifications")
	notes.Get("/stream", required, s.StreamNotifications)
	notes.Post("/ticket", required, s.IssueNotificationTicket)
	notes.Get("/ws", s.NotificationTicketAuth, s.NotificationSocket())
}

// HealthCheck reports process liveness under the API prefix.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return models.Respond(c, fiber.StatusOK, fiber.Map{"status": "up"}, "OK")
}

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles GET /health/ready and pings the database and redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"media":    s.store.Backend(),
		},
		"time": time.Now(),
	})
}

// NewApp builds a Fiber app with the envelope error handler and all middleware and routes.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := 256 << 20
	if s.config.MediaMaxUploadMB > 0 {
		// leave room for the other form fields around the largest file
		bodyLimit = (s.config.MediaMaxUploadMB + 16) << 20
	}
	app := fiber.New(fiber.Config{
		AppName:   "vidnest API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := models.StatusFor(err)
			if status >= fiber.StatusInternalServerError {
				middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			}
			return models.RespondWithError(c, status, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the listener, ends open notification streams and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

func (s *Server) baseContext() context.Context {
	if s.shutdownCtx != nil {
		return s.shutdownCtx
	}
	return context.Background()
}
