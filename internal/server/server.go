// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	"forum/internal/cache"
	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/email"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/repository"
	"forum/internal/service"
	"forum/internal/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config             *config.Config
	db                 *database.Database
	redis              *redis.Client
	app                *fiber.App
	codec              *token.Codec
	userRepo           repository.UserRepository
	postRepo           repository.PostRepository
	userService        *service.UserService
	postService        *service.PostService
	interactionService *service.InteractionService
	imageService       *service.ImageService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient()), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *database.Database, redisClient *redis.Client) *Server {
	codec := token.NewCodec(cfg.JWTSecret)
	middleware.InitMiddleware(codec)

	var notifier email.Notifier
	if cfg.ResendAPIKey != "" {
		notifier = email.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom, cfg.BaseURL)
	} else {
		notifier = email.NewLogNotifier(cfg.BaseURL)
	}

	server := &Server{
		config: cfg,
		db:     db,
		redis:  redisClient,
		codec:  codec,
	}
	server.userRepo = repository.NewUserRepository(db.Users())
	server.postRepo = repository.NewPostRepository(db.Posts())
	server.userService = service.NewUserService(server.userRepo, codec, notifier, cfg.EmailSuffixes())
	server.postService = service.NewPostService(server.postRepo, server.userRepo)
	server.interactionService = service.NewInteractionService(server.postRepo, server.userRepo)
	server.imageService = service.NewImageService(cfg.ImageUploadDir, cfg.ImageMaxUploadSizeMB)
	return server
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics and scrape endpoint
	middleware.InitMetrics(app)
	app.Use(middleware.MetricsMiddleware())

	// Distributed tracing
	app.Use(middleware.TracingMiddleware())

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Uploaded images
	app.Static("/uploads", s.config.ImageUploadDir)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", s.Signup)
	auth.Post("/verify", s.Verify)
	auth.Post("/login", s.Login)
	auth.Get("/me", middleware.AuthRequired, s.GetMe)

	// Public post routes; optional auth derives per-viewer flags
	posts := api.Group("/posts", middleware.OptionalAuth)
	posts.Get("/", s.GetPosts)
	posts.Get("/search", s.SearchPosts)
	posts.Get("/:id", s.GetPost)
	posts.Get("/:id/comments", s.GetComments)

	// Protected post routes
	posts.Post("/", middleware.AuthRequired, s.CreatePost)
	posts.Post("/:id/like", middleware.AuthRequired, s.LikePost)
	posts.Post("/:id/forward", middleware.AuthRequired, s.ForwardPost)
	posts.Post("/:id/comments", middleware.AuthRequired, s.CreateComment)
	posts.Put("/:id", middleware.AuthRequired, s.UpdatePost)
	posts.Delete("/:id", middleware.AuthRequired, s.DeletePost)

	// User routes
	users := api.Group("/users")
	users.Put("/me/username", middleware.AuthRequired, s.UpdateMyUsername)
	users.Post("/resolve", s.ResolveAuthors)
	users.Get("/:id/posts", middleware.OptionalAuth, s.GetUserPosts)
	users.Get("/:id", s.GetUserProfile)

	// Image upload
	api.Post("/images", middleware.AuthRequired, s.UploadImage)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app degrades to uncached reads without Redis.
		redisStatus = "unavailable"
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"checks": fiber.Map{
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "Forum API",
		BodyLimit: int(s.imageService.MaxBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Disconnect(ctx); err != nil {
			log.Printf("error closing mongodb: %v", err)
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
