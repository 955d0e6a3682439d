package router

import (
	"time"

	"github.com/anonto42/postboard/internal/forms"
	"github.com/anonto42/postboard/internal/handlers"
	"github.com/anonto42/postboard/internal/media"
	"github.com/anonto42/postboard/internal/middleware"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/pkg/config"
	"github.com/anonto42/postboard/pkg/firebase"
	"github.com/anonto42/postboard/validators"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the connections and settings the routes are built from.
// Mongo, Redis and Firebase are optional.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	SQL      *gorm.DB
	Mongo    *mongo.Client
	Redis    *redis.Client
	Firebase firebase.Verifier
}

// New builds the echo instance with middleware, error handling and routes.
func New(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(deps.Logger)

	config.SetupMiddleware(e, deps.Config, deps.Logger)
	SetupRoutes(e, deps)
	return e
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg, logger := deps.Config, deps.Logger
	v, ok := e.Validator.(*validators.CustomValidator)
	if !ok {
		v = validators.NewValidator()
		e.Validator = v
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewSQLUserRepository(deps.SQL)
	groupRepo := repositories.NewSQLGroupRepository(deps.SQL)
	postRepo := repositories.NewSQLPostRepository(deps.SQL)
	commentRepo := repositories.NewSQLCommentRepository(deps.SQL)
	followRepo := repositories.NewSQLFollowRepository(deps.SQL)

	var flatPageRepo repositories.FlatPageRepository = repositories.NewSQLFlatPageRepository(deps.SQL)
	if deps.Mongo != nil {
		flatPageRepo = repositories.NewMongoFlatPageRepository(deps.Mongo.Database(cfg.MongoDatabase))
		logger.Info("flat pages served from MongoDB", zap.String("database", cfg.MongoDatabase))
	}

	// --- Session and throttling ---
	sessions := middleware.NewSessions(cfg.JWTSecret, cfg.SessionTTL, cfg.IsProduction())
	e.Use(middleware.SessionAuth(sessions, userRepo, logger))
	e.Use(middleware.RateLimit(newLimiter(deps.Redis, cfg.RateLimitRequests, cfg.RateLimitWindow), logger))
	requireAuth := middleware.RequireAuth()

	e.GET("/health", handlers.HealthCheck)

	authHandler := handlers.NewAuthHandler(userRepo, sessions, deps.Firebase, logger)
	authHandler.RegisterAuthRoutes(e.Group("/auth"))

	feedHandler := handlers.NewFeedHandler(postRepo, groupRepo, handlers.PageSizes{
		Index:  cfg.IndexPageSize,
		Group:  cfg.GroupPageSize,
		Follow: cfg.FollowPageSize,
	})
	feedHandler.RegisterFeedRoutes(e, requireAuth)

	flatPageHandler := handlers.NewFlatPageHandler(flatPageRepo)
	flatPageHandler.RegisterFlatPageRoutes(e)

	postForm := forms.NewPostFormParser(v, groupRepo, cfg.MaxUploadBytes)
	postHandler := handlers.NewPostHandler(postRepo, commentRepo, followRepo, postForm, media.NewLocalStorage(cfg.MediaRoot), logger)
	postHandler.RegisterPostRoutes(e, requireAuth)

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, v)
	commentHandler.RegisterCommentRoutes(e, requireAuth)

	followHandler := handlers.NewFollowHandler(followRepo, userRepo)
	followHandler.RegisterFollowRoutes(e, requireAuth)

	profileHandler := handlers.NewProfileHandler(userRepo, postRepo, followRepo, cfg.ProfilePageSize)
	profileHandler.RegisterProfileRoutes(e)

	logger.Debug("routes configured", zap.Int("count", len(e.Routes())))
}

func newLimiter(client *redis.Client, limit int, window time.Duration) middleware.Limiter {
	if client != nil {
		return middleware.NewRedisLimiter(client, limit, window)
	}
	return middleware.NewMemoryLimiter(limit, window)
}
