package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campusdesk/internal/access"
	"campusdesk/internal/common/cache"
	"campusdesk/internal/common/db"
	"campusdesk/internal/common/http/middleware"
	problemcontroller "campusdesk/internal/problem/controller"
	problemrepository "campusdesk/internal/problem/repository"
	problemservice "campusdesk/internal/problem/service"
	usercontroller "campusdesk/internal/user/controller"
	"campusdesk/internal/user/model"
	userrepository "campusdesk/internal/user/repository"
	userservice "campusdesk/internal/user/service"
	pkgerrors "campusdesk/pkg/errors"
	"campusdesk/pkg/utils/logger"
	"campusdesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	revocationLocalSize = 4096
	healthCheckTimeout  = 2 * time.Second
)

// Dependencies contains initialized infrastructure for the server.
type Dependencies struct {
	Database db.Database
	// Cache is nil when no Redis address is configured.
	Cache cache.Cache
}

// Close releases initialized resources.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis cache failed: %w", err))
		}
	}
	if d.Database != nil {
		if err := d.Database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database failed: %w", err))
		}
	}
	return errors.Join(errs...)
}

// InitDependencies migrates the schema, opens the database and connects to Redis when configured.
func InitDependencies(ctx context.Context, cfg *Config) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before initialization: %w", err)
	}

	dbConfig := cfg.Database.DBConfig()
	if cfg.Database.Migrate == nil || *cfg.Database.Migrate {
		version, err := db.Migrate(dbConfig)
		if err != nil {
			return nil, fmt.Errorf("migrate database failed: %w", err)
		}
		logger.Info(ctx, "database migrated", zap.String("driver", cfg.Database.Driver), zap.Uint("version", version))
	}

	database, err := db.Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("init database failed: %w", err)
	}
	deps := &Dependencies{Database: database}

	if cfg.Redis.Addr == "" {
		logger.Warn(ctx, "redis not configured; caching, login limiting and token revocation are disabled")
		return deps, nil
	}
	redisCache, err := cache.NewRedisCacheWithConfig(cfg.Redis.RedisCacheConfig())
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init redis failed: %w", err)
	}
	deps.Cache = redisCache
	return deps, nil
}

// Server holds the wired services and the HTTP router.
type Server struct {
	cfg            *Config
	deps           *Dependencies
	router         *gin.Engine
	authService    *userservice.AuthService
	problemService *problemservice.ProblemService
}

// New wires repositories, services and controllers over deps.
func New(cfg *Config, deps *Dependencies) (*Server, error) {
	if cfg == nil || deps == nil || deps.Database == nil {
		return nil, errors.New("config and database are required")
	}

	provider := db.NewManager(deps.Database)

	userRepo := userrepository.NewUserRepositoryWithTTL(provider, deps.Cache, cfg.Cache.UserTTL, cfg.Cache.EmptyTTL)
	problemRepo := problemrepository.NewProblemRepositoryWithTTL(provider, deps.Cache, cfg.Cache.ProblemTTL, cfg.Cache.EmptyTTL)

	var revoker userservice.Revoker
	if deps.Cache != nil {
		revoker = userrepository.NewRevocationRepository(
			deps.Cache,
			cache.NewLRU[bool](revocationLocalSize, time.Minute),
			0,
			0,
		)
	}

	tokens := userservice.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	authService := userservice.NewAuthService(userRepo, tokens, revoker, deps.Cache, userservice.AuthServiceConfig{
		BcryptCost:     cfg.Auth.BcryptCost,
		LoginFailTTL:   cfg.LoginLimit.Window,
		LoginFailLimit: cfg.LoginLimit.MaxFailures,
	})
	problemService := problemservice.NewProblemService(provider, problemRepo, userRepo)

	s := &Server{
		cfg:            cfg,
		deps:           deps,
		authService:    authService,
		problemService: problemService,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer returns an http.Server bound to the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.TraceContextMiddleware())
	router.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		Enabled:          len(s.cfg.Server.CORSOrigins) > 0,
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Trace-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           "600",
	}))
	router.Use(middleware.RequestLogger())

	router.GET("/healthz", s.health)
	router.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, pkgerrors.NotFound, "Route not found")
	})

	authController := usercontroller.NewAuthController(s.authService, usercontroller.CookieConfig{
		Secure: s.cfg.Auth.CookieSecure,
		Domain: s.cfg.Auth.CookieDomain,
	})
	studentController := problemcontroller.NewStudentController(s.problemService)
	professorController := problemcontroller.NewProfessorController(s.problemService)
	authenticate := access.Authenticate(s.authService)

	api := router.Group(s.cfg.Server.BasePath)

	auth := api.Group("/auth")
	auth.POST("/create", authController.Create)
	auth.POST("/login", authController.Login)
	auth.POST("/logout", authenticate, authController.Logout)
	auth.POST("/changePassword", authenticate, authController.ChangePassword)
	auth.GET("/check", authenticate, authController.Check)

	student := api.Group("/student", authenticate, access.RequireRole(model.RoleStudent))
	student.POST("/createProblem", studentController.CreateProblem)
	student.GET("/allProblem", studentController.AllProblems)
	student.GET("/getProblemById/:id", studentController.GetProblemByID)

	professor := api.Group("/professor", authenticate, access.RequireRole(model.RoleProfessor))
	professor.GET("", professorController.GetAllProblems)
	professor.GET("/getAllProblems", professorController.GetAllProblems)
	professor.GET("/getProblemById/:id", professorController.GetProblemByID)
	professor.POST("/respondToProblemById/:id", professorController.RespondToProblem)

	return router
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()
	if err := s.deps.Database.Ping(ctx); err != nil {
		logger.Warn(c.Request.Context(), "health check database ping failed", zap.Error(err))
		response.ErrorWithCode(c, pkgerrors.ServiceUnavailable, "Database unavailable")
		return
	}
	response.Success(c, "ok", nil)
}
