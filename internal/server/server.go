package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "taskapi/docs"
	"taskapi/internal/config"
	"taskapi/internal/database"
	"taskapi/internal/handler"
	"taskapi/internal/middleware"
	"taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
	log    zerolog.Logger
}

// Init opens and migrates storage, then wires repository, optional cache,
// service and handlers into a router.
func Init(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	db, dialect, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Info().Str("dialect", string(dialect)).Msg("connected to database")

	if err := database.Migrate(db, dialect); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}

	if cfg.Seed {
		n, err := database.Seed(context.Background(), db, time.Now())
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("failed to seed DB: %w", err)
		}
		log.Info().Int("tasks", n).Msg("seeded database")
	}

	taskRepo := repository.NewTaskRepository(db)
	var store service.TaskStore = taskRepo

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cache will fall through to the database")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("task cache enabled")
		}
		cancel()
		store = repository.NewCachedTaskRepository(taskRepo, rdb, cfg.CacheTTL, log)
	}

	taskService := service.NewTaskService(store, log)

	auth := middleware.BasicAuthConfig{
		User:         cfg.BasicUser,
		Password:     cfg.BasicPass,
		PasswordHash: cfg.BasicPassHash,
		Realm:        cfg.AuthRealm,
	}

	return &Server{
		Engine: NewRouter(taskService, auth, log),
		DB:     db,
		Redis:  rdb,
		Config: cfg,
		log:    log,
	}, nil
}

// NewRouter registers every route. CORS preflights are answered first; every
// other request, matched or not, must pass the auth gate before routing.
func NewRouter(svc handler.TaskService, auth middleware.BasicAuthConfig, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	// unmatched paths fall through to the middleware chain instead of a bare redirect
	r.RedirectTrailingSlash = false
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Location", "WWW-Authenticate"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(middleware.BasicAuthMiddleware(auth, log))

	taskHandler := handler.NewTaskHandler(svc)

	r.GET("/tasks", taskHandler.List)
	r.POST("/tasks", taskHandler.Create)
	r.GET("/tasks/:id", taskHandler.GetByID)
	r.PUT("/tasks/:id", taskHandler.Update)
	r.DELETE("/tasks/:id", taskHandler.Delete)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *Server) Run() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("port", s.Config.ServerPort).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to listen: %w", err)
	case sig := <-quit:
		s.log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.log.Info().Msg("server exited properly")
	return nil
}

// Close releases the database and cache connections.
func (s *Server) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if err := database.Close(s.DB); err != nil {
		s.log.Warn().Err(err).Msg("failed to close database")
	}
}
