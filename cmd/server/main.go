package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/internal/auth"
	"github.com/freeeve/salvo/internal/bot"
	"github.com/freeeve/salvo/internal/config"
	"github.com/freeeve/salvo/internal/handler"
	"github.com/freeeve/salvo/internal/logger"
	"github.com/freeeve/salvo/internal/metrics"
	"github.com/freeeve/salvo/internal/middleware"
	"github.com/freeeve/salvo/internal/repository"
	"github.com/freeeve/salvo/internal/repository/postgres"
	redisrepo "github.com/freeeve/salvo/internal/repository/redis"
	"github.com/freeeve/salvo/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	bot.GonnxModelPath = cfg.GonnxModelPath

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid game rules")
	}
	log.Info().Int("size", rules.Size).Ints("fleet", rules.Fleet).Bool("adjacency", rules.Adjacency).
		Str("difficulty", rules.Difficulty).Msg("Config loaded")

	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer startCancel()

	// Database
	db, err := postgres.Connect(startCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(startCtx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()
	redisClient.WithTTL(cfg.CacheTTL)

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManagerWithTTL(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	googleOAuth := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	gameSvc := service.NewGameService(gameRepo, redisClient, rules, wsHub)

	root := newRouter(routerDeps{
		cfg:      cfg,
		jwtMgr:   jwtMgr,
		google:   googleOAuth,
		userRepo: userRepo,
		gameSvc:  gameSvc,
		hub:      wsHub,
		health:   healthz(db, redisClient),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

type routerDeps struct {
	cfg      *config.Config
	jwtMgr   *auth.JWTManager
	google   *auth.OAuthProvider
	userRepo repository.UserRepository
	gameSvc  *service.GameService
	hub      *handler.Hub
	health   http.HandlerFunc
}

// newRouter wires every route and the global middleware.
func newRouter(d routerDeps) http.Handler {
	origins := strings.Split(d.cfg.AllowedOrigins, ",")
	authHandler := handler.NewAuthHandler(d.google, d.jwtMgr, d.userRepo, d.cfg.DevLogin)
	userHandler := handler.NewUserHandler(d.userRepo, d.gameSvc)
	gameHandler := handler.NewGameHandler(d.gameSvc)
	wsHandler := handler.NewWSHandler(d.hub, d.jwtMgr, origins)

	mux := http.NewServeMux()
	authMw := auth.Middleware(d.jwtMgr)

	// Health and metrics
	mux.HandleFunc("GET /healthz", d.health)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes. Full patterns keep the metrics route label exact.
	api := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, authMw(h)) }
	api("GET /api/v1/users/me", userHandler.GetMe)
	api("PATCH /api/v1/users/me", userHandler.UpdateMe)
	api("GET /api/v1/rules", gameHandler.Rules)
	api("POST /api/v1/games", gameHandler.CreateGame)
	api("GET /api/v1/games", gameHandler.ListGames)
	api("GET /api/v1/games/{id}", gameHandler.GetGame)
	api("GET /api/v1/games/{id}/shots", gameHandler.ListShots)
	api("POST /api/v1/games/{id}/shots", gameHandler.Fire)
	api("GET /api/v1/games/{id}/suggest", gameHandler.Suggest)
	api("POST /api/v1/games/{id}/autoplay", gameHandler.Autoplay)

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	return middleware.Chain(mux, middleware.Logger, middleware.Metrics, middleware.CORS(d.cfg.AllowedOrigins), middleware.JSON)
}

// healthz reports whether postgres and redis answer.
func healthz(db *sql.DB, rc *redisrepo.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg("Health check: postgres down")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"postgres unavailable"}`))
			return
		}
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Health check: redis down")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"redis unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}
