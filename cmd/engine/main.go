package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/config"
	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/engine"
	"github.com/Azuznn/fanclub-site12/internal/handlers"
	"github.com/Azuznn/fanclub-site12/internal/middleware"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

func openDatabase(cfg *config.Config) (database.DBAdapter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cfg.Database.Type {
	case "mongo":
		db, err := database.NewMongoDB(cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return db, nil

	case "postgres":
		db, err := database.NewPostgresDB(cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeTables(ctx); err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Debug)
	middleware.SetJWTSecret(cfg.JWTSecret)

	db, err := openDatabase(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "type", cfg.Database.Type, "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			slog.Warn("database close failed", "error", err)
		}
	}()

	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()
	appEngine := engine.NewEngine(system, metrics, db)
	server := handlers.NewServer(system, appEngine, metrics, db)

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	public := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ApplyCORS(middleware.OptionalAuth(h), corsConfig)
	}
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ApplyCORS(middleware.RequireAuth(h), corsConfig)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", middleware.ApplyCORS(server.HandleHealth(), corsConfig))
	mux.HandleFunc("/health/simple", middleware.ApplyCORS(server.HandleSimpleHealth(), corsConfig))

	mux.HandleFunc("/user/register", middleware.ApplyCORS(server.HandleUserRegistration(), corsConfig))
	mux.HandleFunc("/user/login", middleware.ApplyCORS(server.HandleUserLogin(), corsConfig))
	mux.HandleFunc("/user/profile", protected(server.HandleUserProfile()))

	// Reads stay public so anonymous visitors can browse; the visibility
	// gate decides per post what they actually see.
	mux.HandleFunc("/fanclub", public(server.HandleFanclubs()))
	mux.HandleFunc("/fanclub/members", public(server.HandleFanclubMembers()))
	mux.HandleFunc("/fanclub/consistency", protected(server.HandleFanclubConsistency()))
	mux.HandleFunc("/fanclub/join", protected(server.HandleJoinFanclub()))
	mux.HandleFunc("/fanclub/leave", protected(server.HandleLeaveFanclub()))

	mux.HandleFunc("/post", public(server.HandlePosts()))
	mux.HandleFunc("/post/list", public(server.HandleFanclubPosts()))
	mux.HandleFunc("/post/visibility", protected(server.HandlePostVisibility()))
	mux.HandleFunc("/comment", public(server.HandleComments()))

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting server", "addr", serverAddr, "db", cfg.Database.Type)
	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
