package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Azuznn/fanclub-site12/simulator"

	"github.com/lmittmann/tint"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	})))

	config := simulator.SimConfig{
		NumUsers:       20,
		NumFanclubs:    5,
		PostsPerClub:   6,
		ReadIterations: 200,
		EngineURL:      "http://localhost:8080",
	}
	if url := os.Getenv("ENGINE_URL"); url != "" {
		config.EngineURL = url
	}

	sim := simulator.New(config)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := sim.Run(ctx); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	stats := sim.Stats()
	slog.Info("final stats",
		"requests", stats.TotalRequests,
		"failed", stats.FailedRequests,
		"joinConflicts", stats.JoinConflicts,
		"postsVisible", stats.PostsVisible,
		"postsHidden", stats.PostsHidden)
}
