package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rawblock/nicefield/internal/api"
	"github.com/rawblock/nicefield/internal/dispatch"
	"github.com/rawblock/nicefield/internal/scheduler"
	"github.com/rawblock/nicefield/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sweepInterval is how often the background scheduler runs the consensus
// engine, the downsampling roll-up, and the filter-soundness audit.
const sweepInterval = 2 * time.Minute

// auditSampleSize bounds how many recently-claimed niceonly fields the
// filter-soundness audit re-checks against ground truth per sweep.
const auditSampleSize = 25

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Info().Msg("starting nicefield coordinator")

	// ─── Required Environment Variables ─────────────────────────────────
	// The coordinator reads a database URL from an environment variable
	// at startup.
	// ────────────────────────────────────────────────────────────────────
	dbURL := requireEnv("DATABASE_URL")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Connect(ctx, dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer st.Close()

	if err := st.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}

	hub := api.NewHub()
	go hub.Run()

	disp := dispatch.New(st)

	runner := scheduler.NewRunner(st, sweepInterval, auditSampleSize)
	go runner.Run(ctx)

	r := api.SetupRouter(st, disp, hub)

	port := getEnvOrDefault("PORT", "8080")

	go func() {
		log.Info().Str("port", port).Msg("coordinator listening")
		if err := r.Run(":" + port); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutdown signal received")
	cancel()
}

// requireEnv reads a required environment variable and exits if it is not set.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatal().Str("var", key).Msg("required environment variable is not set")
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
