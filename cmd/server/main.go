package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"taskapi/internal/config"
	"taskapi/internal/database"
	"taskapi/internal/logger"
	"taskapi/internal/server"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// @title           Task API
// @version         1.0
// @description     Create, read, update, delete and query tasks. Every route requires HTTP Basic credentials.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.basic BasicAuth

// @schemes http
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskapi",
		Short:         "Task tracking HTTP service",
		Long:          "Task tracking HTTP service.\n\nEnvironment:\n" + config.Usage(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Migrate, insert demo tasks into an empty table and exit",
			RunE:  runSeed,
		},
	)

	return root
}

// bootstrap loads configuration and builds the logger every subcommand needs.
func bootstrap() (*config.Config, zerolog.Logger, error) {
	dotEnvErr := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return nil, zerolog.Nop(), err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return nil, zerolog.Nop(), err
	}

	if dotEnvErr != nil {
		log.Info().Msg("no .env file found, using system environment variables")
	}
	return cfg, log, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	s, err := server.Init(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("server initialization failed")
		return err
	}

	if err := s.Run(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	return nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, dialect, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, dialect); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return err
	}

	log.Info().Str("dialect", string(dialect)).Msg("migrations applied")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, dialect, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, dialect); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	n, err := database.Seed(ctx, db, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("seeding failed")
		return err
	}

	if n == 0 {
		log.Info().Msg("tasks table not empty, nothing seeded")
		return nil
	}
	log.Info().Int("tasks", n).Msg("seeded demo tasks")
	return nil
}
