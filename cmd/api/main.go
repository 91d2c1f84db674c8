package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/app"
	"github.com/residence-ops/residence-tickets/internal/config"
	"github.com/residence-ops/residence-tickets/internal/observability"
	"github.com/residence-ops/residence-tickets/internal/persistence"
	"github.com/residence-ops/residence-tickets/internal/service"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// runtimeEnv is loaded once per command invocation.
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return &runtimeEnv{cfg: cfg, logger: logger}, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "residence-tickets",
		Short:         "Maintenance ticket service for a residential building",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			defer env.logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.Build(ctx, env.cfg, env.logger)
			if err != nil {
				return err
			}
			defer application.Close()

			workersDone := application.StartWorkers(ctx)
			server := application.HTTP()

			listenErr := make(chan error, 1)
			go func() {
				listenErr <- server.Listen(env.cfg.App.Addr())
			}()
			env.logger.Info("listening", zap.String("addr", env.cfg.App.Addr()))

			select {
			case err := <-listenErr:
				stop()
				<-workersDone
				return fmt.Errorf("fiber listen: %w", err)
			case <-ctx.Done():
			}

			env.logger.Info("shutting down")
			if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
				env.logger.Warn("http shutdown", zap.Error(err))
			}
			<-workersDone
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			defer env.logger.Sync() //nolint:errcheck

			if env.cfg.Postgres.DSN == "" {
				return errors.New("POSTGRES_DSN is required")
			}
			if dir == "" {
				dir = env.cfg.Postgres.MigrationsDir
			}
			pg := persistence.NewPostgres(env.cfg.Postgres, env.logger)
			defer pg.Close()
			return persistence.RunMigrations(cmd.Context(), pg, dir, env.logger)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (defaults to POSTGRES_MIGRATIONS_DIR)")
	return cmd
}

func newSeedCommand() *cobra.Command {
	var input service.RegisterUserInput
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			defer env.logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			application, err := app.Build(ctx, env.cfg, env.logger)
			if err != nil {
				return err
			}
			defer application.Close()

			user, err := application.Services.Auth.RegisterUser(ctx, input)
			if apperrors.HasCode(err, apperrors.CodeConflict) {
				env.logger.Info("user already exists", zap.String("email", input.Email))
				return nil
			}
			if err != nil {
				if fields := apperrors.Violations(err); len(fields) > 0 {
					for _, f := range fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f.Field, f.Reason)
					}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&input.FirstName, "first-name", "", "first name")
	flags.StringVar(&input.LastName, "last-name", "", "last name")
	flags.StringVar(&input.Email, "email", "", "login email")
	flags.StringVar(&input.Password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

