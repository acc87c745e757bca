package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rentmeroom/internal/auth/token"
	"rentmeroom/internal/blob"
	identityservice "rentmeroom/internal/identity/service"
	"rentmeroom/internal/identity/store/pending"
	"rentmeroom/internal/identity/store/user"
	"rentmeroom/internal/platform/config"
	"rentmeroom/internal/platform/email"
	"rentmeroom/internal/platform/httpserver"
	"rentmeroom/internal/platform/logger"
	"rentmeroom/internal/platform/postgres"
)

func main() {
	root := &cobra.Command{
		Use:           "rentmeroom",
		Short:         "Room rental marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), promoteAdminCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)
			if cfg.UsingDevSigningKey() {
				log.Warn("JWT_SIGNING_KEY is the development default")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if migrate && cfg.Database.URL != "" {
				if err := runMigrations(ctx, cfg); err != nil {
					return err
				}
			}

			a, err := build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close(log)

			srv := httpserver.New(cfg.Server.Addr, a.router)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("starting rentmeroom", "addr", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
				defer cancel()
				log.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving when DATABASE_URL is set")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg)
		},
	}
}

func runMigrations(ctx context.Context, cfg config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func promoteAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote-admin <email>",
		Short: "Grant the admin role to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)
			ctx := cmd.Context()

			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := identityservice.New(
				user.NewPostgres(db),
				pending.NewPostgres(db),
				email.NewLog(log),
				token.New(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer),
				blob.NewMemory(),
				identityservice.WithLogger(log),
			)
			u, err := svc.PromoteAdmin(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", u.Email)
			return nil
		},
	}
}
