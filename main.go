package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutor-billing/config"
	"tutor-billing/internal/app"
	"tutor-billing/internal/logger"
	"tutor-billing/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tutor-billing",
		Short:         "Session billing and payment notifications for tutoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), batchCmd("billing-runner", "Charge tomorrow's sessions once", func(a *app.App) batch {
		return a.Runner
	}), batchCmd("billing-retry", "Retry failed payments that are due", func(a *app.App) batch {
		return a.Retry
	}))
	return root
}

type batch interface {
	Run(ctx context.Context) (payments.BatchResult, error)
}

func bootstrap() (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return nil, log, err
	}
	return a, log, nil
}

func serveCmd() *cobra.Command {
	var withScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if os.Getenv("GIN_MODE") == "" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if withScheduler || a.Config.SchedulerEnabled {
				s, err := a.Scheduler()
				if err != nil {
					return err
				}
				s.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()
					s.Stop(stopCtx)
				}()
			}

			srv := &http.Server{
				Addr:              ":" + a.Config.Port,
				Handler:           a.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					log.Error("http server failed", zap.Error(err))
					return err
				}
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&withScheduler, "scheduler", false, "run billing jobs on their cron schedules (also SCHEDULER_ENABLED)")
	return cmd
}

// batchCmd runs one batch and exits, for external schedulers.
func batchCmd(use, short string, pick func(*app.App) batch) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := pick(a).Run(cmd.Context())
			if err != nil {
				log.Error(use+" failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "{\"ok\":true,\"attempted\":%d,\"skipped\":%d}\n", res.Attempted(), res.Skipped())
			return nil
		},
	}
}
