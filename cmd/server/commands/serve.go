package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/internal/router"
	"github.com/anonto42/postboard/pkg/config"
	"github.com/anonto42/postboard/pkg/firebase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if err := repositories.AutoMigrate(a.db.SQL); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	a.logger.Info("auto-migrations completed")

	redisClient, err := config.InitRedis(a.cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		a.logger.Info("rate limiting through Redis", zap.String("addr", a.cfg.RedisAddr))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := router.Dependencies{
		Config: a.cfg,
		Logger: a.logger,
		SQL:    a.db.SQL,
		Mongo:  a.db.Mongo,
		Redis:  redisClient,
	}
	if a.cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, a.cfg.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("init firebase: %w", err)
		}
		deps.Firebase = firebaseApp
		a.logger.Info("firebase login enabled")
	}

	e := router.New(deps)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("port", a.cfg.Port))
		errCh <- e.Start(":" + a.cfg.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
