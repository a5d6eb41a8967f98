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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if isBlocked(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 動作モード
	logger.Info("starting", zap.String("mode", cfg.Mode), zap.String("storage", cfg.Storage.Driver))

	a, err := newApp(ctx, cfg, logger, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: a.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		// TLS設定（cert/key 両方あれば https）
		if cfg.Server.Cert != "" && cfg.Server.Key != "" {
			logger.Info("listening (https)", zap.String("addr", cfg.Server.Addr))
			err = srv.ListenAndServeTLS(cfg.Server.Cert, cfg.Server.Key)
		} else {
			logger.Info("listening (http)", zap.String("addr", cfg.Server.Addr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
