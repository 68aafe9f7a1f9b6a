package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"opuscat/internal/catalog"
	"opuscat/pkg/database"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only catalogue query API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			logger := newLogger()

			dbCfg := database.DefaultConfig()
			if cfg.Database != "" {
				dbCfg.Path = cfg.Database
			}
			db, err := database.Open(dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}

			router := gin.Default()
			_ = router.SetTrustedProxies([]string{"127.0.0.1"})

			router.GET("/health", func(c *gin.Context) {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				defer cancel()
				if err := db.PingContext(ctx); err != nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
			})

			handler := catalog.NewHandler(catalog.NewRepo(db))
			handler.RegisterRoutes(router.Group("/api"))

			srv := &http.Server{
				Addr:    cfg.Bind,
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("query API listening", "addr", cfg.Bind)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Info("shutdown signal received", "signal", sig.String())
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
