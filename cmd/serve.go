package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"extensions.GO/api"
	extensionsApi "extensions.GO/api/extensions"
	"extensions.GO/core/auth"
	"extensions.GO/manager"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server with extensions loaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h, err := bootstrap(ctx, nil)
		if err != nil {
			return err
		}
		figure.NewFigure(h.cfg.AppName, "", true).Print()

		if err := h.manager.Initialize(ctx, manager.Options{Schedule: h.cfg.Schedule}); err != nil {
			h.log.Error("extensions initialized with errors", zap.Error(err))
		}

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())
		e.Use(middleware.Gzip())
		e.Use(middleware.Decompress())
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				start := time.Now()
				err := next(c)
				duration := time.Since(start).Milliseconds()
				c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
				return err
			}
		})

		var installs extensionsApi.InstallLister
		if h.repo != nil {
			installs = h.repo
		}
		extensionsApi.RegisterExtensionRoutes(e, h.manager, installs, auth.Middleware(h.cfg))
		api.MountOn(e, h.cfg.EndpointsBasePath, h.manager.Router())

		go func() {
			h.log.Info("server running", zap.String("port", h.cfg.Port), zap.String("endpoints", h.cfg.EndpointsBasePath))
			if err := e.Start(":" + h.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				h.log.Error("server stopped", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			h.log.Warn("http shutdown", zap.Error(err))
		}
		h.close(shutdownCtx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
