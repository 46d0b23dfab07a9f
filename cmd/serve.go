package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/boskojeremic/iflowx/internal/admin"
	"github.com/boskojeremic/iflowx/internal/handler"
	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/middleware"
	"github.com/boskojeremic/iflowx/internal/window"
	"github.com/boskojeremic/iflowx/pkg/config"
	"github.com/boskojeremic/iflowx/pkg/jwtutil"
	"github.com/boskojeremic/iflowx/pkg/logger"
	"github.com/boskojeremic/iflowx/pkg/mailer"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var seedEmail, seedPassword string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			log.Info("Starting licensing service...", cfg.LogConfig()...)

			s, closeStore, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := migrate(s); err != nil {
				return err
			}
			if seedEmail != "" {
				if _, err := ensureSuperAdmin(cmd.Context(), s, seedEmail, "", seedPassword); err != nil {
					return err
				}
			}

			e := newServer(cfg, handler.New(s, newNotifier(cfg, log), jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
				SigningKey:      cfg.JWT.SigningKey,
				ExpirationHours: cfg.JWT.ExpirationHours,
			}), handler.Config{
				Invites: invite.Config{
					BaseURL:         cfg.App.BaseURL,
					DefaultValidity: window.Validity{Amount: cfg.App.InviteValidityDays, Unit: window.Days},
				},
				Console: admin.Config{ExpiringSoonDays: cfg.App.ExpiringSoonDays},
			}, time.Now, log))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("Starting server", zap.String("port", cfg.Server.Port))
				errCh <- e.Start(":" + cfg.Server.Port)
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&seedEmail, "seed-admin-email", "", "ensure a super admin with this email exists at startup")
	cmd.Flags().StringVar(&seedPassword, "seed-admin-password", "", "password for --seed-admin-email")
	return cmd
}

func newServer(cfg *config.Config, h *handler.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Order matters: request id before the logger that reads it
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	h.Register(e)
	return e
}

// newNotifier sends invite email through Resend when an API key is
// configured and logs it otherwise
func newNotifier(cfg *config.Config, log *zap.Logger) *mailer.InviteNotifier {
	if cfg.Mail.APIKey == "" {
		log.Warn("RESEND_API_KEY not set; invite emails are logged, not sent")
		return mailer.NewInviteNotifier(mailer.NewLogSender(), cfg.Mail.From)
	}
	return mailer.NewInviteNotifier(mailer.NewResendSender(cfg.Mail.APIKey, cfg.Mail.APIURL, cfg.Mail.Timeout), cfg.Mail.From)
}
