package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/eventdesk/internal/api"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/storage/postgres"
	"github.com/Togather-Foundation/eventdesk/internal/telemetry"
	"github.com/Togather-Foundation/eventdesk/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the EventDesk HTTP server",
		Long: `Start the EventDesk HTTP server.

Configuration comes from environment variables, optionally layered over a
YAML file given with --config. The server shuts down gracefully on SIGINT
or SIGTERM.

Examples:
  # Start with configuration from env vars
  eventdesk serve

  # Listen on a specific address
  eventdesk serve --host 127.0.0.1 --port 9090

  # Human readable debug logs
  eventdesk serve --log-level debug --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, config.NewLogger(cfg.Logging))
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "server port (default: 8080)")
	return cmd
}

// server is the assembled HTTP server plus what has to be released after
// it stops.
type server struct {
	http    *http.Server
	limiter *middleware.LoginLimiter
}

func (s *server) close() {
	s.limiter.Stop()
}

// newServer wires config into the router. It does not touch the database;
// connections are opened per request.
func newServer(cfg config.Config, logger zerolog.Logger) (*server, error) {
	opener, err := postgres.NewOpener(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	templates, err := web.Templates()
	if err != nil {
		return nil, err
	}
	sessionKey, err := auth.DeriveSessionKey([]byte(cfg.Session.Secret))
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	csrfKey, err := auth.DeriveCSRFKey([]byte(cfg.Session.Secret))
	if err != nil {
		return nil, fmt.Errorf("derive csrf key: %w", err)
	}

	sessions := auth.NewSessionManager(sessionKey, auth.SessionOptions{
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.IsProduction(),
	})
	limiter := middleware.NewLoginLimiter(cfg.RateLimit.LoginPer15Minutes)

	handler := api.NewRouter(cfg, logger, api.Dependencies{
		Opener:       opener,
		Templates:    templates,
		Sessions:     sessions,
		Passwords:    auth.Passwords{},
		CSRFKey:      csrfKey,
		LoginLimiter: limiter,
	})

	return &server{
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		limiter: limiter,
	}, nil
}

func runServer(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	build := currentBuild()
	logger.Info().Str("version", build.Version).Str("commit", build.Commit).Str("environment", cfg.Environment).Msg("starting eventdesk")
	if cfg.Session.InsecureDefault {
		logger.Warn().Msg("SESSION_SECRET is not set; using the public development secret, sessions can be forged")
	}

	metrics.Init(build.Version, build.Commit, build.Date)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, build.Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.http.Addr).Msg("listening")
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.http.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
