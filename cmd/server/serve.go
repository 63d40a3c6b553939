package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"referearn/internal/notify"
	"referearn/internal/platform/config"
	"referearn/internal/platform/httpserver"
	"referearn/internal/platform/metrics"
	"referearn/internal/referral/handler"
	"referearn/internal/referral/service"
	"referearn/internal/referral/store"
	httptransport "referearn/internal/transport/http"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, a.log)
		},
	}
}

// serve runs the API until ctx is cancelled. The store and the mail
// transport are built once here and released once on the way out.
func serve(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	st, kind, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open referral store", "error", err)
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("failed to close referral store", "error", err)
		}
	}()
	if kind == store.KindMemory {
		log.Warn("DATABASE_URL not set, referrals are kept in memory and lost on restart")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	svc := service.New(st, newNotifier(cfg.Mail, log),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithCourseBaseURL(cfg.Mail.CourseBaseURL),
	)
	router := httptransport.NewRouter(httptransport.Config{
		FrontendURL: cfg.FrontendURL,
		Logger:      log,
		Metrics:     m,
		Gatherer:    registry,
	}, handler.New(svc, log))

	srv := httpserver.New(cfg.Addr(), router)
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Error("failed to listen", "addr", srv.Addr, "error", err)
		return err
	}

	log.Info("server started",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"store", kind,
		"mail_transport", cfg.Mail.Transport,
		"frontend_url", cfg.FrontendURL,
		"health", fmt.Sprintf("http://localhost:%s/health", cfg.Port),
		"api", fmt.Sprintf("http://localhost:%s/api/referrals", cfg.Port),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown did not complete", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func newNotifier(cfg config.Mail, log *slog.Logger) service.Notifier {
	if cfg.Transport == config.MailTransportLog {
		return notify.NewLog(log)
	}
	if cfg.User == "" {
		log.Warn("EMAIL_USER not set, referral emails will fail to send")
	}
	return notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.User,
		Password: cfg.Password,
	})
}
