// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/blacklist"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/config"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/database"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/handler"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/logger"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/notify"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/repository"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/service"
	"github.com/rs/zerolog"
)

// snapshotsKept is how many snapshots survive a prune after the final save.
const snapshotsKept = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.New(cfg.LogLevel, cfg.LogFormat)
	lg.Info().Str("env", cfg.AppEnv).Msg("starting seat booking service")

	ctx := context.Background()

	// ── 1. Collaborators ──────────────────────────────────────────────────
	var opts []service.Option

	var bl *blacklist.Store
	if cfg.RedisAddr != "" {
		rdb := blacklist.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rdb.Close()
		bl = blacklist.New(rdb, cfg.BlacklistKey)
		if err := bl.Ping(ctx); err != nil {
			lg.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
		}
		if n, err := bl.Size(ctx); err == nil {
			metrics.SetBlacklistSize(n)
		}
		opts = append(opts, service.WithBlacklist(bl))
		lg.Info().Str("addr", cfg.RedisAddr).Msg("✓ blacklist connected to Redis")
	}

	mailer, closeMailer, err := newMailer(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Str("transport", cfg.MailTransport).Msg("mailer setup failed")
	}
	defer closeMailer()
	if mailer != nil {
		opts = append(opts, service.WithNotifier(mailer))
	}

	// ── 2. Restore state from PostgreSQL ──────────────────────────────────
	var (
		svc   *service.BookingService
		snaps *repository.SnapshotRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, lg)
		if err != nil {
			lg.Fatal().Err(err).Msg("database")
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			lg.Fatal().Err(err).Msg("database schema")
		}
		snaps = repository.NewSnapshotRepository(pool)

		svc, err = snaps.LoadState(ctx, opts...)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			lg.Info().Msg("no snapshot found, starting empty")
			svc = service.NewBookingService(opts...)
		case err != nil:
			lg.Fatal().Err(err).Msg("restore snapshot")
		default:
			lg.Info().
				Int("events", len(svc.Events())).
				Int("customers", len(svc.Customers())).
				Int("bookings", len(svc.Bookings())).
				Msg("✓ state restored from snapshot")
		}
	} else {
		lg.Warn().Msg("DATABASE_URL not set, state will not be persisted")
		svc = service.NewBookingService(opts...)
	}

	// ── 3. HTTP layer ─────────────────────────────────────────────────────
	var admin handler.BlacklistAdmin
	if bl != nil {
		admin = bl
	}
	var saver handler.SnapshotSaver
	if snaps != nil {
		saver = snaps
	}
	h := handler.NewBookingHandler(svc, admin, saver, lg)
	router := handler.NewRouter(h, handler.RouterConfig{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Metrics:            metrics.Handler(),
	}, lg)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info().Int("port", cfg.Port).Msg("✓ server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server error")
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
	}

	if snaps != nil {
		saveFinalSnapshot(shutdownCtx, snaps, svc, lg)
	}
	lg.Info().Msg("server stopped")
}

// newMailer picks the notifier transport. A nil Notifier means organizers are
// never notified.
func newMailer(cfg *config.Config, lg zerolog.Logger) (service.Notifier, func(), error) {
	noop := func() {}
	switch cfg.MailTransport {
	case config.MailNone:
		return nil, noop, nil
	case config.MailLog:
		return notify.NewLogMailer(lg), noop, nil
	case config.MailSMTP:
		return notify.NewSMTPMailer(notify.SMTPConfig(cfg.SMTP), lg), noop, nil
	case config.MailAMQP:
		m, err := notify.DialAMQPMailer(cfg.RabbitURL, cfg.RabbitExch, lg)
		if err != nil {
			return nil, noop, err
		}
		return m, m.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}

func saveFinalSnapshot(ctx context.Context, snaps *repository.SnapshotRepository, svc *service.BookingService, lg zerolog.Logger) {
	id, err := snaps.SaveState(ctx, svc)
	metrics.RecordSnapshot(err)
	if err != nil {
		lg.Error().Err(err).Msg("final snapshot failed")
		return
	}
	lg.Info().Int64("snapshot_id", id).Msg("✓ state saved")

	if n, err := snaps.Prune(ctx, snapshotsKept); err != nil {
		lg.Warn().Err(err).Msg("snapshot prune failed")
	} else if n > 0 {
		lg.Info().Int64("removed", n).Msg("old snapshots pruned")
	}
}
