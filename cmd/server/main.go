// Command server runs the reminder backend: LINE webhook intake, the
// reminder lifecycle engine, and the durable timer facility, behind an HTTP
// server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-reminder-backend/internal/command"
	"github.com/tbourn/go-reminder-backend/internal/config"
	httpapi "github.com/tbourn/go-reminder-backend/internal/http"
	"github.com/tbourn/go-reminder-backend/internal/http/handlers"
	"github.com/tbourn/go-reminder-backend/internal/line"
	"github.com/tbourn/go-reminder-backend/internal/observability"
	"github.com/tbourn/go-reminder-backend/internal/repo"
	"github.com/tbourn/go-reminder-backend/internal/scheduler"
	"github.com/tbourn/go-reminder-backend/internal/services"
	"github.com/tbourn/go-reminder-backend/internal/timeparse"

	"github.com/gin-gonic/gin"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; absence of .env is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
	}

	db, err := repo.Open(cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	lineClient := line.NewClient(cfg.Line.ChannelAccessToken)
	svc := services.NewReminderService(db, lineClient, loc)

	timers := scheduler.NewMemory(func(eventID string) {
		// Fire runs on the timer goroutine, outside any request.
		if err := svc.Fire(context.Background(), eventID); err != nil {
			log.Error().Err(err).Str("event_id", eventID).Msg("timer fire failed")
		}
	})
	svc.Timers = timers
	services.RegisterArmedGauge(timers)

	if n, err := svc.Recover(ctx); err != nil {
		log.Fatal().Err(err).Msg("recover armed reminders")
	} else {
		log.Info().Int("recovered", n).Msg("timer facility ready")
	}

	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every "+cfg.SweepInterval.String(), func() {
		if _, err := svc.Sweep(context.Background()); err != nil {
			log.Error().Err(err).Msg("sweep failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule sweep")
	}
	sweeper.Start()

	interp := &command.Interpreter{
		Resolver: &timeparse.Resolver{Loc: loc},
		Profiles: lineClient,
		Now:      time.Now,
	}
	h := handlers.New(cfg.Line.ChannelSecret, interp, svc, lineClient)

	router := httpapi.NewRouter(httpapi.Options{
		Handlers:    h,
		ServiceName: cfg.OTEL.ServiceName,
		RateRPS:     cfg.RateRPS,
		RateBurst:   cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	<-sweeper.Stop().Done()
	timers.Stop()
	if err := otelShutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("bye")
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
