package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/kukua/saro-sms/internal/adapter/httpadapter"
	"github.com/kukua/saro-sms/internal/adapter/kafkaaudit"
	"github.com/kukua/saro-sms/internal/adapter/navifeed"
	"github.com/kukua/saro-sms/internal/adapter/twilio"
	"github.com/kukua/saro-sms/internal/config"
	"github.com/kukua/saro-sms/internal/dispatch"
	"github.com/kukua/saro-sms/internal/domain"
	"github.com/kukua/saro-sms/internal/observability"
	"github.com/kukua/saro-sms/internal/roster"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	mode, err := parseMode(os.Args[1:])
	if err != nil {
		logger.Error("invalid invocation", "error", err)
		return 1
	}

	recipients, err := loadRecipients(cfg, mode)
	if err != nil {
		logger.Error("failed to load rosters", "mode", mode, "error", err)
		return 1
	}
	logger.Info("rosters loaded", "mode", mode, "recipients", len(recipients))

	feed := navifeed.NewClient(cfg.FeedURL, cfg.FetchTimeout, logger)
	gateway := twilio.NewClient(cfg.TwilioSID, cfg.TwilioToken, cfg.SendTimeout, logger)
	clock := clockwork.NewRealClock()

	scheduler := dispatch.NewScheduler(dispatch.Options{
		SendInterval:  cfg.SendInterval,
		Deadline:      cfg.BatchDeadline,
		ContactNumber: cfg.ContactNumber,
	}, feed, gateway, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, scheduler, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, dispatchErr := scheduler.Dispatch(ctx, mode, recipients)
	if dispatchErr != nil {
		logger.Error("batch failed", "mode", mode, "error", dispatchErr)
	}

	// Audit publishing is feature-flagged and best-effort: a sink failure is
	// logged but does not change the exit code.
	if cfg.KafkaEnabled && res != nil {
		publisher := kafkaaudit.NewPublisher(cfg, logger)
		if err := publisher.PublishBatch(ctx, res, clock.Now().UTC()); err != nil {
			logger.Error("audit publish failed", "error", err)
		}
		if err := publisher.Close(); err != nil {
			logger.Error("audit publisher close error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	if dispatchErr != nil {
		return 1
	}
	if n := res.Failures(); n > 0 {
		logger.Error("batch settled with failures", "failed", n, "total", len(res.Outcomes))
		return 1
	}
	logger.Info("batch settled", "mode", mode, "total", len(res.Outcomes))
	return 0
}

// parseMode scans the command line for a batch mode. A mode token is
// mandatory: an invocation without one dispatches nothing.
func parseMode(args []string) (dispatch.Mode, error) {
	var mode dispatch.Mode
	for _, arg := range args {
		switch arg {
		case "daily":
			mode = dispatch.ModeDaily
		case "fourday":
			mode = dispatch.ModeFourDay
		case "monthly":
			mode = dispatch.ModeMonthly
		default:
			return "", fmt.Errorf("unknown argument %q (expected daily, fourday, or monthly)", arg)
		}
	}
	if mode == "" {
		return "", errors.New("no batch mode given (expected daily, fourday, or monthly)")
	}
	return mode, nil
}

// loadRecipients reads the sender and recipient rosters for a mode and
// resolves them into dispatchable recipients. The monthly memo goes to every
// subscriber, so that mode merges both rosters.
func loadRecipients(cfg *config.Config, mode dispatch.Mode) ([]domain.Recipient, error) {
	senders, err := roster.LoadSenders(cfg.SendersPath)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSenders(senders); err != nil {
		return nil, err
	}

	var raw []domain.RawRecipient
	switch mode {
	case dispatch.ModeDaily:
		raw, err = roster.LoadRecipients(cfg.RecipientsDailyPath)
	case dispatch.ModeFourDay:
		raw, err = roster.LoadRecipients(cfg.RecipientsFourDayPath)
	case dispatch.ModeMonthly:
		var daily, fourDay []domain.RawRecipient
		daily, err = roster.LoadRecipients(cfg.RecipientsDailyPath)
		if err == nil {
			fourDay, err = roster.LoadRecipients(cfg.RecipientsFourDayPath)
			raw = append(daily, fourDay...)
		}
	}
	if err != nil {
		return nil, err
	}

	return domain.BuildRecipients(raw, senders)
}
