package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"charlie-pos/catalog"
	"charlie-pos/config"
	"charlie-pos/db"
	"charlie-pos/logging"
	"charlie-pos/metrics"
	"charlie-pos/notify"
	"charlie-pos/printer"
	"charlie-pos/receipt"
	"charlie-pos/services"
	"charlie-pos/store"
	"charlie-pos/terminal"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	// Check for migrate subcommand
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(cfg, log)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewRegistry()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}

	notes := notify.NewWriter(os.Stdout)

	client, err := newStoreClient(ctx, cfg, m, notes, log)
	if err != nil {
		log.Fatal("store", zap.Error(err))
	}
	defer db.Close()

	p, err := newPrinter(cfg)
	if err != nil {
		log.Fatal("printer", zap.Error(err))
	}

	enc, err := receipt.ParseNoteEncoding(cfg.Receipt.NoteEncoding)
	if err != nil {
		log.Fatal("receipt", zap.Error(err))
	}
	formatter, err := receipt.NewFormatter(receipt.Business{
		Name:    cfg.Receipt.BusinessName,
		Address: cfg.Receipt.Address,
		Phone:   cfg.Receipt.Phone,
		Handle:  cfg.Receipt.Handle,
	}, cfg.Receipt.Locale, cfg.Receipt.TimeZone, enc)
	if err != nil {
		log.Fatal("receipt", zap.Error(err))
	}

	api := store.NewAPI(client)
	cache := catalog.New(api)
	if err := cache.Refresh(ctx); err != nil {
		// The terminal still starts; "recargar" retries.
		log.Warn("initial catalog load", zap.Error(err))
	}

	dispatcher := printer.NewDispatcher(p,
		printer.WithCopies(cfg.Printer.Copies...),
		printer.WithNotifier(notes),
		printer.WithMetrics(m),
		printer.WithLogger(log.Named("printer")))

	checkout := services.NewCheckout(api, formatter, dispatcher)
	checkout.Notifier = notes
	checkout.Metrics = m
	checkout.Log = log.Named("checkout")

	admin := services.NewAdmin(api, cache, formatter.Location)
	admin.Notifier = notes
	admin.Log = log.Named("admin")

	term := terminal.New(os.Stdin, os.Stdout, services.NewState(cache), checkout, admin, formatter.Money)
	term.SetNotifier(notes)
	term.SetLogger(log.Named("terminal"))

	log.Info("terminal started",
		zap.String("store", cfg.Store.Backend),
		zap.String("printer", cfg.Printer.Backend),
		zap.Strings("copies", dispatcher.Copies()))
	if err := term.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("terminal", zap.Error(err))
	}
}

func newStoreClient(ctx context.Context, cfg *config.Config, m *metrics.Registry, n notify.Notifier, log *zap.Logger) (store.Client, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		if err := db.Init(cfg.DB); err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		// Optional auto-migration (useful in production and for fresh DBs).
		// Set AUTO_MIGRATE=1 (or "true") to enable.
		if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
			if err := applyMigrations(ctx, log.Named("migrate")); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return store.NewPgStore(db.Pool, m, n), nil
	default:
		return store.NewJSONPClient(cfg.Store.ScriptURL,
			store.WithTimeout(cfg.Store.Timeout),
			store.WithNotifier(n),
			store.WithMetrics(m),
			store.WithLogger(log.Named("store"))), nil
	}
}

func newPrinter(cfg *config.Config) (printer.Printer, error) {
	switch cfg.Printer.Backend {
	case config.PrinterBackendLP:
		return &printer.LPPrinter{Name: cfg.Printer.Name}, nil
	case config.PrinterBackendTelegram:
		return printer.NewTelegramPrinter(cfg.Telegram.Token, cfg.Telegram.ChatID)
	default:
		return printer.NewWriterPrinter(os.Stdout), nil
	}
}

func runMigrate(cfg *config.Config, log *zap.Logger) {
	if err := db.Init(cfg.DB); err != nil {
		log.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	if err := applyMigrations(context.Background(), log); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
}
