package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Store    StoreConfig
	DB       DBConfig
	Telegram TelegramConfig
	Printer  PrinterConfig
	Receipt  ReceiptConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

type StoreConfig struct {
	Backend   string // "jsonp" (spreadsheet script) or "postgres"
	ScriptURL string
	Timeout   time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type TelegramConfig struct {
	Token  string // bot that posts kitchen copies
	ChatID int64
}

type PrinterConfig struct {
	Backend string // "stdout", "lp" or "telegram"
	Name    string // CUPS destination for lp; empty uses the default printer
	Copies  []string
}

type ReceiptConfig struct {
	BusinessName string
	Address      string
	Phone        string
	Handle       string
	Locale       string
	TimeZone     string
	NoteEncoding string // "segments" or "wrapped"
}

type MetricsConfig struct {
	Addr string
}

type LogConfig struct {
	Level       string
	Development bool
}

const (
	StoreBackendJSONP    = "jsonp"
	StoreBackendPostgres = "postgres"

	PrinterBackendStdout   = "stdout"
	PrinterBackendLP       = "lp"
	PrinterBackendTelegram = "telegram"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("DB_PORT: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("STORE_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("STORE_TIMEOUT: %w", err)
	}
	var chatID int64
	if v := getEnv("TELEGRAM_CHAT_ID", ""); v != "" {
		chatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
	}
	logDev, err := strconv.ParseBool(getEnv("LOG_DEV", "false"))
	if err != nil {
		return nil, fmt.Errorf("LOG_DEV: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:   strings.ToLower(getEnv("STORE_BACKEND", StoreBackendJSONP)),
			ScriptURL: getEnv("SCRIPT_URL", ""),
			Timeout:   timeout,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pos"),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("TELEGRAM_TOKEN", ""),
			ChatID: chatID,
		},
		Printer: PrinterConfig{
			Backend: strings.ToLower(getEnv("PRINTER_BACKEND", PrinterBackendStdout)),
			Name:    getEnv("PRINTER_NAME", ""),
			Copies:  splitList(getEnv("PRINT_COPIES", "CLIENTE,COCINA")),
		},
		Receipt: ReceiptConfig{
			BusinessName: getEnv("BUSINESS_NAME", "CHARLIE FAST FOOD"),
			Address:      getEnv("BUSINESS_ADDRESS", "CLL 5A #1 C SUR - 48, Bellavista"),
			Phone:        getEnv("BUSINESS_PHONE", "324 2749206"),
			Handle:       getEnv("BUSINESS_HANDLE", ""),
			Locale:       getEnv("RECEIPT_LOCALE", "en-US"),
			TimeZone:     getEnv("RECEIPT_TZ", "America/Bogota"),
			NoteEncoding: strings.ToLower(getEnv("NOTE_ENCODING", "segments")),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: logDev,
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreBackendJSONP:
		if c.Store.ScriptURL == "" {
			return fmt.Errorf("SCRIPT_URL is required for store backend %q", StoreBackendJSONP)
		}
	case StoreBackendPostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Printer.Backend {
	case PrinterBackendStdout, PrinterBackendLP:
	case PrinterBackendTelegram:
		if c.Telegram.Token == "" || c.Telegram.ChatID == 0 {
			return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required for printer backend %q", PrinterBackendTelegram)
		}
	default:
		return fmt.Errorf("unknown PRINTER_BACKEND %q", c.Printer.Backend)
	}
	if len(c.Printer.Copies) == 0 {
		return fmt.Errorf("PRINT_COPIES must name at least one copy")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	switch c.Receipt.NoteEncoding {
	case "segments", "wrapped":
	default:
		return fmt.Errorf("unknown NOTE_ENCODING %q", c.Receipt.NoteEncoding)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
