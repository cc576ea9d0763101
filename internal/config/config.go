package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	StoreSelection    string
	PollInterval      time.Duration
	HistoryCapacity   int
	APIHost           string
	WebHost           string
	ProductLinePath   string
	AlertTitle        string
	DiscordWebhookURL string
	SoundEnabled      bool
	BrowserDriver     string
	DashboardAddr     string
	StoresConfigPath  string
	LogLevel          string
}

func Load() (*Config, error) {
	storeSelection := os.Getenv("STORE_SELECTION")
	if storeSelection == "" {
		storeSelection = "en-us:USD:5438481700"
	}

	pollIntervalStr := os.Getenv("POLL_INTERVAL")
	if pollIntervalStr == "" {
		pollIntervalStr = "15s"
	}
	pollInterval, err := time.ParseDuration(pollIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", pollIntervalStr, err)
	}
	// The countdown ticks in whole seconds.
	if pollInterval < time.Second || pollInterval%time.Second != 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL %q: must be a whole number of seconds >= 1s", pollIntervalStr)
	}

	historyCapacity := 30
	if v := os.Getenv("HISTORY_CAPACITY"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HISTORY_CAPACITY %q: %w", v, err)
		}
		if parsed < 1 {
			return nil, fmt.Errorf("invalid HISTORY_CAPACITY %q: must be positive", v)
		}
		historyCapacity = parsed
	}

	apiHost := os.Getenv("API_HOST")
	if apiHost == "" {
		apiHost = "api-prod.nvidia.com"
	}

	webHost := os.Getenv("WEB_HOST")
	if webHost == "" {
		webHost = "www.nvidia.com"
	}

	productLinePath := strings.Trim(os.Getenv("PRODUCT_LINE_PATH"), "/")
	if productLinePath == "" {
		productLinePath = "geforce/graphics-cards/30-series/rtx-3080"
	}

	alertTitle := os.Getenv("ALERT_TITLE")
	if alertTitle == "" {
		alertTitle = "NVIDIA 3080FE Stock alert"
	}

	discordWebhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if discordWebhookURL == "" {
		slog.Warn("DISCORD_WEBHOOK_URL not set, stock notifications are unsupported for this session")
	}

	soundEnabled := true
	if v := os.Getenv("SOUND_ENABLED"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SOUND_ENABLED %q: %w", v, err)
		}
		soundEnabled = parsed
	}

	browserDriver := strings.ToLower(os.Getenv("BROWSER_DRIVER"))
	switch browserDriver {
	case "":
		browserDriver = "chromedp"
	case "chromedp", "playwright", "rod", "none":
	default:
		return nil, fmt.Errorf("invalid BROWSER_DRIVER %q: want chromedp, playwright, rod or none", browserDriver)
	}

	dashboardAddr := os.Getenv("DASHBOARD_ADDR")
	if dashboardAddr == "" {
		dashboardAddr = "127.0.0.1:8080"
		slog.Info("Defaulting dashboard address", "addr", dashboardAddr)
	}

	storesConfigPath := os.Getenv("STORES_CONFIG_PATH")
	if storesConfigPath == "" {
		storesConfigPath = "config/stores.yaml"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		StoreSelection:    storeSelection,
		PollInterval:      pollInterval,
		HistoryCapacity:   historyCapacity,
		APIHost:           apiHost,
		WebHost:           webHost,
		ProductLinePath:   productLinePath,
		AlertTitle:        alertTitle,
		DiscordWebhookURL: discordWebhookURL,
		SoundEnabled:      soundEnabled,
		BrowserDriver:     browserDriver,
		DashboardAddr:     dashboardAddr,
		StoresConfigPath:  storesConfigPath,
		LogLevel:          logLevel,
	}, nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
