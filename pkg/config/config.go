package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Waha     WahaConfig     `json:"waha"`
	Sheets   SheetsConfig   `json:"sheets"`
	Bot      BotConfig      `json:"bot"`
	Report   ReportConfig   `json:"report"`
	Watchdog WatchdogConfig `json:"watchdog"`
	AI       AIConfig       `json:"ai"`
	Logging  LoggingConfig  `json:"logging"`
}

// GatewayConfig is the listen address of the webhook HTTP server.
type GatewayConfig struct {
	Host string `json:"host" env:"PMBOT_GATEWAY_HOST"`
	Port int    `json:"port" env:"PMBOT_GATEWAY_PORT"`
}

type WahaConfig struct {
	BaseURL        string `json:"base_url" env:"PMBOT_WAHA_BASE_URL"`
	APIKey         string `json:"api_key" env:"PMBOT_WAHA_API_KEY"`
	Session        string `json:"session" env:"PMBOT_WAHA_SESSION"`
	TimeoutSec     int    `json:"timeout_sec" env:"PMBOT_WAHA_TIMEOUT_SEC"`
	SendIntervalMS int    `json:"send_interval_ms" env:"PMBOT_WAHA_SEND_INTERVAL_MS"`
}

type SheetsConfig struct {
	SheetID    string `json:"sheet_id" env:"PMBOT_SHEETS_SHEET_ID"`
	TimeoutSec int    `json:"timeout_sec" env:"PMBOT_SHEETS_TIMEOUT_SEC"`
}

type BotConfig struct {
	// Keywords gate whether a mentioned message is worth answering at all.
	Keywords        []string `json:"keywords" env:"PMBOT_BOT_KEYWORDS"`
	ReportCommands  []string `json:"report_commands" env:"PMBOT_BOT_REPORT_COMMANDS"`
	StatusCommands  []string `json:"status_commands" env:"PMBOT_BOT_STATUS_COMMANDS"`
	HelpCommands    []string `json:"help_commands" env:"PMBOT_BOT_HELP_COMMANDS"`
	DedupTTLSec     int      `json:"dedup_ttl_sec" env:"PMBOT_BOT_DEDUP_TTL_SEC"`
	MinDelaySec     int      `json:"min_delay_sec" env:"PMBOT_BOT_MIN_DELAY_SEC"`
	MaxDelaySec     int      `json:"max_delay_sec" env:"PMBOT_BOT_MAX_DELAY_SEC"`
	DirectThreshold int      `json:"direct_threshold" env:"PMBOT_BOT_DIRECT_THRESHOLD"`
	// FallbackLID is the bot's linked ID observed in group payloads, used
	// when the gateway profile lookup cannot provide one.
	FallbackLID string   `json:"fallback_lid" env:"PMBOT_BOT_FALLBACK_LID"`
	GroupIDs    []string `json:"group_ids" env:"PMBOT_BOT_GROUP_IDS"`
}

type ReportConfig struct {
	Enabled           bool   `json:"enabled" env:"PMBOT_REPORT_ENABLED"`
	CronExpr          string `json:"cron_expr" env:"PMBOT_REPORT_CRON_EXPR"`
	Timezone          string `json:"timezone" env:"PMBOT_REPORT_TIMEZONE"`
	GroupSendDelaySec int    `json:"group_send_delay_sec" env:"PMBOT_REPORT_GROUP_SEND_DELAY_SEC"`
	StatusChangeDays  int    `json:"status_change_days" env:"PMBOT_REPORT_STATUS_CHANGE_DAYS"`
}

type WatchdogConfig struct {
	Enabled      bool   `json:"enabled" env:"PMBOT_WATCHDOG_ENABLED"`
	IntervalSec  int    `json:"interval_sec" env:"PMBOT_WATCHDOG_INTERVAL_SEC"`
	NotifyChatID string `json:"notify_chat_id" env:"PMBOT_WATCHDOG_NOTIFY_CHAT_ID"`
}

type AIConfig struct {
	Enabled        bool   `json:"enabled" env:"PMBOT_AI_ENABLED"`
	APIKey         string `json:"api_key" env:"PMBOT_AI_API_KEY"`
	APIBase        string `json:"api_base" env:"PMBOT_AI_API_BASE"`
	Model          string `json:"model" env:"PMBOT_AI_MODEL"`
	TimeoutSec     int    `json:"timeout_sec" env:"PMBOT_AI_TIMEOUT_SEC"`
	MaxContextRows int    `json:"max_context_rows" env:"PMBOT_AI_MAX_CONTEXT_ROWS"`
}

type LoggingConfig struct {
	Enabled       bool   `json:"enabled" env:"PMBOT_LOGGING_ENABLED"`
	Dir           string `json:"dir" env:"PMBOT_LOGGING_DIR"`
	Filename      string `json:"filename" env:"PMBOT_LOGGING_FILENAME"`
	MaxSizeMB     int    `json:"max_size_mb" env:"PMBOT_LOGGING_MAX_SIZE_MB"`
	RetentionDays int    `json:"retention_days" env:"PMBOT_LOGGING_RETENTION_DAYS"`
}

func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pmbot")
}

func DefaultConfig() *Config {
	configDir := GetConfigDir()
	return &Config{
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 3003,
		},
		Waha: WahaConfig{
			BaseURL:        "http://localhost:3001",
			Session:        "default",
			TimeoutSec:     30,
			SendIntervalMS: 500,
		},
		Sheets: SheetsConfig{
			TimeoutSec: 30,
		},
		Bot: BotConfig{
			Keywords: []string{
				"task", "tugas", "tiket", "ticket", "incident",
				"modul", "module", "aplikasi", "app", "fitur", "feature",
				"status", "progress", "update", "perkembangan",
				"pic", "deploy", "testing", "test",
				"report", "laporan", "weekly", "mingguan",
				"detail", "rincian", "breakdown", "info", "informasi",
				"list", "daftar", "semua", "nomor", "id",
				"coretax", "bphtb", "reklame", "pbb", "sim pbb",
				"eret", "ros", "pajak", "helpdesk", "website",
				"bapenda", "infotax", "pendataan", "penetapan",
				"penagihan", "pelayanan", "verifikasi", "sspd",
				"on progress", "ready to test", "on testing",
				"ready to deploy", "deployed", "done", "selesai",
				"help", "bantuan", "ada berapa", "siapa", "apa saja",
			},
			ReportCommands:  []string{"report", "laporan"},
			StatusCommands:  []string{"status"},
			HelpCommands:    []string{"help", "bantuan", "?"},
			DedupTTLSec:     120,
			MinDelaySec:     30,
			MaxDelaySec:     60,
			DirectThreshold: 10,
			FallbackLID:     "116144639856855",
			GroupIDs:        []string{},
		},
		Report: ReportConfig{
			Enabled:           true,
			CronExpr:          "0 8 * * 1",
			Timezone:          "Asia/Jakarta",
			GroupSendDelaySec: 60,
			StatusChangeDays:  7,
		},
		Watchdog: WatchdogConfig{
			Enabled:     true,
			IntervalSec: 60,
		},
		AI: AIConfig{
			Enabled:        false,
			APIBase:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSec:     180,
			MaxContextRows: 150,
		},
		Logging: LoggingConfig{
			Enabled:       true,
			Dir:           filepath.Join(configDir, "logs"),
			Filename:      "pmbot.log",
			MaxSizeMB:     20,
			RetentionDays: 7,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func unmarshalStrict(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("invalid config: trailing JSON content")
		}
		return err
	}
	return nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) LogFilePath() string {
	filename := c.Logging.Filename
	if filename == "" {
		filename = "pmbot.log"
	}
	return filepath.Join(c.Logging.Dir, filename)
}
