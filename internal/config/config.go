package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	GLOBAL_OWNER_JID          = "global.owner_jid"
	GLOBAL_COMMAND_PREFIX     = "global.command_prefix"
	GLOBAL_SYSTEM_PREFIX      = "global.system_prefix"
	GLOBAL_LANGUAGE           = "global.interface_language"
	WHATSAPP_SESSION_DSN      = "whatsapp.session_dsn"
	WHATSAPP_DEVICE_NAME      = "whatsapp.device_name"
	WHATSAPP_SEND_TYPING      = "whatsapp.send_typing"
	WHATSAPP_AUTO_READ        = "whatsapp.auto_read"
	HTTP_PROXY                = "http.proxy"
	HTTP_NO_PROXY             = "http.no_proxy"
	AI_BASE_URL               = "ai.base_url"
	AI_CHAT_URL               = "ai.chat_url"
	AI_ROTATION               = "ai.rotation"
	AI_PERSONA                = "ai.persona"
	AI_EMBEDDINGS_MODEL       = "ai.embeddings_model"
	AI_MAX_TOKENS             = "ai.max_tokens"
	AI_FALLBACK_MESSAGE       = "ai.fallback_message"
	AI_SEARCH_GROUNDING       = "ai.search_grounding"
	AI_EXCLUDED_TOOLS         = "ai.excluded_tools"
	HEALTH_TIMEOUT            = "health.timeout"
	HEALTH_CHECK_INTERVAL     = "health.check_interval"
	HEALTH_KEEPALIVE_INTERVAL = "health.keepalive_interval"
	HEALTH_MAX_RECONNECTS     = "health.max_reconnect_attempts"
	HEALTH_BACKOFF_BASE       = "health.backoff_base"
	HEALTH_BACKOFF_CAP        = "health.backoff_cap"
	CHROME_ENABLED            = "chrome.enabled"
	CHROME_PATH               = "chrome.path"
	CHROME_OPTS               = "chrome.opts"
	CHROME_TIMEOUT            = "chrome.timeout"
	SEARCH_RATE_LIMIT         = "search.rate_limit"
	DOCS_STORAGE_DIR          = "docs.storage_dir"
	DOCS_SELECTION_TTL        = "docs.selection_ttl"
	ATTENDANCE_POLL_SCHEDULE  = "attendance.poll_schedule"
	DATABASE_DSN              = "database.dsn"
	LOGGING_LEVEL             = "logging.level"
	LOGGING_WRITE_IN_FILE     = "logging.write_in_file"
	LOGGING_FILE_PATH         = "logging.file_path"
)

type Config struct {
	k *koanf.Koanf
}

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
}

func Load() (*Config, error) {
	k := koanf.New(".")

	k.Load(confmap.Provider(defaults(), "."), nil)

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %v", path, err)
			}
			break
		}
	}

	k.Load(env.Provider("ZAPGUARD_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "ZAPGUARD_")),
			"_", ".",
		)
	}), nil)

	if k.Get(GLOBAL_OWNER_JID) == "" {
		return nil, fmt.Errorf("owner JID is required")
	}

	return &Config{k: k}, nil
}

// NewTestConfig builds a Config from the defaults plus overrides, skipping
// file and environment sources. Tests only.
func NewTestConfig(overrides map[string]any) *Config {
	k := koanf.New(".")
	k.Load(confmap.Provider(defaults(), "."), nil)
	if len(overrides) > 0 {
		k.Load(confmap.Provider(overrides, "."), nil)
	}
	return &Config{k: k}
}

func defaults() map[string]any {
	return map[string]any{
		GLOBAL_OWNER_JID:          "",
		GLOBAL_COMMAND_PREFIX:     "?",
		GLOBAL_SYSTEM_PREFIX:      "!",
		GLOBAL_LANGUAGE:           "en",
		WHATSAPP_SESSION_DSN:      "file:session.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		WHATSAPP_DEVICE_NAME:      "zapguard",
		WHATSAPP_SEND_TYPING:      true,
		WHATSAPP_AUTO_READ:        true,
		HTTP_PROXY:                nil,
		AI_BASE_URL:               "https://openrouter.ai/api/v1",
		AI_CHAT_URL:               "/chat/completions",
		AI_PERSONA:                "",
		AI_EMBEDDINGS_MODEL:       "",
		AI_MAX_TOKENS:             850,
		AI_SEARCH_GROUNDING:       true,
		AI_FALLBACK_MESSAGE:       "",
		HEALTH_TIMEOUT:            5 * time.Minute,
		HEALTH_CHECK_INTERVAL:     time.Minute,
		HEALTH_KEEPALIVE_INTERVAL: 30 * time.Second,
		HEALTH_MAX_RECONNECTS:     5,
		HEALTH_BACKOFF_BASE:       10 * time.Second,
		HEALTH_BACKOFF_CAP:        5 * time.Minute,
		CHROME_ENABLED:            false,
		CHROME_PATH:               "",
		CHROME_TIMEOUT:            90 * time.Second,
		CHROME_OPTS: []string{
			"--headless",
			"--disable-gpu",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
		SEARCH_RATE_LIMIT:        time.Second,
		DOCS_STORAGE_DIR:         "documents",
		DOCS_SELECTION_TTL:       2 * time.Minute,
		ATTENDANCE_POLL_SCHEDULE: "",
		DATABASE_DSN:             "bot.db?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache=shared",
		LOGGING_LEVEL:            "info",
		LOGGING_WRITE_IN_FILE:    false,

		"commands.ai.enabled":                      true,
		"commands.ai.queue.enabled":                true,
		"commands.ai.queue.timeout":                2 * time.Minute,
		"commands.ai.queue.max_retries":            0,
		"commands.ai.queue.throttle.period":        20 * time.Second,
		"commands.ai.queue.throttle.concurrency":   2,
		"commands.ai.queue.throttle.requests":      2,
		"commands.kick.enabled":                    true,
		"commands.purge.enabled":                   true,
		"commands.poll.enabled":                    true,
		"commands.welcome.enabled":                 true,
		"commands.avatar.enabled":                  true,
		"commands.remind.enabled":                  true,
		"commands.fetch.enabled":                   true,
		"commands.list.enabled":                    true,
		"commands.rename.enabled":                  true,
		"commands.delete.enabled":                  true,
		"commands.mastersearch.enabled":            true,
		"commands.masterrename.enabled":            true,
		"commands.attendance.enabled":              true,
		"commands.remember.enabled":                true,
		"commands.recall.enabled":                  true,
		"commands.browse.enabled":                  false,
		"commands.browse.queue.enabled":            true,
		"commands.browse.queue.timeout":            3 * time.Minute,
		"commands.browse.queue.throttle.period":    30 * time.Second,
		"commands.browse.queue.throttle.requests":  2,
		"commands.help.enabled":                    true,
	}
}

func getConfigPaths() []string {
	paths := []string{}
	if configPath != "" {
		paths = append(paths, configPath)
	}
	paths = append(paths, "config.toml")
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "zapguard", "config.toml"))
	}
	paths = append(paths, "/etc/zapguard/config.toml")
	return paths
}

func (c *Config) Global() GlobalConfig {
	var cfg GlobalConfig
	c.k.Unmarshal("global", &cfg)
	return cfg
}

func (c *Config) WhatsApp() WhatsAppConfig {
	var cfg WhatsAppConfig
	c.k.Unmarshal("whatsapp", &cfg)
	return cfg
}

func (c *Config) AI() AIConfig {
	var cfg AIConfig
	c.k.Unmarshal("ai", &cfg)
	return cfg
}

func (c *Config) Health() HealthConfig {
	var cfg HealthConfig
	c.k.Unmarshal("health", &cfg)
	return cfg
}

func (c *Config) HTTP() HTTPConfig {
	var cfg HTTPConfig
	c.k.Unmarshal("http", &cfg)
	cfg.proxy = c.k.String(HTTP_PROXY)
	cfg.noProxy = c.k.Strings(HTTP_NO_PROXY)
	return cfg
}

func (c *Config) Chrome() ChromeConfig {
	var cfg ChromeConfig
	c.k.Unmarshal("chrome", &cfg)
	return cfg
}

func (c *Config) Search() SearchConfig {
	var cfg SearchConfig
	c.k.Unmarshal("search", &cfg)
	return cfg
}

func (c *Config) Docs() DocsConfig {
	var cfg DocsConfig
	c.k.Unmarshal("docs", &cfg)
	return cfg
}

func (c *Config) Attendance() AttendanceConfig {
	var cfg AttendanceConfig
	c.k.Unmarshal("attendance", &cfg)
	return cfg
}

func (c *Config) Log() LoggingConfig {
	var cfg LoggingConfig
	c.k.Unmarshal("logging", &cfg)
	return cfg
}

func (c *Config) GetDatabaseDSN() string {
	return c.k.String(DATABASE_DSN)
}

func (c *Config) GetCommandConfig(name string) CommandConfig {
	concurrency := c.k.Int(fmt.Sprintf("commands.%s.queue.throttle.concurrency", name))
	if concurrency == 0 {
		concurrency = 1
	}
	requests := c.k.Int(fmt.Sprintf("commands.%s.queue.throttle.requests", name))
	if requests == 0 {
		requests = 1
	}
	period := c.k.Duration(fmt.Sprintf("commands.%s.queue.throttle.period", name))
	if period == 0 {
		period = 10 * time.Second
	}

	return CommandConfig{
		Enabled: c.k.Bool(fmt.Sprintf("commands.%s.enabled", name)),
		Queue: QueueConfig{
			Enabled:    c.k.Bool(fmt.Sprintf("commands.%s.queue.enabled", name)),
			MaxRetries: c.k.Int(fmt.Sprintf("commands.%s.queue.max_retries", name)),
			RetryDelay: c.k.Duration(fmt.Sprintf("commands.%s.queue.retry_delay", name)),
			Timeout:    c.k.Duration(fmt.Sprintf("commands.%s.queue.timeout", name)),
			Throttle: ThrottleConfig{
				Concurrency: concurrency,
				Requests:    requests,
				Period:      period,
			},
		},
	}
}
