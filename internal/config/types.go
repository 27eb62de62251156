package config

import (
	"os"
	"strings"
	"time"
)

type GlobalConfig struct {
	OwnerJID          string `koanf:"owner_jid"`
	CommandPrefix     string `koanf:"command_prefix"`
	SystemPrefix      string `koanf:"system_prefix"`
	InterfaceLanguage string `koanf:"interface_language"`
}

func (c GlobalConfig) IsOwner(jid string) bool {
	if c.OwnerJID == "" {
		return false
	}
	// JIDs may carry a device suffix (user.device@server), compare bare user part
	return bareJID(jid) == bareJID(c.OwnerJID)
}

func bareJID(jid string) string {
	user, server, found := strings.Cut(jid, "@")
	if !found {
		return jid
	}
	if idx := strings.IndexAny(user, ".:"); idx >= 0 {
		user = user[:idx]
	}
	return user + "@" + server
}

type WhatsAppConfig struct {
	SessionDSN string `koanf:"session_dsn"`
	DeviceName string `koanf:"device_name"`
	SendTyping bool   `koanf:"send_typing"`
	AutoRead   bool   `koanf:"auto_read"`
}

type HTTPConfig struct {
	proxy   string
	noProxy []string
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != "" {
		return c.proxy
	}
	for _, key := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if proxyURL := os.Getenv(key); proxyURL != "" {
			return proxyURL
		}
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	return c.noProxy
}

type RotationEntry struct {
	Model  string `koanf:"model"`
	APIKey string `koanf:"api_key"`
	Label  string `koanf:"label"`
}

type AIConfig struct {
	BaseURL         string          `koanf:"base_url"`
	ChatURL         string          `koanf:"chat_url"`
	Rotation        []RotationEntry `koanf:"rotation"`
	Persona         string          `koanf:"persona"`
	EmbeddingsModel string          `koanf:"embeddings_model"`
	MaxTokens       int             `koanf:"max_tokens"`
	FallbackMessage string          `koanf:"fallback_message"`
	SearchGrounding bool            `koanf:"search_grounding"`
	ExcludedTools   []string        `koanf:"excluded_tools"`
}

type HealthConfig struct {
	Timeout              time.Duration `koanf:"timeout"`
	CheckInterval        time.Duration `koanf:"check_interval"`
	KeepaliveInterval    time.Duration `koanf:"keepalive_interval"`
	MaxReconnectAttempts int           `koanf:"max_reconnect_attempts"`
	BackoffBase          time.Duration `koanf:"backoff_base"`
	BackoffCap           time.Duration `koanf:"backoff_cap"`
}

type ChromeConfig struct {
	Enabled bool          `koanf:"enabled"`
	Path    string        `koanf:"path"`
	Opts    []string      `koanf:"opts"`
	Timeout time.Duration `koanf:"timeout"`
}

type SearchConfig struct {
	RateLimit time.Duration `koanf:"rate_limit"`
}

type DocsConfig struct {
	StorageDir   string        `koanf:"storage_dir"`
	SelectionTTL time.Duration `koanf:"selection_ttl"`
}

type AttendanceConfig struct {
	PollSchedule string `koanf:"poll_schedule"`
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

type ThrottleConfig struct {
	Period      time.Duration `koanf:"period"`
	Requests    int           `koanf:"requests"`
	Concurrency int           `koanf:"concurrency"`
}

type QueueConfig struct {
	Enabled    bool          `koanf:"enabled"`
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`
	Timeout    time.Duration `koanf:"timeout"`
	Throttle   ThrottleConfig
}

type CommandConfig struct {
	Enabled bool `koanf:"enabled"`
	Queue   QueueConfig
}
