// Package config loads and hot-reloads the service configuration: defaults,
// then the YAML file, then environment overrides. Readers always see a
// complete, consistent snapshot.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Providers ProvidersConfig `yaml:"providers"`
	Session   SessionConfig   `yaml:"session"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// ProviderConfig describes one LLM backend. API keys come only from the
// environment, never from the file.
type ProviderConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Model           string `yaml:"model"`
	Priority        int    `yaml:"priority"`
	PrivacyApproved bool   `yaml:"privacy_approved"`
	APIKey          string `yaml:"-"`
}

type ProvidersConfig struct {
	Anthropic      ProviderConfig `yaml:"anthropic"`
	OpenAI         ProviderConfig `yaml:"openai"`
	Google         ProviderConfig `yaml:"google"`
	LocalEnabled   bool           `yaml:"local_enabled"`
	AttemptTimeout time.Duration  `yaml:"attempt_timeout"`
}

type SessionConfig struct {
	MaxSessions int           `yaml:"max_sessions"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "pulse.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Providers: ProvidersConfig{
			Anthropic:      ProviderConfig{Enabled: true, Priority: 1, PrivacyApproved: true},
			OpenAI:         ProviderConfig{Enabled: true, Priority: 2, PrivacyApproved: false},
			Google:         ProviderConfig{Enabled: true, Priority: 3, PrivacyApproved: false},
			LocalEnabled:   true,
			AttemptTimeout: 20 * time.Second,
		},
		Session: SessionConfig{
			MaxSessions: 4096,
			IdleTimeout: 30 * time.Minute,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Manager owns the live configuration snapshot.
type Manager struct {
	configPtr atomic.Pointer[Config]
	path      string

	watcherMu sync.RWMutex
	watchers  []func(*Config)

	stopWatch chan struct{}
	watchOnce sync.Once
}

// NewManager creates a manager over the given file path. The path may point
// to a file that does not exist yet; defaults apply until it does.
func NewManager(path string) *Manager {
	m := &Manager{
		path:      path,
		stopWatch: make(chan struct{}),
	}
	m.configPtr.Store(DefaultConfig())
	return m
}

// Get returns the current configuration snapshot.
func (m *Manager) Get() *Config {
	return m.configPtr.Load()
}

// Load reads the file over defaults, applies environment overrides, and
// publishes the new snapshot to all change watchers.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := m.loadYAMLFile(cfg); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	applyEnvironment(cfg)

	m.configPtr.Store(cfg)
	m.notifyWatchers(cfg)
	return nil
}

func (m *Manager) loadYAMLFile(cfg *Config) error {
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) {
	cfg.Providers.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Providers.Google.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")

	if v := os.Getenv("PULSE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PULSE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PULSE_SERVER_PORT"); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("PULSE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PULSE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}

	// A provider without a key cannot serve requests, whatever the file
	// says.
	if cfg.Providers.Anthropic.APIKey == "" {
		cfg.Providers.Anthropic.Enabled = false
	}
	if cfg.Providers.OpenAI.APIKey == "" {
		cfg.Providers.OpenAI.Enabled = false
	}
	if cfg.Providers.Google.APIKey == "" {
		cfg.Providers.Google.Enabled = false
	}
}

// OnChange registers a callback invoked with each new snapshot.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

// Reload re-reads the configuration file.
func (m *Manager) Reload() error {
	return m.Load()
}

// Close stops the file watcher, if one is running.
func (m *Manager) Close() error {
	m.watchOnce.Do(func() {
		close(m.stopWatch)
	})
	return nil
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
