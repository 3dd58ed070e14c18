package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "feedtrack"

	// DefaultMaxUploadSize caps a single deliverable. Theses with embedded
	// figures rarely exceed a few tens of megabytes.
	DefaultMaxUploadSize = 50 << 20

	// DefaultSignature is the leading byte sequence every deliverable must
	// carry unless AcceptedSignatures says otherwise.
	DefaultSignature = "%PDF-"

	// DefaultClassifierEndpoint is the OpenAI-compatible chat completions URL.
	DefaultClassifierEndpoint = "https://api.openai.com/v1/chat/completions"

	// DefaultClassifierModel must accept file inputs and JSON schema output.
	DefaultClassifierModel = "gpt-4o"

	// DefaultClassifierTimeout bounds one classifier attempt.
	DefaultClassifierTimeout = 2 * time.Minute

	// DefaultClassifierAttempts is the number of tries before giving up.
	DefaultClassifierAttempts = 3

	// DefaultClassifierBackoff is the wait before the second attempt. It
	// doubles after every failure.
	DefaultClassifierBackoff = time.Second

	// DefaultRedisKey is the list notifications are pushed onto.
	DefaultRedisKey = "feedtrack:notifications"

	// DefaultOutlineConcurrency is how many outlines are built in parallel.
	DefaultOutlineConcurrency = 4

	// APIKeyEnv overrides Classifier.APIKey.
	APIKeyEnv = "FEEDTRACK_CLASSIFIER_API_KEY"
)

// ClassifierConfig configures the generative model client.
type ClassifierConfig struct {
	// Endpoint is the chat completions URL.
	Endpoint string `yaml:"endpoint"`

	// Model is the model name sent with every request.
	Model string `yaml:"model"`

	// APIKey is sent as a bearer token. Prefer the FEEDTRACK_CLASSIFIER_API_KEY
	// environment variable over writing it to a file.
	APIKey string `yaml:"api_key"`

	// Timeout bounds a single attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts is the number of tries for one evaluation.
	MaxAttempts int `yaml:"max_attempts"`

	// Backoff is the initial wait between attempts.
	Backoff time.Duration `yaml:"backoff"`
}

// Enabled reports whether enough is configured to call the classifier.
func (c ClassifierConfig) Enabled() bool {
	return c.Endpoint != "" && c.Model != "" && c.APIKey != ""
}

// RedisConfig configures the notification list. An empty Addr disables it
// and notifications are only logged.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// Enabled reports whether notifications go to Redis.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Config holds all configuration options for feedtrack.
// It is populated from defaults, then the YAML file, then the environment,
// then CLI flags, and passed down explicitly.
type Config struct {
	// DBDir is the directory holding the SQLite database.
	// Defaults to XDG data directory (~/.local/share/feedtrack on Linux).
	DBDir string `yaml:"db_dir"`

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool `yaml:"verbose"`

	// JSONLogs switches the log format from text to JSON.
	JSONLogs bool `yaml:"json_logs"`

	// MaxUploadSize is the largest accepted deliverable in bytes.
	MaxUploadSize int64 `yaml:"max_upload_size"`

	// AcceptedSignatures lists the leading byte sequences a deliverable may
	// start with.
	AcceptedSignatures []string `yaml:"accepted_signatures"`

	// Classifier configures compliance evaluation and page location.
	Classifier ClassifierConfig `yaml:"classifier"`

	// Redis configures notification delivery.
	Redis RedisConfig `yaml:"redis"`

	// OutlineConcurrency bounds parallel outline builds.
	OutlineConcurrency int `yaml:"outline_concurrency"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DBDir:              XDGDataDir(),
		MaxUploadSize:      DefaultMaxUploadSize,
		AcceptedSignatures: []string{DefaultSignature},
		Classifier: ClassifierConfig{
			Endpoint:    DefaultClassifierEndpoint,
			Model:       DefaultClassifierModel,
			Timeout:     DefaultClassifierTimeout,
			MaxAttempts: DefaultClassifierAttempts,
			Backoff:     DefaultClassifierBackoff,
		},
		Redis: RedisConfig{
			Key: DefaultRedisKey,
		},
		OutlineConcurrency: DefaultOutlineConcurrency,
	}
}

// XDGDataDir returns the XDG data directory for feedtrack.
// On Linux: ~/.local/share/feedtrack
// On macOS: ~/Library/Application Support/feedtrack
// On Windows: %LOCALAPPDATA%\feedtrack
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for feedtrack.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package's sentinel errors.
func (c *Config) Validate() error {
	if c.DBDir == "" {
		return ErrNoDBDir
	}

	if c.MaxUploadSize <= 0 {
		return ErrInvalidMaxUploadSize
	}

	if len(c.AcceptedSignatures) == 0 {
		return ErrNoSignatures
	}
	for _, s := range c.AcceptedSignatures {
		if s == "" {
			return ErrNoSignatures
		}
	}

	if c.Classifier.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Classifier.MaxAttempts <= 0 {
		return ErrInvalidAttempts
	}

	if c.Classifier.Backoff < 0 {
		return ErrInvalidBackoff
	}

	if c.Redis.DB < 0 {
		return ErrInvalidRedisDB
	}

	if c.OutlineConcurrency <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
