package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

type Config struct {
	InputDir            string  `yaml:"input_dir"`
	OutputDir           string  `yaml:"output_dir"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	AIProvider    string `yaml:"ai_provider"`
	ModelName     string `yaml:"model_name"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiBaseURL string `yaml:"gemini_base_url"`
	OllamaURL     string `yaml:"ollama_url"`

	ClassifierTimeout        time.Duration `yaml:"classifier_timeout"`
	ClassifierMaxAttempts    int           `yaml:"classifier_max_attempts"`
	ClassifierInitialBackoff time.Duration `yaml:"classifier_initial_backoff"`
	ClassifierMaxBackoff     time.Duration `yaml:"classifier_max_backoff"`
	ClassifierRateLimitRPS   float64       `yaml:"classifier_rate_limit_rps"`
	ClassifierTextLimit      int           `yaml:"classifier_text_limit"`
	ImageMaxWidth            int           `yaml:"image_max_width"`

	LogLevel         string `yaml:"log_level"`
	LogDir           string `yaml:"log_dir"`
	LogRetentionDays int    `yaml:"log_retention_days"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	MetricsTextfile string `yaml:"metrics_textfile"`
}

func Defaults() Config {
	return Config{
		InputDir:            "data/inbox",
		OutputDir:           "data/organised",
		ConfidenceThreshold: domain.DefaultConfidenceThreshold,

		AIProvider: "gemini",
		ModelName:  "gemini-2.0-flash",
		OllamaURL:  "http://localhost:11434",

		ClassifierTimeout:        120 * time.Second,
		ClassifierMaxAttempts:    3,
		ClassifierInitialBackoff: 1 * time.Second,
		ClassifierMaxBackoff:     10 * time.Second,
		ClassifierTextLimit:      2000,
		ImageMaxWidth:            1024,

		LogLevel:         "info",
		LogDir:           "data/logs",
		LogRetentionDays: 7,

		NATSSubject: "documents.filed",
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// (path, or CONFIG_FILE when path is empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.InputDir = mustEnv("INPUT_DIR", c.InputDir)
	c.OutputDir = mustEnv("OUTPUT_DIR", c.OutputDir)
	c.ConfidenceThreshold = mustEnvFloat("CONFIDENCE_THRESHOLD", c.ConfidenceThreshold)

	c.AIProvider = mustEnv("AI_PROVIDER", c.AIProvider)
	c.ModelName = mustEnv("MODEL_NAME", c.ModelName)
	c.OpenAIAPIKey = mustEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = mustEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.GeminiAPIKey = mustEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiBaseURL = mustEnv("GEMINI_BASE_URL", c.GeminiBaseURL)
	c.OllamaURL = mustEnv("OLLAMA_URL", c.OllamaURL)

	c.ClassifierTimeout = mustEnvDuration("CLASSIFIER_TIMEOUT", c.ClassifierTimeout)
	c.ClassifierMaxAttempts = mustEnvInt("CLASSIFIER_MAX_ATTEMPTS", c.ClassifierMaxAttempts)
	c.ClassifierInitialBackoff = mustEnvDuration("CLASSIFIER_INITIAL_BACKOFF", c.ClassifierInitialBackoff)
	c.ClassifierMaxBackoff = mustEnvDuration("CLASSIFIER_MAX_BACKOFF", c.ClassifierMaxBackoff)
	c.ClassifierRateLimitRPS = mustEnvFloat("CLASSIFIER_RATE_LIMIT_RPS", c.ClassifierRateLimitRPS)
	c.ClassifierTextLimit = mustEnvInt("CLASSIFIER_TEXT_LIMIT", c.ClassifierTextLimit)
	c.ImageMaxWidth = mustEnvInt("IMAGE_MAX_WIDTH", c.ImageMaxWidth)

	c.LogLevel = mustEnv("LOG_LEVEL", c.LogLevel)
	c.LogDir = mustEnv("LOG_DIR", c.LogDir)
	c.LogRetentionDays = mustEnvInt("LOG_RETENTION_DAYS", c.LogRetentionDays)

	c.NATSURL = mustEnv("NATS_URL", c.NATSURL)
	c.NATSSubject = mustEnv("NATS_SUBJECT", c.NATSSubject)

	c.MetricsTextfile = mustEnv("METRICS_TEXTFILE", c.MetricsTextfile)
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.InputDir) == "" {
		errs = append(errs, errors.New("input dir is required"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	if c.InputDir != "" && c.OutputDir != "" && filepath.Clean(c.InputDir) == filepath.Clean(c.OutputDir) {
		errs = append(errs, errors.New("input and output dirs must differ"))
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("confidence threshold %v outside [0,1]", c.ConfidenceThreshold))
	}
	if strings.TrimSpace(c.ModelName) == "" {
		errs = append(errs, errors.New("model name is required"))
	}
	switch strings.ToLower(strings.TrimSpace(c.AIProvider)) {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown ai provider %q", c.AIProvider))
	}
	if c.ClassifierMaxAttempts < 1 {
		errs = append(errs, errors.New("classifier max attempts must be at least 1"))
	}
	if c.LogRetentionDays < 0 {
		errs = append(errs, errors.New("log retention days must not be negative"))
	}
	if len(errs) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate config", errors.Join(errs...))
	}
	return nil
}

func (c Config) Settings() domain.BatchSettings {
	return domain.BatchSettings{
		InputDir:            c.InputDir,
		OutputDir:           c.OutputDir,
		ConfidenceThreshold: c.ConfidenceThreshold,
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// mustEnvDuration accepts Go durations ("90s") or a plain number of seconds.
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
