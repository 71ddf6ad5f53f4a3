package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"labeleval/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	LLMProvider           string  `yaml:"llm_provider"`
	LLMModel              string  `yaml:"llm_model"`
	LLMMaxAttempts        int     `yaml:"llm_max_attempts"`
	LLMMaxTokens          int     `yaml:"llm_max_tokens"`
	LLMCallTimeoutSeconds int     `yaml:"llm_call_timeout_seconds"`
	LLMConcurrency        int     `yaml:"llm_concurrency"`
	LLMRequestsPerSecond  float64 `yaml:"llm_requests_per_second"`

	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	AnthropicBaseURL string `yaml:"anthropic_base_url"`
	GeminiAPIKey     string `yaml:"gemini_api_key"`

	PromptUsedMaxChars int    `yaml:"prompt_used_max_chars"`
	VocabularyPath     string `yaml:"vocabulary_path"`
	ConfusionTopK      int    `yaml:"confusion_top_k"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file"`
	SlackWebhookURL string `yaml:"slack_webhook_url"`
	MetricsTextfile string `yaml:"metrics_textfile"`
	Timezone        string `yaml:"timezone"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

// LoadConfig is Load followed by RequireCredential: the entry point for
// commands that call a classification service.
func LoadConfig() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.RequireCredential(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads .env, config.yaml and the environment, in increasing priority,
// then applies defaults and validates everything except credentials.
func Load() (Config, error) {
	var cfg Config

	dotenvPath := ".env"
	if envPath := os.Getenv("DOTENV_PATH"); envPath != "" {
		dotenvPath = envPath
	}
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "OPENAI_MODEL")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicBaseURL, "ANTHROPIC_BASE_URL")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&cfg.VocabularyPath, "VOCABULARY_PATH")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.LogFile, "LOG_FILE")
	envOverride(&cfg.SlackWebhookURL, "SLACK_WEBHOOK_URL")
	envOverride(&cfg.MetricsTextfile, "METRICS_TEXTFILE")
	envOverride(&cfg.Timezone, "TIMEZONE")

	var errs []error
	errs = append(errs,
		envOverrideInt(&cfg.LLMMaxAttempts, "LLM_MAX_ATTEMPTS"),
		envOverrideInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS"),
		envOverrideInt(&cfg.LLMCallTimeoutSeconds, "LLM_CALL_TIMEOUT_SECONDS"),
		envOverrideInt(&cfg.LLMConcurrency, "LLM_CONCURRENCY"),
		envOverrideFloat(&cfg.LLMRequestsPerSecond, "LLM_REQUESTS_PER_SECOND"),
		envOverrideInt(&cfg.PromptUsedMaxChars, "PROMPT_USED_MAX_CHARS"),
		envOverrideInt(&cfg.ConfusionTopK, "CONFUSION_TOP_K"),
		envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"),
	)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.OpenAIBaseURL = strings.Trim(strings.TrimSpace(cfg.OpenAIBaseURL), `'"`)
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderOpenAI
	}
	if cfg.LLMMaxAttempts == 0 {
		cfg.LLMMaxAttempts = 2
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = 512
	}
	if cfg.LLMCallTimeoutSeconds == 0 {
		cfg.LLMCallTimeoutSeconds = 60
	}
	if cfg.LLMConcurrency == 0 {
		cfg.LLMConcurrency = 1
	}
	if cfg.PromptUsedMaxChars == 0 {
		cfg.PromptUsedMaxChars = 800
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	switch cfg.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return Config{}, fmt.Errorf("llm_provider must be 'openai', 'anthropic' or 'gemini', got '%s'", cfg.LLMProvider)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timezone '%s': %w", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if cfg.LLMMaxAttempts < 1 {
		return Config{}, fmt.Errorf("invalid llm_max_attempts '%d': must be >= 1", cfg.LLMMaxAttempts)
	}
	if cfg.LLMMaxTokens < 16 {
		return Config{}, fmt.Errorf("invalid llm_max_tokens '%d': must be >= 16", cfg.LLMMaxTokens)
	}
	if cfg.LLMConcurrency < 1 {
		return Config{}, fmt.Errorf("invalid llm_concurrency '%d': must be >= 1", cfg.LLMConcurrency)
	}
	if cfg.LLMRequestsPerSecond < 0 {
		return Config{}, fmt.Errorf("invalid llm_requests_per_second '%f': must be >= 0", cfg.LLMRequestsPerSecond)
	}
	if cfg.PromptUsedMaxChars < 1 {
		return Config{}, fmt.Errorf("invalid prompt_used_max_chars '%d': must be >= 1", cfg.PromptUsedMaxChars)
	}
	if cfg.ConfusionTopK < 0 {
		return Config{}, fmt.Errorf("invalid confusion_top_k '%d': must be >= 0", cfg.ConfusionTopK)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		return Config{}, fmt.Errorf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}

	return cfg, nil
}

// RequireCredential reports domain.ErrMissingCredential when the selected
// provider has no API key.
func (c Config) RequireCredential() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required when llm_provider=openai", domain.ErrMissingCredential)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY is required when llm_provider=anthropic", domain.ErrMissingCredential)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required when llm_provider=gemini", domain.ErrMissingCredential)
		}
	default:
		return fmt.Errorf("llm_provider must be 'openai', 'anthropic' or 'gemini', got '%s'", c.LLMProvider)
	}
	return nil
}

// CallTimeout is the per-request deadline. A negative
// llm_call_timeout_seconds disables it and returns zero; zero means 60s.
func (c Config) CallTimeout() time.Duration {
	if c.LLMCallTimeoutSeconds < 0 {
		return 0
	}
	return time.Duration(c.LLMCallTimeoutSeconds) * time.Second
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
