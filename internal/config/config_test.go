package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"labeleval/internal/domain"

	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"LLM_PROVIDER", "LLM_MODEL", "OPENAI_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "GEMINI_API_KEY", "VOCABULARY_PATH",
	"LOG_LEVEL", "LOG_FILE", "SLACK_WEBHOOK_URL", "METRICS_TEXTFILE", "TIMEZONE",
	"LLM_MAX_ATTEMPTS", "LLM_MAX_TOKENS", "LLM_CALL_TIMEOUT_SECONDS", "LLM_CONCURRENCY",
	"LLM_REQUESTS_PER_SECOND", "PROMPT_USED_MAX_CHARS", "CONFUSION_TOP_K",
	"EXTERNAL_HTTP_TIMEOUT_SECONDS",
}

func isolateConfigEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing-config.yaml"))
	t.Setenv("DOTENV_PATH", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	require.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	require.Equal(t, 2, cfg.LLMMaxAttempts)
	require.Equal(t, 1, cfg.LLMConcurrency)
	require.Equal(t, 800, cfg.PromptUsedMaxChars)
	require.Equal(t, 60*time.Second, cfg.CallTimeout())
	require.Equal(t, int(defaultExternalHTTPTimeout/time.Second), cfg.ExternalHTTPTimeoutSeconds)
	require.NotNil(t, cfg.Location)
	require.Equal(t, "UTC", cfg.Location.String())
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	dir := isolateConfigEnv(t)
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
llm_provider: "anthropic"
anthropic_api_key: "yaml-anthropic"
llm_model: "yaml-model"
llm_max_attempts: 3
confusion_top_k: 5
timezone: "UTC"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "env-default-model")
	t.Setenv("OPENAI_BASE_URL", `"http://localhost:8080/v1"`)
	t.Setenv("LLM_CONCURRENCY", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	require.Equal(t, "sk-env", cfg.OpenAIAPIKey)
	require.Equal(t, "yaml-anthropic", cfg.AnthropicAPIKey)
	require.Equal(t, "env-default-model", cfg.LLMModel)
	require.Equal(t, "http://localhost:8080/v1", cfg.OpenAIBaseURL)
	require.Equal(t, 3, cfg.LLMMaxAttempts)
	require.Equal(t, 4, cfg.LLMConcurrency)
	require.Equal(t, 5, cfg.ConfusionTopK)
}

func TestLoadConfigLLMModelBeatsOpenAIModel(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "from-openai-model")
	t.Setenv("LLM_MODEL", "from-llm-model")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "from-llm-model", cfg.LLMModel)
}

func TestLoadConfigReadsDotenv(t *testing.T) {
	dir := isolateConfigEnv(t)
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644))
	t.Setenv("DOTENV_PATH", dotenv)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })
	os.Unsetenv("GEMINI_API_KEY")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.GeminiAPIKey)
}

func TestLoadConfigMissingCredential(t *testing.T) {
	tests := []struct {
		provider string
	}{
		{provider: "openai"},
		{provider: "anthropic"},
		{provider: "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("LLM_PROVIDER", tt.provider)

			_, err := LoadConfig()
			require.Error(t, err)
			require.True(t, errors.Is(err, domain.ErrMissingCredential), "got %v", err)
		})
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "attempts", key: "LLM_MAX_ATTEMPTS", val: "-1"},
		{name: "concurrency", key: "LLM_CONCURRENCY", val: "-2"},
		{name: "not a number", key: "LLM_MAX_TOKENS", val: "many"},
		{name: "rps", key: "LLM_REQUESTS_PER_SECOND", val: "-0.5"},
		{name: "http timeout", key: "EXTERNAL_HTTP_TIMEOUT_SECONDS", val: "1"},
		{name: "provider", key: "LLM_PROVIDER", val: "llama"},
		{name: "timezone", key: "TIMEZONE", val: "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("OPENAI_API_KEY", "sk-test")
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestLoadConfigCallTimeout(t *testing.T) {
	tests := []struct {
		val  string
		want time.Duration
	}{
		{val: "", want: 60 * time.Second},
		{val: "0", want: 60 * time.Second},
		{val: "15", want: 15 * time.Second},
		{val: "-1", want: 0},
	}
	for _, tt := range tests {
		t.Run("timeout="+tt.val, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("OPENAI_API_KEY", "sk-test")
			t.Setenv("LLM_CALL_TIMEOUT_SECONDS", tt.val)

			cfg, err := LoadConfig()
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.CallTimeout())
		})
	}
}

func TestLoadWithoutCredential(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("LLM_PROVIDER", "anthropic")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	require.ErrorIs(t, cfg.RequireCredential(), domain.ErrMissingCredential)

	t.Setenv("LLM_PROVIDER", "cohere")
	_, err = Load()
	require.Error(t, err)
}
