package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv applies vars for the duration of the test, clearing the keys that
// NewConfig validates so a developer's .env cannot leak in.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, key := range []string{
		"STORE_PROVIDER", "DATABASE_URL", "AI_PROVIDER", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "STORAGE_PROVIDER",
		"STRIPE_SECRET_KEY", "STRIPE_PRICE_PREMIUM", "CORS_ALLOWED_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "AI_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":   "postgres://localhost/jyotai",
		"OPENAI_API_KEY": "sk-test",
	})

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.StoreProvider)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIChatModel)
	assert.Equal(t, 10*time.Minute, cfg.AICacheTTL)
	assert.Equal(t, "local", cfg.StorageProvider)
	assert.False(t, cfg.BillingEnabled())
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestNewConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "postgres without url",
			vars:    map[string]string{"AI_PROVIDER": "mock"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "unknown store",
			vars:    map[string]string{"STORE_PROVIDER": "redis", "AI_PROVIDER": "mock"},
			wantErr: "STORE_PROVIDER must be",
		},
		{
			name:    "anthropic without key",
			vars:    map[string]string{"STORE_PROVIDER": "memory", "AI_PROVIDER": "anthropic"},
			wantErr: "ANTHROPIC_API_KEY is required",
		},
		{
			name:    "gemini without key",
			vars:    map[string]string{"STORE_PROVIDER": "memory", "AI_PROVIDER": "gemini"},
			wantErr: "GEMINI_API_KEY is required",
		},
		{
			name:    "unknown ai provider",
			vars:    map[string]string{"STORE_PROVIDER": "memory", "AI_PROVIDER": "llama"},
			wantErr: "AI_PROVIDER must be",
		},
		{
			name:    "r2 without account",
			vars:    map[string]string{"STORE_PROVIDER": "memory", "AI_PROVIDER": "mock", "STORAGE_PROVIDER": "r2"},
			wantErr: "R2_ACCOUNT_ID is required",
		},
		{
			name:    "stripe without price",
			vars:    map[string]string{"STORE_PROVIDER": "memory", "AI_PROVIDER": "mock", "STRIPE_SECRET_KEY": "sk_test_1"},
			wantErr: "STRIPE_PRICE_PREMIUM is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.vars)
			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfig_MemoryAndLists(t *testing.T) {
	setEnv(t, map[string]string{
		"STORE_PROVIDER":       "memory",
		"AI_PROVIDER":          "mock",
		"CORS_ALLOWED_ORIGINS": "https://jyotai.app, ,https://www.jyotai.app",
		"AI_CACHE_TTL":         "0s",
	})

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://jyotai.app", "https://www.jyotai.app"}, cfg.CORSAllowedOrigins)
	assert.Zero(t, cfg.AICacheTTL)
}
