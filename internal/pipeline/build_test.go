package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-profiler/backend/internal/config"
)

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		wantAI    bool
		wantError bool
	}{
		{"ai disabled", func(c *config.Config) { c.AI.Disabled = true }, false, false},
		{"no credentials", func(c *config.Config) { c.AI.OpenAI.APIKey = "" }, false, false},
		{"openai key", func(c *config.Config) { c.AI.OpenAI.APIKey = "sk-test" }, true, false},
		{"unknown provider", func(c *config.Config) { c.AI.Provider = "llama" }, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)

			p, aiEnabled, err := FromConfig(context.Background(), cfg)
			if tc.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tc.wantAI, aiEnabled)
			assert.Equal(t, tc.wantAI, p.analyzer != nil)
		})
	}
}
