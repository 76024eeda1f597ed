package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		LineChannelToken:  "token",
		LineChannelSecret: "secret",
		TicketAPIURL:      DefaultTicketAPIURL,
		TicketAPITimeout:  15 * time.Second,
		DefaultTrainType:  "高铁",
		Port:              "10000",
		DataDir:           "/data",
		SessionTTL:        30 * time.Minute,
		HistoryRetention:  30 * 24 * time.Hour,
		Bot: BotConfig{
			WebhookTimeout:            30 * time.Second,
			UserRateLimitBurst:        15,
			UserRateLimitRefillPerSec: 0.2,
			GlobalRateLimitRPS:        100,
			MaxMessagesPerReply:       5,
			MaxEventsPerWebhook:       100,
			MinReplyTokenLength:       10,
			MaxTrainsDisplayed:        8,
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("LINE_CHANNEL_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultTicketAPIURL, cfg.TicketAPIURL)
	assert.Equal(t, TicketRequest, cfg.TicketAPITimeout)
	assert.Equal(t, "高铁", cfg.DefaultTrainType)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 8, cfg.Bot.MaxTrainsDisplayed)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "")
	t.Setenv("LINE_CHANNEL_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINE_CHANNEL_ACCESS_TOKEN")
	assert.Contains(t, err.Error(), "LINE_CHANNEL_SECRET")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("TICKET_API_TIMEOUT", "5s")
	t.Setenv("SESSION_TTL", "0s")
	t.Setenv("MAX_TRAINS_DISPLAYED", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.TicketAPITimeout)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL, "SESSION_TTL=0 disables sweeping")
	assert.Equal(t, 5, cfg.Bot.MaxTrainsDisplayed)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty ticket URL", func(c *Config) { c.TicketAPIURL = "" }, "TICKET_API_URL"},
		{"zero timeout", func(c *Config) { c.TicketAPITimeout = 0 }, "TICKET_API_TIMEOUT"},
		{"negative session TTL", func(c *Config) { c.SessionTTL = -time.Minute }, "SESSION_TTL"},
		{"zero retention", func(c *Config) { c.HistoryRetention = 0 }, "HISTORY_RETENTION"},
		{"display cap too high", func(c *Config) { c.Bot.MaxTrainsDisplayed = 9 }, "MAX_TRAINS_DISPLAYED"},
		{"display cap zero", func(c *Config) { c.Bot.MaxTrainsDisplayed = 0 }, "MAX_TRAINS_DISPLAYED"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}

func TestSQLitePath(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	assert.Equal(t, "/data/history.db", cfg.SQLitePath())
}
