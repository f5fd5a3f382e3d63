package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadConfig()

	req.NoError(err)
	req.EqualValues(8069, cfg.HttpServerPort)
	req.Equal(64, cfg.MaxNameLength)
	req.False(cfg.DeliveryFailureAck)
	req.False(cfg.RedisEnabled)
	req.Equal("presence:notifications", cfg.RedisNotifyChannel)
	req.False(cfg.JournalEnabled)
	req.Equal(2*time.Second, cfg.JournalFlushInterval)
}

func TestLoadConfig_From_Env(t *testing.T) {
	req := require.New(t)
	t.Setenv("HTTP_SERVER_PORT", "9000")
	t.Setenv("DELIVERY_FAILURE_ACK", "true")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("JOURNAL_FLUSH_INTERVAL", "500ms")

	cfg, err := LoadConfig()

	req.NoError(err)
	req.EqualValues(9000, cfg.HttpServerPort)
	req.True(cfg.DeliveryFailureAck)
	req.True(cfg.RedisEnabled)
	req.Equal(500*time.Millisecond, cfg.JournalFlushInterval)
}

func TestLoadConfig_Validation(t *testing.T) {
	req := require.New(t)
	t.Setenv("HTTP_SERVER_PORT", "80")

	_, err := LoadConfig()
	req.Error(err)
}

func TestLoadConfig_Bad_Value(t *testing.T) {
	req := require.New(t)
	t.Setenv("MAX_NAME_LENGTH", "many")

	_, err := LoadConfig()
	req.Error(err)
}
