package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, uint16(8086), cfg.HttpServerPort)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 4, cfg.RoomCapacity)
	assert.Equal(t, 100, cfg.MessageBufferCap)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "9100")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://chat.example.com")
	t.Setenv("ROOM_CAPACITY", "8")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, uint16(9100), cfg.HttpServerPort)
	assert.Equal(t, []string{"http://localhost:3000", "https://chat.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 8, cfg.RoomCapacity)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "80") // below the validated minimum

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsZeroCapacity(t *testing.T) {
	t.Setenv("ROOM_CAPACITY", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}
