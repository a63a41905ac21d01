package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int      `env:"TEST_CFG_PORT" envDefault:"8080"`
	Host    string   `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Debug   bool     `env:"TEST_CFG_DEBUG" envDefault:"false"`
	Brokers []string `env:"TEST_CFG_BROKERS" envDefault:"a:9092,b:9092" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.False(t, cfg.Debug)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_HOST", "0.0.0.0")
	t.Setenv("TEST_CFG_DEBUG", "true")
	t.Setenv("TEST_CFG_BROKERS", "kafka:9092")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Brokers)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type requiredConfig struct {
	APIKey string `env:"TEST_CFG_API_KEY,required"`
}

func TestLoad_RequiredField(t *testing.T) {
	var missing requiredConfig
	require.Error(t, Load(&missing))

	t.Setenv("TEST_CFG_API_KEY", "secret-123")
	var present requiredConfig
	require.NoError(t, Load(&present))
	assert.Equal(t, "secret-123", present.APIKey)
}

type validatedConfig struct {
	Port int `env:"TEST_CFG_VPORT" envDefault:"80"`
}

func (c *validatedConfig) Validate() error {
	if c.Port > 1000 {
		return errors.New("port too high")
	}
	return nil
}

func TestLoad_RunsValidate(t *testing.T) {
	var ok validatedConfig
	require.NoError(t, Load(&ok))

	t.Setenv("TEST_CFG_VPORT", "5000")
	var bad validatedConfig
	err := Load(&bad)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config: port too high")
}
