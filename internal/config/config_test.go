package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate, for mutation in tests.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Database.Enabled = true
	cfg.Database.User = "sfner"
	cfg.Kafka.Enabled = true
	cfg.NER.FuzzyThreshold = DefaultFuzzyThreshold
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad mode", func(c *Config) { c.Server.Mode = "production" }},
		{"fuzzy threshold negative", func(c *Config) { c.NER.FuzzyThreshold = -1 }},
		{"fuzzy threshold over 100", func(c *Config) { c.NER.FuzzyThreshold = 101 }},
		{"batch workers zero", func(c *Config) { c.NER.BatchWorkers = 0 }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"missing db user", func(c *Config) { c.Database.User = "" }},
		{"no kafka brokers", func(c *Config) { c.Kafka.Brokers = nil }},
		{"missing kafka group", func(c *Config) { c.Kafka.GroupID = "" }},
		{"missing extract topic", func(c *Config) { c.Kafka.ExtractTopic = "" }},
		{"worker concurrency zero", func(c *Config) { c.Worker.Concurrency = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateFuzzyThresholdZeroIsValid(t *testing.T) {
	cfg := validConfig()
	cfg.NER.FuzzyThreshold = 0
	assert.NoError(t, cfg.Validate(), "0 disables fuzzy matching and must validate")
}

func TestValidateRedisAddrOnlyRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Enabled = false
	cfg.Redis.Addr = ""
	assert.NoError(t, cfg.Validate())

	cfg.Redis.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestValidateSkipsDisabledDatabaseAndKafka(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Enabled = false
	cfg.Database.Host = ""
	cfg.Kafka.Enabled = false
	cfg.Kafka.Brokers = nil
	assert.NoError(t, cfg.Validate())
}
