// Package config provides configuration loading, defaults, and validation for
// the structflo-ner service.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "SFNER"

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, SFNER_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "database.host"
// resolve to "SFNER_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// FuzzyThreshold 0 means "fuzzy matching disabled"; an explicit default
	// here lets ApplyDefaults leave a user-supplied 0 alone.
	v.SetDefault("ner.fuzzy_threshold", DefaultFuzzyThreshold)

	// Viper only resolves env vars for keys it already knows about, so every
	// overridable key must be bound explicitly for LoadFromEnv to work.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// envKeys lists every configuration key that can be overridden through an
// SFNER_* environment variable.
var envKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.max_body_size", "server.shutdown_timeout",
	"ner.fuzzy_threshold", "ner.gazetteer_dir", "ner.watch_gazetteers",
	"ner.batch_workers", "ner.max_text_bytes", "ner.max_batch_docs",
	"database.enabled", "database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.max_idle_conns", "database.conn_max_lifetime",
	"database.conn_max_idle_time", "database.migration_path",
	"redis.enabled", "redis.addr", "redis.password", "redis.db",
	"redis.pool_size", "redis.min_idle_conns", "redis.dial_timeout",
	"redis.read_timeout", "redis.write_timeout", "redis.default_ttl",
	"redis.key_prefix",
	"kafka.enabled", "kafka.brokers", "kafka.group_id", "kafka.extract_topic",
	"kafka.result_topic", "kafka.auto_offset_reset", "kafka.producer_retries",
	"kafka.batch_timeout", "kafka.min_bytes", "kafka.max_bytes",
	"worker.concurrency", "worker.max_retries", "worker.retry_backoff",
	"worker.commit_interval",
	"metrics.enabled", "metrics.path", "metrics.namespace",
	"log.level", "log.format", "log.output",
}

// Load reads the YAML file at configPath, merges any SFNER_* environment
// variable overrides, applies service defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SFNER_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
//
// Environment variable naming convention:
//
//	SFNER_<SECTION>_<FIELD>   e.g.  SFNER_DATABASE_HOST, SFNER_NER_FUZZY_THRESHOLD
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// A changed file that fails to parse or validate is skipped so the
// application never observes a broken config.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here since callers call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
