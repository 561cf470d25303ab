package number

import (
	"errors"
	"strings"
	"time"

	"github.com/forPelevin/gomoji"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
)

const (
	// DefaultProbeBody is U+2800, a braille pattern blank that renders as empty space.
	DefaultProbeBody    = "⠀"
	DefaultProbeTimeout = 20 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	deleteTimeout       = 10 * time.Second
)

type Config struct {
	CountryCode  string
	Suffix       string
	ProbeBody    string
	Timeout      time.Duration
	PollInterval time.Duration
	Order        Order
	// RequireProbe keeps probing mandatory for the unambiguous 12-digit shape.
	RequireProbe bool
	// CacheTTL keeps confirmed identifiers for reuse; zero disables the cache.
	CacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		CountryCode:  DefaultCountryCode,
		Suffix:       DefaultSuffix,
		ProbeBody:    DefaultProbeBody,
		Timeout:      DefaultProbeTimeout,
		PollInterval: DefaultPollInterval,
		Order:        LegacyFirst,
		RequireProbe: true,
	}
}

// LoadConfig reads the NUMBER_* environment variables on top of DefaultConfig.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	cfg.CountryCode = Clean(env.GetEnvStringOrDefault("NUMBER_COUNTRY_CODE", cfg.CountryCode))
	cfg.Suffix = env.GetEnvStringOrDefault("NUMBER_SUFFIX", cfg.Suffix)
	cfg.ProbeBody = env.GetEnvRawOrDefault("NUMBER_PROBE_BODY", cfg.ProbeBody)
	cfg.Timeout = env.GetEnvDurationOrDefault("NUMBER_PROBE_TIMEOUT", cfg.Timeout)
	cfg.PollInterval = env.GetEnvDurationOrDefault("NUMBER_POLL_INTERVAL", cfg.PollInterval)
	cfg.Order = ParseOrder(env.GetEnvStringOrDefault("NUMBER_PROBE_ORDER", cfg.Order.String()))
	cfg.RequireProbe = env.GetEnvBoolOrDefault("NUMBER_REQUIRE_PROBE", cfg.RequireProbe)
	cfg.CacheTTL = env.GetEnvDurationOrDefault("NUMBER_CACHE_TTL", cfg.CacheTTL)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.CountryCode == "" {
		return errors.New("number: country code must contain digits")
	}
	if c.Timeout <= 0 {
		return errors.New("number: probe timeout must be positive")
	}
	if c.PollInterval <= 0 || c.PollInterval > c.Timeout {
		return errors.New("number: poll interval must be positive and not exceed the probe timeout")
	}
	if c.ProbeBody == "" {
		return errors.New("number: probe body must not be empty")
	}
	if strings.TrimSpace(c.ProbeBody) == "" {
		return errors.New("number: probe body must not be plain whitespace")
	}
	if gomoji.ContainsEmoji(c.ProbeBody) {
		return errors.New("number: probe body must not contain emoji")
	}
	if c.CacheTTL < 0 {
		return errors.New("number: cache ttl must not be negative")
	}
	return nil
}
