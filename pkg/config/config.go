// Package config provides configuration loading for gopix.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/fyrsmithlabs/gopix/internal/logging"
)

// Config holds everything a session needs to reach a PIX server.
//
// Credentials are not required at load time so read-only tooling can share
// the loader; session.New is where missing credentials become an error.
// Password and AppKey are secrets: String masks them, so log a Config only
// through it.
type Config struct {
	// Connection
	APIURL   string `koanf:"api_url"`
	AppKey   string `koanf:"app_key"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// Request policy
	Timeout    time.Duration `koanf:"timeout"`
	RateLimit  float64       `koanf:"rate_limit"`
	RateBurst  int           `koanf:"rate_burst"`
	MaxRetries int           `koanf:"max_retries"`

	Logging logging.Config `koanf:"logging"`
}

// ApplyDefaults fills zero-valued fields with the packaged defaults. The
// loader applies it after merging sources; hand-built configs get the same
// treatment from session.New.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10 // requests per second
	}
	if c.RateBurst == 0 {
		c.RateBurst = 5
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}

	// Logging defaults
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Fields == nil {
		c.Logging.Fields = map[string]string{"service": "gopix"}
	}
}

// String renders the connection settings for diagnostics with the secret
// fields masked. Value receiver so both Config and *Config format masked.
func (c Config) String() string {
	return fmt.Sprintf("Config{APIURL:%q Username:%q AppKey:%s Password:%s Timeout:%s RateLimit:%g RateBurst:%d MaxRetries:%d}",
		c.APIURL, c.Username, mask(c.AppKey), mask(c.Password), c.Timeout, c.RateLimit, c.RateBurst, c.MaxRetries)
}

func mask(secret string) string {
	if secret == "" {
		return "unset"
	}
	return "****"
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil {
			return fmt.Errorf("invalid api_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("api_url scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("api_url has no host: %q", c.APIURL)
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be > 0, got %v", c.RateLimit)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be >= 1, got %d", c.RateBurst)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}
