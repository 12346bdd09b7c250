package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPITimeout   = 30 * time.Second
	defaultPingInterval = 30 * time.Second
	minPingInterval     = time.Second
)

// APIConfig configures the backend API client.
type APIConfig struct {
	BaseURL      string        `env:"API_BASE_URL"`
	Timeout      time.Duration `env:"API_TIMEOUT"       envDefault:"30s"`
	UserAgent    string        `env:"API_USER_AGENT"    envDefault:"cutdesk-cli"`
	PingInterval time.Duration `env:"API_PING_INTERVAL" envDefault:"30s"`
}

// Sanitize applies guardrails to API client settings.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	if c.Timeout <= 0 {
		c.Timeout = defaultAPITimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.PingInterval < minPingInterval {
		c.PingInterval = minPingInterval
	}
}

// Validate checks that the base URL is an absolute http(s) URL.
func (c *APIConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	return nil
}
