package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: backend API client configuration
//   - auth.go: identity provider and role policy configuration
//   - state.go: session record storage configuration
//   - observability.go: metrics configuration
//   - infra.go: values exported by the infrastructure stack
type AppConfig struct {
	// Environment names the deployment stage (dev, stage, prod).
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`

	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// DemoMode forces demo mode on regardless of the persisted flag.
	DemoMode bool `env:"DEMO_MODE" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	API           APIConfig
	Auth          AuthConfig
	State         StateConfig
	Observability ObservabilityConfig
	Infra         InfraConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment == "" {
		c.Environment = "dev"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.API.Sanitize()
	c.Auth.Sanitize()
	c.State.Sanitize()
	c.Observability.Sanitize()
	c.Infra.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// Validate reports configuration that cannot work at all.
func (c *AppConfig) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate(c.IsDev)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
