package config

import "strings"

// InfraConfig mirrors the outputs of the infrastructure stack that the
// client reads at runtime. It is informational only.
type InfraConfig struct {
	AppURL            string `env:"APP_URL"`
	CDNDistributionID string `env:"CDN_DISTRIBUTION_ID"`
	CDNBucketName     string `env:"CDN_BUCKET_NAME"`
	GoogleAPIKey      string `env:"GOOGLE_API_KEY"`
	RollbarToken      string `env:"ROLLBAR_TOKEN"`
}

// Sanitize trims every value.
func (c *InfraConfig) Sanitize() {
	c.AppURL = strings.TrimRight(strings.TrimSpace(c.AppURL), "/")
	c.CDNDistributionID = strings.TrimSpace(c.CDNDistributionID)
	c.CDNBucketName = strings.TrimSpace(c.CDNBucketName)
	c.GoogleAPIKey = strings.TrimSpace(c.GoogleAPIKey)
	c.RollbarToken = strings.TrimSpace(c.RollbarToken)
}

// Redacted returns the values keyed by variable name with secrets masked.
func (c InfraConfig) Redacted() map[string]string {
	return map[string]string{
		"APP_URL":             c.AppURL,
		"CDN_DISTRIBUTION_ID": c.CDNDistributionID,
		"CDN_BUCKET_NAME":     c.CDNBucketName,
		"GOOGLE_API_KEY":      mask(c.GoogleAPIKey),
		"ROLLBAR_TOKEN":       mask(c.RollbarToken),
	}
}

// mask keeps the last four characters of values long enough to hide.
func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}
