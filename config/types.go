package config

import "time"

const (
	DefaultBaseURL  = "https://intersight.com/api/v1"
	DefaultPageSize = 100

	DefaultRetryMaxAttempts    = 3
	DefaultRetryInitialBackoff = 500 * time.Millisecond
)

// Settings is the explicit client configuration, constructed once by the
// calling layer and passed by value.
type Settings struct {
	KeyID              string        `yaml:"key-id"`
	PrivateKey         string        `yaml:"private-key,omitempty"`
	PrivateKeyFile     string        `yaml:"private-key-file,omitempty"`
	BaseURL            string        `yaml:"base-url,omitempty"`
	InsecureSkipVerify bool          `yaml:"insecure-skip-verify,omitempty"`
	Retry              RetrySettings `yaml:"retry,omitempty"`
	RateLimit          float64       `yaml:"rate-limit,omitempty"`
	PageSize           int           `yaml:"page-size,omitempty"`
}

type RetrySettings struct {
	MaxAttempts    int           `yaml:"max-attempts,omitempty"`
	InitialBackoff time.Duration `yaml:"initial-backoff,omitempty"`
}
