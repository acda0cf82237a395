// Package config loads client settings from YAML files and INTERSYNC_*
// environment overrides.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crmarques/intersync/faults"
)

const (
	envKeyID         = "INTERSYNC_API_KEY_ID"
	envPrivateKey    = "INTERSYNC_API_PRIVATE_KEY"
	envBaseURL       = "INTERSYNC_API_URI"
	envInsecure      = "INTERSYNC_INSECURE_SKIP_VERIFY"
	envRetryAttempts = "INTERSYNC_RETRY_MAX_ATTEMPTS"
	envRetryBackoff  = "INTERSYNC_RETRY_INITIAL_BACKOFF"
	envRateLimit     = "INTERSYNC_RATE_LIMIT"
	envPageSize      = "INTERSYNC_PAGE_SIZE"
)

// Load reads settings from a YAML file, applies environment overrides, and
// fills defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, faults.NewTypedError(faults.ValidationError, "failed to read settings file", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, faults.NewTypedError(faults.ValidationError, "settings file is not valid YAML", err)
	}

	if err := applyEnvOverrides(&settings); err != nil {
		return Settings{}, err
	}
	settings.applyDefaults()
	return settings, settings.Validate()
}

// FromEnv builds settings from environment variables alone.
func FromEnv() (Settings, error) {
	var settings Settings
	if err := applyEnvOverrides(&settings); err != nil {
		return Settings{}, err
	}
	settings.applyDefaults()
	return settings, settings.Validate()
}

// PrivateKeyPEM resolves the key material: PrivateKeyFile wins when set,
// otherwise PrivateKey is tried as a file path first and falls back to being
// treated as literal PEM text.
func (s Settings) PrivateKeyPEM() (string, error) {
	if strings.TrimSpace(s.PrivateKeyFile) != "" {
		data, err := os.ReadFile(s.PrivateKeyFile)
		if err != nil {
			return "", faults.NewTypedError(faults.ValidationError, "failed to read private key file", err)
		}
		return string(data), nil
	}

	material := s.PrivateKey
	if strings.TrimSpace(material) == "" {
		return "", faults.NewTypedError(faults.ValidationError, "private key material is required", nil)
	}
	if data, err := os.ReadFile(material); err == nil {
		return string(data), nil
	}
	return material, nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.KeyID) == "" {
		return faults.NewTypedError(faults.ValidationError, "key-id is required", nil)
	}
	if strings.TrimSpace(s.PrivateKey) == "" && strings.TrimSpace(s.PrivateKeyFile) == "" {
		return faults.NewTypedError(faults.ValidationError, "one of private-key or private-key-file is required", nil)
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if strings.TrimSpace(s.BaseURL) == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Retry.MaxAttempts <= 0 {
		s.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if s.Retry.InitialBackoff <= 0 {
		s.Retry.InitialBackoff = DefaultRetryInitialBackoff
	}
}

func applyEnvOverrides(settings *Settings) error {
	if value, ok := lookupEnv(envKeyID); ok {
		settings.KeyID = value
	}
	if value, ok := lookupEnv(envPrivateKey); ok {
		settings.PrivateKey = value
	}
	if value, ok := lookupEnv(envBaseURL); ok {
		settings.BaseURL = value
	}
	if value, ok := lookupEnv(envInsecure); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return envError(envInsecure, err)
		}
		settings.InsecureSkipVerify = parsed
	}
	if value, ok := lookupEnv(envRetryAttempts); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return envError(envRetryAttempts, err)
		}
		settings.Retry.MaxAttempts = parsed
	}
	if value, ok := lookupEnv(envRetryBackoff); ok {
		parsed, err := parseDuration(value)
		if err != nil {
			return envError(envRetryBackoff, err)
		}
		settings.Retry.InitialBackoff = parsed
	}
	if value, ok := lookupEnv(envRateLimit); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return envError(envRateLimit, err)
		}
		settings.RateLimit = parsed
	}
	if value, ok := lookupEnv(envPageSize); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return envError(envPageSize, err)
		}
		settings.PageSize = parsed
	}
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	return time.ParseDuration(strings.TrimSpace(value))
}

func lookupEnv(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func envError(name string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, "invalid value for "+name, cause)
}
