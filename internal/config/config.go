package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/vrischmann/envconfig"
)

// Config holds the provider credentials and identifiers consumed from the
// environment. Provider configuration is environment-only; command flags
// cover operational knobs.
type Config struct {
	APIBaseURL     string `envconfig:"RENDER_API_BASE_URL"`
	APIKey         string `envconfig:"RENDER_API_KEY"`
	ServiceID      string `envconfig:"RENDER_API_SERVICE_ID,optional"`
	OwnerID        string `envconfig:"RENDER_OWNER_ID,optional"`
	EnvironmentID  string `envconfig:"RENDER_ENVIRONMENT_ID,optional"`
	ServiceBaseURL string `envconfig:"RENDER_SERVICE_BASE_URL,optional"`
}

// FromEnvironment reads the configuration from environment variables.
func FromEnvironment() (*Config, error) {
	config := &Config{}
	err := envconfig.Init(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration from environment")
	}

	config.APIBaseURL = strings.TrimRight(config.APIBaseURL, "/")
	config.ServiceBaseURL = strings.TrimRight(config.ServiceBaseURL, "/")

	return config, nil
}

// ValidateForRotation ensures all identifiers required by the rotate
// workflow are present. The resync workflow only needs the API base URL and
// key, which envconfig already enforces.
func (c *Config) ValidateForRotation() error {
	var missing []string
	if c.ServiceID == "" {
		missing = append(missing, "RENDER_API_SERVICE_ID")
	}
	if c.OwnerID == "" {
		missing = append(missing, "RENDER_OWNER_ID")
	}
	if c.EnvironmentID == "" {
		missing = append(missing, "RENDER_ENVIRONMENT_ID")
	}
	if c.ServiceBaseURL == "" {
		missing = append(missing, "RENDER_SERVICE_BASE_URL")
	}

	if len(missing) > 0 {
		return errors.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}
