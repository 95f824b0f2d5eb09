// internal/workers/crm/sync-assessment-contact/config.go
package syncassessmentcontact

import (
	"fmt"
	"time"

	"aiq-assessment/internal/common/hubspot"
)

type Config struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxJobsActive      int           `mapstructure:"max_jobs_active"`
	Timeout            time.Duration `mapstructure:"timeout"`
	HubSpotBaseURL     string        `mapstructure:"hubspot_base_url"`
	HubSpotAccessToken string        `mapstructure:"hubspot_access_token"`
	HubSpotTimeout     time.Duration `mapstructure:"hubspot_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  5,
		Timeout:        30 * time.Second,
		HubSpotBaseURL: hubspot.DefaultBaseURL,
		HubSpotTimeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.HubSpotBaseURL == "" {
		return fmt.Errorf("hubspot_base_url is required")
	}
	if c.Enabled && c.HubSpotAccessToken == "" {
		return fmt.Errorf("hubspot_access_token is required")
	}
	return nil
}
