// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	RateLimit    RateLimitConfig         `mapstructure:"rate_limit"`
	Content      ContentConfig           `mapstructure:"content"`
	Leads        LeadsConfig             `mapstructure:"leads"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP listener settings. Timeouts are milliseconds.
type ServerConfig struct {
	Port            int      `mapstructure:"port" validate:"min=1,max=65535"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	TrustProxy      bool     `mapstructure:"trust_proxy"`
	ReadTimeout     int      `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    int      `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"min=1,max=65535"`
	Database       string `mapstructure:"database" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ElasticsearchConfig is optional. With no address the search indexing step is skipped.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
	Index     string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// Enabled reports whether any Elasticsearch endpoint is configured.
func (e ElasticsearchConfig) Enabled() bool {
	return e.GetURL() != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// RateLimitConfig bounds submissions per client. Durations are milliseconds.
type RateLimitConfig struct {
	MaxRequests     int    `mapstructure:"max_requests" validate:"min=1"`
	Window          int    `mapstructure:"window" validate:"min=1"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	CleanupInterval int    `mapstructure:"cleanup_interval" validate:"min=0"`
}

// ContentConfig optionally points at a directory of industry packs that replaces the
// packs compiled into the binary.
type ContentConfig struct {
	Dir string `mapstructure:"dir"`
}

// Lead dispatch modes.
const (
	LeadsModeDirect   = "direct"
	LeadsModeWorkflow = "workflow"
	LeadsModeDisabled = "disabled"
)

// LeadsConfig controls the post-submit hand-off to CRM, notification and search.
type LeadsConfig struct {
	Mode       string `mapstructure:"mode" validate:"oneof=direct workflow disabled"`
	ProcessID  string `mapstructure:"process_id"`
	Timeout    int    `mapstructure:"timeout" validate:"min=0"` // milliseconds
	SalesEmail string `mapstructure:"sales_email" validate:"omitempty,email"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds settings for the CRM and AWS messaging services.
type IntegrationConfig struct {
	HubSpot struct {
		BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
		AccessToken string `mapstructure:"access_token"`
		Timeout     int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"hubspot"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email" validate:"omitempty,email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}
