package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nomis52/clubsignup/catalog"
	"github.com/nomis52/clubsignup/logging"
)

const (
	defaultListenAddr    = ":8080"
	defaultHistoryMax    = 500
	defaultPushSchedule  = "*/5 * * * *"
	defaultMetricsPrefix = "clubsignup"
	defaultJobName       = "clubsignup"
)

// ServerConfig represents the server runtime configuration.
type ServerConfig struct {
	Listener   ListenerConfig   `yaml:"listener"`
	Logging    logging.Config   `yaml:"logging"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	History    HistoryConfig    `yaml:"history"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ListenerConfig holds HTTP server listener settings.
type ListenerConfig struct {
	// The listen address, defaults to :8080
	Addr string `yaml:"addr"`
	// TLSCert and TLSKey enable HTTPS when both are set
	TLSCert string `yaml:"tls_cert,omitempty"`
	TLSKey  string `yaml:"tls_key,omitempty"`
}

// CatalogConfig controls how the activity registry is built.
type CatalogConfig struct {
	// Path to a YAML seed file; the built-in catalog is used when empty
	SeedFile string `yaml:"seed_file,omitempty"`
	// per_activity or global
	EnrollmentPolicy string `yaml:"enrollment_policy"`
}

// HistoryConfig controls the change journal.
type HistoryConfig struct {
	// Maximum number of journal entries kept, 0 keeps everything.
	// Defaults to 500 when the key is absent.
	MaxEntries *int `yaml:"max_entries"`
}

// Limit returns the configured journal size, 0 meaning unlimited.
func (h HistoryConfig) Limit() int {
	if h.MaxEntries == nil {
		return defaultHistoryMax
	}
	return *h.MaxEntries
}

// MonitoringConfig holds metrics push settings.
type MonitoringConfig struct {
	// Base URL of a Prometheus remote write endpoint; empty disables pushing
	PushURL       string `yaml:"push_url,omitempty"`
	PushSchedule  string `yaml:"push_schedule"`
	MetricsPrefix string `yaml:"metrics_prefix"`
	JobName       string `yaml:"job_name"`
}

// Default returns a ServerConfig with every default applied.
func Default() *ServerConfig {
	cfg := &ServerConfig{}
	cfg.SetDefaults()
	return cfg
}

// LoadConfig reads the YAML config file at the given path and returns a ServerConfig struct.
func LoadConfig(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open server config file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode YAML server config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config %s: %w", path, err)
	}

	return &cfg, nil
}

// SetDefaults sets reasonable default values for optional fields.
func (c *ServerConfig) SetDefaults() {
	if c.Listener.Addr == "" {
		c.Listener.Addr = defaultListenAddr
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Catalog.EnrollmentPolicy == "" {
		c.Catalog.EnrollmentPolicy = string(catalog.PolicyPerActivity)
	}
	if c.History.MaxEntries == nil {
		maxEntries := defaultHistoryMax
		c.History.MaxEntries = &maxEntries
	}
	if c.Monitoring.PushSchedule == "" {
		c.Monitoring.PushSchedule = defaultPushSchedule
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
}

// Validate performs basic validation on the configuration.
func (c *ServerConfig) Validate() error {
	if (c.Listener.TLSCert == "") != (c.Listener.TLSKey == "") {
		return errors.New("listener tls_cert and tls_key must be set together")
	}
	if _, err := catalog.ParsePolicy(c.Catalog.EnrollmentPolicy); err != nil {
		return err
	}
	if c.History.Limit() < 0 {
		return errors.New("history max_entries must not be negative")
	}
	return nil
}

// TLSEnabled reports whether the listener should serve HTTPS.
func (c *ServerConfig) TLSEnabled() bool {
	return c.Listener.TLSCert != "" && c.Listener.TLSKey != ""
}

// PushEnabled reports whether roster metrics are pushed on a schedule.
func (c *ServerConfig) PushEnabled() bool {
	return c.Monitoring.PushURL != ""
}
