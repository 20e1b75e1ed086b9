package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"github.com/actuatorprobe/actuatorprobe/internal/event"
	"github.com/actuatorprobe/actuatorprobe/internal/metrics"
	"github.com/actuatorprobe/actuatorprobe/internal/storage/s3"
	"github.com/actuatorprobe/actuatorprobe/internal/transport"
	"github.com/actuatorprobe/actuatorprobe/pkg/retry"
	"github.com/actuatorprobe/actuatorprobe/pkg/utils"
)

// EnvPrefix is the prefix of every environment variable LoadFromEnv reads.
const EnvPrefix = "ACTUATORPROBE_"

// Configuration represents the complete application configuration
type Configuration struct {
	Event     EventConfig      `yaml:"event"`
	Transport transport.Config `yaml:"transport"`
	Retry     RetryConfig      `yaml:"retry"`
	Logging   LoggingConfig    `yaml:"logging"`
	Metrics   metrics.Config   `yaml:"metrics"`
	Mirror    s3.Config        `yaml:"mirror"`
}

// EventConfig holds the options of one adapter instance
type EventConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	// Tags is a comma separated list.
	Tags            string `yaml:"tags"`
	ActuatorBaseURL string `yaml:"actuator_base_url"`
	// ActuatorEnvProperties is a comma separated list of property keys.
	ActuatorEnvProperties string `yaml:"actuator_env_properties"`
	DumpPath              string `yaml:"dump_path"`
	// Deprecated: only added to the tags.
	ActuatorPropPrefix string `yaml:"actuator_prop_prefix"`
	TestRunID          string `yaml:"test_run_id"`
}

// RetryConfig represents retry settings of actuator queries
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	Delay      time.Duration `yaml:"delay"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	IncludeCaller bool   `yaml:"include_caller"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Configuration {
	return &Configuration{
		Event: EventConfig{
			Name:               "actuator",
			Enabled:            true,
			ActuatorPropPrefix: event.ActuatorTag,
		},
		Transport: transport.DefaultConfig(),
		Retry: RetryConfig{
			MaxRetries: retry.DefaultRetries,
			Delay:      retry.DefaultDelay,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Metrics: *metrics.DefaultConfig(),
		Mirror:  *s3.NewDefaultConfig(),
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from ACTUATORPROBE_* environment variables
func (c *Configuration) LoadFromEnv() error {
	// Event settings
	setString(&c.Event.Name, "EVENT_NAME")
	setString(&c.Event.Tags, "TAGS")
	setString(&c.Event.ActuatorBaseURL, "ACTUATOR_BASE_URL")
	setString(&c.Event.ActuatorEnvProperties, "ACTUATOR_ENV_PROPERTIES")
	setString(&c.Event.DumpPath, "DUMP_PATH")
	setString(&c.Event.ActuatorPropPrefix, "ACTUATOR_PROP_PREFIX")
	setString(&c.Event.TestRunID, "TEST_RUN_ID")
	if err := setBool(&c.Event.Enabled, "EVENT_ENABLED"); err != nil {
		return err
	}

	// Transport and retry
	if err := setDuration(&c.Transport.ConnectTimeout, "CONNECT_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Transport.ReadTimeout, "READ_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Transport.WriteTimeout, "WRITE_TIMEOUT"); err != nil {
		return err
	}
	if val := os.Getenv(EnvPrefix + "RETRY_MAX_RETRIES"); val != "" {
		retries, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %sRETRY_MAX_RETRIES: %w", EnvPrefix, err)
		}
		c.Retry.MaxRetries = retries
	}
	if err := setDuration(&c.Retry.Delay, "RETRY_DELAY"); err != nil {
		return err
	}

	// Logging and metrics
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	if err := setBool(&c.Metrics.Enabled, "METRICS_ENABLED"); err != nil {
		return err
	}
	setString(&c.Metrics.Address, "METRICS_ADDRESS")

	// Dump mirror
	if err := setBool(&c.Mirror.Enabled, "MIRROR_ENABLED"); err != nil {
		return err
	}
	setString(&c.Mirror.Bucket, "MIRROR_BUCKET")
	setString(&c.Mirror.Prefix, "MIRROR_PREFIX")
	setString(&c.Mirror.Region, "MIRROR_REGION")
	setString(&c.Mirror.Endpoint, "MIRROR_ENDPOINT")

	return nil
}

func setString(target *string, name string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*target = val
	}
}

func setBool(target *bool, name string) error {
	val := os.Getenv(EnvPrefix + name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
	}
	*target = b
	return nil
}

func setDuration(target *time.Duration, name string) error {
	val := os.Getenv(EnvPrefix + name)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
	}
	*target = d
	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	if strings.TrimSpace(c.Event.Name) == "" {
		return fmt.Errorf("event.name cannot be empty")
	}

	if c.Event.ActuatorBaseURL != "" {
		u, err := url.Parse(c.Event.ActuatorBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid event.actuator_base_url: %q (must be an absolute http(s) URL)",
				c.Event.ActuatorBaseURL)
		}
	}

	if c.Transport.ConnectTimeout <= 0 || c.Transport.ReadTimeout <= 0 || c.Transport.WriteTimeout <= 0 {
		return fmt.Errorf("transport timeouts must be greater than 0")
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay cannot be negative")
	}

	if _, err := utils.ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s (must be one of: DEBUG, INFO, WARN, ERROR)", c.Logging.Level)
	}
	if _, err := utils.ParseLogFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("invalid logging.format: %s (must be text or json)", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics.address is required when metrics are enabled")
	}

	return c.Mirror.Validate()
}

// RetryPolicy returns the retry policy of actuator queries.
func (c *Configuration) RetryPolicy() retry.Config {
	return retry.Config{
		MaxAttempts: 1 + c.Retry.MaxRetries,
		Delay:       c.Retry.Delay,
	}
}

// NewLogger creates the structured logger described by the logging section.
func (c *Configuration) NewLogger(output io.Writer) (*utils.StructuredLogger, error) {
	level, err := utils.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := utils.ParseLogFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	return utils.NewStructuredLogger(&utils.StructuredLoggerConfig{
		Level:         level,
		Output:        output,
		Format:        format,
		IncludeCaller: c.Logging.IncludeCaller,
	}), nil
}

// ToContext builds the adapter context. testRunID overrides the configured
// id; when both are empty a random id is generated.
func (c *Configuration) ToContext(testRunID string) event.Context {
	if testRunID == "" {
		testRunID = c.Event.TestRunID
	}
	if testRunID == "" {
		testRunID = uuid.NewString()
	}

	return event.Context{
		Name:                  c.Event.Name,
		Enabled:               c.Event.Enabled,
		Tags:                  c.Event.Tags,
		ActuatorBaseURL:       c.Event.ActuatorBaseURL,
		ActuatorEnvProperties: SplitCSV(c.Event.ActuatorEnvProperties),
		DumpPath:              c.Event.DumpPath,
		ActuatorPropPrefix:    c.Event.ActuatorPropPrefix,
		TestRunID:             testRunID,
	}
}

// SplitCSV splits s on commas, trims whitespace including CR, LF and tabs
// from every item and drops empty items.
func SplitCSV(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
