package s3

import (
	"fmt"
	"strings"

	"github.com/actuatorprobe/actuatorprobe/internal/circuit"
)

// Config represents the dump mirror configuration
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	// Prefix is prepended to the dump file name, "dumps/run-42" gives
	// "dumps/run-42/heapdump-...hprof".
	Prefix string `yaml:"prefix"`

	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	ForcePathStyle  bool   `yaml:"force_path_style"`

	MaxRetries  int    `yaml:"max_retries"`
	StorageTier string `yaml:"storage_tier"` // "STANDARD", "STANDARD_IA", "GLACIER", etc.

	// CargoShip optimization settings
	EnableCargoShipOptimization bool `yaml:"enable_cargoship_optimization"`
	Concurrency                 int  `yaml:"concurrency"`

	// Breaker suspends mirroring after consecutive upload failures
	Breaker circuit.Config `yaml:"breaker"`
}

// NewDefaultConfig returns a disabled mirror with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Region:                      "us-east-1",
		MaxRetries:                  3,
		StorageTier:                 TierStandard,
		EnableCargoShipOptimization: false,
		Concurrency:                 4,
		Breaker: circuit.Config{
			FailureThreshold: circuit.DefaultFailureThreshold,
			Timeout:          circuit.DefaultTimeout,
		},
	}
}

// Validate checks an enabled mirror for missing or contradicting settings
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("mirror.bucket is required when the mirror is enabled")
	}
	if _, ok := StorageTiers[c.StorageTier]; c.StorageTier != "" && !ok {
		return fmt.Errorf("invalid mirror.storage_tier: %s", c.StorageTier)
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("mirror.access_key_id and mirror.secret_access_key must be set together")
	}
	if c.Breaker.FailureThreshold < 0 || c.Breaker.Timeout < 0 {
		return fmt.Errorf("mirror.breaker settings cannot be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("mirror.max_retries cannot be negative")
	}
	return nil
}
