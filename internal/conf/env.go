// env.go - Environment variable configuration and validation for AudioFeed
package conf

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// Core configuration
		{"debug", "AUDIOFEED_DEBUG", validateEnvBool},
		{"main.name", "AUDIOFEED_NAME", nil},

		// Feed engine configuration
		{"feed.debug", "AUDIOFEED_FEED_DEBUG", validateEnvBool},
		{"feed.transferbuffersize", "AUDIOFEED_TRANSFER_BUFFER_SIZE", validateEnvPositiveInt},
		{"feed.iotimeoutms", "AUDIOFEED_IO_TIMEOUT_MS", validateEnvNonNegativeInt},
		{"feed.maxnodatareads", "AUDIOFEED_MAX_NO_DATA_READS", validateEnvPositiveInt},

		// Network source configuration
		{"feed.network.maxredirects", "AUDIOFEED_MAX_REDIRECTS", validateEnvNonNegativeInt},
		{"feed.network.connecttimeoutms", "AUDIOFEED_CONNECT_TIMEOUT_MS", validateEnvPositiveInt},
		{"feed.network.readtimeoutms", "AUDIOFEED_READ_TIMEOUT_MS", validateEnvPositiveInt},
		{"feed.network.useragent", "AUDIOFEED_USER_AGENT", nil},
		{"feed.network.insecuretls", "AUDIOFEED_INSECURE_TLS", validateEnvBool},

		// Output configuration
		{"feed.output.ringcapacity", "AUDIOFEED_RING_CAPACITY", validateEnvPositiveInt},

		// Metrics configuration
		{"metrics.enabled", "AUDIOFEED_METRICS_ENABLED", validateEnvBool},
		{"metrics.listen", "AUDIOFEED_METRICS_LISTEN", validateEnvHostPort},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		// Bind the environment variable to the config key
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		// Validate the value if it's set and validation function is provided
		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be a boolean (true/false)")
	}
	return nil
}

// validateEnvPositiveInt validates integer environment variables that must be > 0
func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// validateEnvNonNegativeInt validates integer environment variables that must be >= 0
func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// validateEnvHostPort validates listen address environment variables
func validateEnvHostPort(value string) error {
	if _, _, err := net.SplitHostPort(value); err != nil {
		return fmt.Errorf("must be host:port")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	// Set up key replacer for nested config keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables with validation
	// Return any errors to the caller for centralized handling
	return bindEnvVars()
}
