// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	// Validate Main settings
	if err := validateMainSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Feed settings
	if err := validateFeedSettings(&settings.Feed); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Metrics settings
	if err := validateMetricsSettings(&settings.Metrics); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// If there are any errors, return the ValidationError
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateMainSettings validates the main service settings
func validateMainSettings(settings *Settings) error {
	var errs []string

	if settings.Main.Name == "" {
		errs = append(errs, "main name must not be empty")
	}

	switch settings.Main.Log.Rotation {
	case RotationDaily, RotationWeekly, RotationSize:
		// valid
	default:
		errs = append(errs, fmt.Sprintf("unknown log rotation type: %s", settings.Main.Log.Rotation))
	}

	if settings.Main.Log.Rotation == RotationSize && settings.Main.Log.MaxSize <= 0 {
		errs = append(errs, "log max size must be positive for size rotation")
	}

	if len(errs) > 0 {
		return fmt.Errorf("main settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateFeedSettings validates the feed engine settings
func validateFeedSettings(settings *FeedSettings) error {
	var errs []string

	if settings.TransferBufferSize <= 0 {
		errs = append(errs, "transfer buffer size must be positive")
	}

	if settings.IOTimeoutMs < 0 {
		errs = append(errs, "io timeout must not be negative")
	}

	if settings.MaxNoDataReads <= 0 {
		errs = append(errs, "max no data reads must be positive")
	}

	if settings.Network.MaxRedirects < 0 {
		errs = append(errs, "max redirects must not be negative")
	}

	if settings.Network.ConnectTimeoutMs <= 0 {
		errs = append(errs, "connect timeout must be positive")
	}

	if settings.Network.ReadTimeoutMs <= 0 {
		errs = append(errs, "read timeout must be positive")
	}

	if settings.Output.RingCapacity < settings.TransferBufferSize {
		errs = append(errs, "output ring capacity must be at least the transfer buffer size")
	}

	if len(errs) > 0 {
		return fmt.Errorf("feed settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateMetricsSettings validates the metrics endpoint settings
func validateMetricsSettings(settings *MetricsSettings) error {
	var errs []string

	if settings.Enabled {
		host, port, err := net.SplitHostPort(settings.Listen)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("metrics listen address %q is not host:port", settings.Listen))
		case port == "":
			errs = append(errs, "metrics listen port must not be empty")
		case host == "":
			// Empty host binds to all interfaces, allowed
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("metrics settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
