package conf

import (
	"fmt"
	"strings"
)

// ValidateSettings checks a loaded Settings struct for configuration errors.
func ValidateSettings(settings *Settings) error {
	var errs []string

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		errs = append(errs, err.Error())
	}

	if err := validateModelSettings(&settings.Model); err != nil {
		errs = append(errs, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if settings.Port == "" {
		return fmt.Errorf("webserver port must not be empty")
	}
	return nil
}

func validateModelSettings(settings *ModelSettings) error {
	if settings.Path == "" {
		return fmt.Errorf("model path must not be empty")
	}
	if len(settings.Labels) < 2 {
		return fmt.Errorf("model must have at least two class labels, got %d", len(settings.Labels))
	}
	if settings.Threads < 0 {
		return fmt.Errorf("model threads must not be negative")
	}
	return nil
}

func validateOutputSettings(settings *OutputSettings) error {
	if !settings.SQLite.Enabled && !settings.MySQL.Enabled {
		return fmt.Errorf("at least one database output must be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		return fmt.Errorf("SQLite database path must not be empty")
	}
	if settings.MySQL.Enabled {
		if settings.MySQL.Database == "" || settings.MySQL.Host == "" {
			return fmt.Errorf("MySQL database and host must not be empty")
		}
	}
	return nil
}
