package config

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that
// cannot be expressed in tags.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Validate the listen port parses as a port number
	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("server.port: %q is not a number", cfg.Server.Port)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("server.port: %d is out of range (0-65535)", port)
	}

	// A file audit sink needs a string path
	if cfg.Audit.Type == "file" {
		path, ok := cfg.Audit.File["path"]
		if !ok {
			return fmt.Errorf("audit.file: path is required when audit.type is file")
		}
		if _, ok := path.(string); !ok {
			return fmt.Errorf("audit.file: path must be a string (got %T)", path)
		}
	}

	// The metrics port must not collide with the server port
	if cfg.Metrics.Enabled && cfg.Metrics.Port == port {
		return fmt.Errorf("metrics.port: %d collides with server.port", port)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
