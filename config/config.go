// Package config provides configuration management for the signup service.
// It handles loading and validation of configuration values from environment
// variables, with support for default values and collective error reporting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        // Port for the HTTP server
	ShutdownTimeout time.Duration // Grace period for in-flight requests on shutdown
}

// ValidationConfig holds the field-validation limits applied when admitting
// a registration. The defaults match the documented rules: usernames of 3-20
// characters, passwords of at least 8 characters, 12 for admins.
type ValidationConfig struct {
	UsernameMinLength      int
	UsernameMaxLength      int
	PasswordMinLength      int
	AdminPasswordMinLength int
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Server     *ServerConfig
	Validation *ValidationConfig
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue // Return default, error is collected
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue // Return default, error is collected
	}
	return valueDuration
}

// validateRules performs cross-field checks on the validation limits.
// Misconfigured limits would silently admit or reject every registration,
// so they are treated as configuration errors rather than clamped.
func validateRules(v *ValidationConfig, errors *[]string) {
	if v.UsernameMinLength < 1 {
		*errors = append(*errors, fmt.Sprintf("USERNAME_MIN_LENGTH must be at least 1, got %d", v.UsernameMinLength))
	}
	if v.UsernameMaxLength < v.UsernameMinLength {
		*errors = append(*errors, fmt.Sprintf("USERNAME_MAX_LENGTH (%d) must not be less than USERNAME_MIN_LENGTH (%d)", v.UsernameMaxLength, v.UsernameMinLength))
	}
	if v.PasswordMinLength < 1 {
		*errors = append(*errors, fmt.Sprintf("PASSWORD_MIN_LENGTH must be at least 1, got %d", v.PasswordMinLength))
	}
	if v.AdminPasswordMinLength < v.PasswordMinLength {
		*errors = append(*errors, fmt.Sprintf("ADMIN_PASSWORD_MIN_LENGTH (%d) must not be less than PASSWORD_MIN_LENGTH (%d)", v.AdminPasswordMinLength, v.PasswordMinLength))
	}
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading
// and returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Server configuration
	serverConfig := &ServerConfig{
		Port:            getOptionalEnv("PORT", "8080"),
		ShutdownTimeout: getOptionalEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second, &errors),
	}

	// Validation limits
	validationConfig := &ValidationConfig{
		UsernameMinLength:      getOptionalEnvInt("USERNAME_MIN_LENGTH", 3, &errors),
		UsernameMaxLength:      getOptionalEnvInt("USERNAME_MAX_LENGTH", 20, &errors),
		PasswordMinLength:      getOptionalEnvInt("PASSWORD_MIN_LENGTH", 8, &errors),
		AdminPasswordMinLength: getOptionalEnvInt("ADMIN_PASSWORD_MIN_LENGTH", 12, &errors),
	}
	validateRules(validationConfig, &errors)

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Server:     serverConfig,
		Validation: validationConfig,
	}, nil
}
