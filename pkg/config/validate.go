package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FieldError is a single config violation.
type FieldError struct {
	Field   string // e.g. "server.addr"
	Message string
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult collects config violations.
type ValidationResult struct {
	Errors []FieldError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Validate checks the semantic rules the schema cannot express.
func (c *Config) Validate() error {
	result := &ValidationResult{}

	if len(c.RouteFiles) == 0 {
		result.AddError("routeFiles", "at least one route file is required")
	}
	for i, f := range c.RouteFiles {
		if strings.TrimSpace(f) == "" {
			result.AddError(fmt.Sprintf("routeFiles[%d]", i), "empty path")
		} else if isGlob(f) && !doublestar.ValidatePattern(f) {
			result.AddError(fmt.Sprintf("routeFiles[%d]", i), "invalid glob pattern")
		}
	}
	for i, w := range c.Watch {
		if isGlob(w) && !doublestar.ValidatePattern(w) {
			result.AddError(fmt.Sprintf("watch[%d]", i), "invalid glob pattern")
		}
	}
	for i, g := range c.IgnoreGlobs {
		if !doublestar.ValidatePattern(g) {
			result.AddError(fmt.Sprintf("ignoreGlobs[%d]", i), "invalid glob pattern")
		}
	}
	if c.Ignore != "" {
		if _, err := regexp.Compile(c.Ignore); err != nil {
			result.AddError("ignore", fmt.Sprintf("invalid regexp: %v", err))
		}
	}
	if c.PollInterval < 0 {
		result.AddError("pollInterval", "must not be negative")
	}
	if c.RequestLogSize < 0 {
		result.AddError("requestLogSize", "must not be negative")
	}
	if c.Server.AdminPrefix != "" && !strings.HasPrefix(c.Server.AdminPrefix, "/") {
		result.AddError("server.adminPrefix", "must start with /")
	}
	if c.Server.MaxBodySize < 0 {
		result.AddError("server.maxBodySize", "must not be negative")
	}

	if !result.IsValid() {
		return result
	}
	return nil
}
