package run

import (
	"strings"
	"time"

	"github.com/temirov/aic/internal/execshell"
	"github.com/temirov/aic/internal/taskpool"
	"github.com/temirov/aic/internal/utils/flags"
)

const (
	outputFormatTextConstant = "text"
	outputFormatYAMLConstant = "yaml"
)

// OutputFormat selects how finished reports are written.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatText OutputFormat = OutputFormat(outputFormatTextConstant)
	OutputFormatYAML OutputFormat = OutputFormat(outputFormatYAMLConstant)
)

// CommandConfiguration captures configuration values shared by the run and interactive commands.
type CommandConfiguration struct {
	AssumeYes      bool          `mapstructure:"assume_yes"`
	Verbose        bool          `mapstructure:"verbose"`
	Mode           string        `mapstructure:"mode"`
	Elevate        bool          `mapstructure:"elevate"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	Output         string        `mapstructure:"output"`
}

// SecurityConfiguration extends the built-in risk classifier lists.
type SecurityConfiguration struct {
	AdditionalDangerousPatterns []string `mapstructure:"additional_dangerous_patterns"`
	AdditionalElevationTokens   []string `mapstructure:"additional_elevation_tokens"`
}

// DefaultCommandConfiguration provides default settings for command execution.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		AssumeYes:      false,
		Verbose:        true,
		Mode:           string(execshell.ExecutionModeCaptured),
		Elevate:        false,
		MaxConcurrency: taskpool.DefaultMaximumConcurrency,
		CommandTimeout: 0,
		Output:         outputFormatTextConstant,
	}
}

// DefaultConfigurationValues returns the configuration defaults keyed under the provided prefix.
func DefaultConfigurationValues(keyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := strings.TrimSuffix(strings.TrimSpace(keyPrefix), ".")
	if len(prefix) > 0 {
		prefix += "."
	}
	return map[string]any{
		prefix + "assume_yes":      defaults.AssumeYes,
		prefix + "verbose":         defaults.Verbose,
		prefix + "mode":            defaults.Mode,
		prefix + "elevate":         defaults.Elevate,
		prefix + "max_concurrency": defaults.MaxConcurrency,
		prefix + "command_timeout": defaults.CommandTimeout,
		prefix + "output":          defaults.Output,
	}
}

// Sanitize normalizes configuration values, falling back to defaults for unknown entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	defaults := DefaultCommandConfiguration()

	if mode, known := execshell.ParseExecutionMode(strings.ToLower(strings.TrimSpace(configuration.Mode))); known {
		sanitized.Mode = string(mode)
	} else {
		sanitized.Mode = defaults.Mode
	}

	if outputFormat, known := ParseOutputFormat(configuration.Output); known {
		sanitized.Output = string(outputFormat)
	} else {
		sanitized.Output = defaults.Output
	}

	if sanitized.MaxConcurrency <= 0 {
		sanitized.MaxConcurrency = defaults.MaxConcurrency
	}
	if sanitized.CommandTimeout < 0 {
		sanitized.CommandTimeout = 0
	}

	return sanitized
}

// ApplySessionOverrides copies explicitly set session flags over the configured values.
func (configuration CommandConfiguration) ApplySessionOverrides(overrides flags.SessionOverrides) CommandConfiguration {
	updated := configuration
	if overrides.AssumeYes != nil {
		updated.AssumeYes = *overrides.AssumeYes
	}
	if overrides.Verbose != nil {
		updated.Verbose = *overrides.Verbose
	}
	if overrides.Inherit != nil {
		updated.Mode = string(execshell.ExecutionModeCaptured)
		if *overrides.Inherit {
			updated.Mode = string(execshell.ExecutionModeInherited)
		}
	}
	if overrides.Elevate != nil {
		updated.Elevate = *overrides.Elevate
	}
	return updated
}

// ParseOutputFormat converts flag or configuration text into an OutputFormat.
func ParseOutputFormat(value string) (OutputFormat, bool) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(value))) {
	case OutputFormatText:
		return OutputFormatText, true
	case OutputFormatYAML:
		return OutputFormatYAML, true
	default:
		return "", false
	}
}

// Sanitize drops blank entries from the configured lists.
func (configuration SecurityConfiguration) Sanitize() SecurityConfiguration {
	return SecurityConfiguration{
		AdditionalDangerousPatterns: sanitizeEntries(configuration.AdditionalDangerousPatterns),
		AdditionalElevationTokens:   sanitizeEntries(configuration.AdditionalElevationTokens),
	}
}

func sanitizeEntries(raw []string) []string {
	trimmed := make([]string, 0, len(raw))
	for _, candidate := range raw {
		if len(strings.TrimSpace(candidate)) == 0 {
			continue
		}
		trimmed = append(trimmed, candidate)
	}
	return trimmed
}
