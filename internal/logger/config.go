package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LogConfig represents the complete logging configuration
type LogConfig struct {
	Level      string          `json:"level" yaml:"level"`
	Format     string          `json:"format" yaml:"format"`
	Output     string          `json:"output" yaml:"output"`
	Components map[string]bool `json:"components" yaml:"components"`
	ShowCaller bool            `json:"show_caller" yaml:"show_caller"`
	Timestamp  bool            `json:"timestamp" yaml:"timestamp"`
	Rotation   *RotationConfig `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// RotationConfig represents log rotation configuration
type RotationConfig struct {
	MaxSize    string `json:"max_size" yaml:"max_size"`       // e.g., "100MB", "1GB"
	MaxAge     string `json:"max_age" yaml:"max_age"`         // e.g., "7d", "24h"
	MaxBackups int    `json:"max_backups" yaml:"max_backups"` // number of backup files
	Compress   bool   `json:"compress" yaml:"compress"`       // compress old logs
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:  "INFO",
		Format: "text",
		Output: "stderr",
		Components: map[string]bool{
			string(ComponentApp):       true,
			string(ComponentFetcher):   false,
			string(ComponentParser):    false,
			string(ComponentExtractor): false,
			string(ComponentSandbox):   false,
			string(ComponentCache):     false,
			string(ComponentServer):    true,
		},
		ShowCaller: false,
		Timestamp:  true,
		Rotation: &RotationConfig{
			MaxSize:    "100MB",
			MaxAge:     "7d",
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// ToLoggerConfig converts LogConfig to logger.Config, opening the output.
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	config, err := c.toConfig()
	if err != nil {
		return nil, err
	}
	output, err := parseOutput(c.Output)
	if err != nil {
		return nil, fmt.Errorf("parse output: %v", err)
	}
	config.Output = output
	return config, nil
}

// toConfig converts everything but the output.
func (c *LogConfig) toConfig() (*Config, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %v", err)
	}

	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %v", err)
	}

	components := make(map[Component]bool)
	for name, enabled := range c.Components {
		components[Component(strings.ToLower(strings.TrimSpace(name)))] = enabled
	}

	return &Config{
		Level:      level,
		Format:     format,
		Components: components,
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

// parseLevel parses level string to Level enum
func parseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(levelStr) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown level: %s", levelStr)
	}
}

// parseFormat parses format string to Format enum
func parseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(formatStr) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

// outputFile returns the path of a "file:" output.
func outputFile(outputStr string) (string, bool) {
	if !strings.HasPrefix(outputStr, "file:") {
		return "", false
	}
	path := strings.TrimPrefix(outputStr, "file:")
	return path, path != ""
}

// checkOutput validates an output string without opening it.
func checkOutput(outputStr string) error {
	switch strings.ToLower(outputStr) {
	case "stdout", "stderr", "null", "none":
		return nil
	}
	if _, ok := outputFile(outputStr); ok {
		return nil
	}
	return fmt.Errorf("unknown output: %s", outputStr)
}

// parseOutput parses output string to io.Writer
func parseOutput(outputStr string) (io.Writer, error) {
	switch strings.ToLower(outputStr) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "null", "none":
		return io.Discard, nil
	}
	filePath, ok := outputFile(outputStr)
	if !ok {
		return nil, fmt.Errorf("unknown output: %s", outputStr)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %v", err)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %v", err)
	}
	return file, nil
}

// EnvironmentConfig returns the defaults with SIGSOLVER_LOG_* overrides.
func EnvironmentConfig() *LogConfig {
	config := DefaultLogConfig()
	config.ApplyEnv()
	return config
}

// ApplyEnv overrides c from SIGSOLVER_LOG_LEVEL, _FORMAT, _OUTPUT, _CALLER,
// _TIMESTAMP and _COMPONENTS. A component list replaces the configured set.
func (c *LogConfig) ApplyEnv() {
	if level := os.Getenv("SIGSOLVER_LOG_LEVEL"); level != "" {
		c.Level = level
	}
	if format := os.Getenv("SIGSOLVER_LOG_FORMAT"); format != "" {
		c.Format = format
	}
	if output := os.Getenv("SIGSOLVER_LOG_OUTPUT"); output != "" {
		c.Output = output
	}
	if caller := os.Getenv("SIGSOLVER_LOG_CALLER"); caller != "" {
		c.ShowCaller = caller == "true" || caller == "1"
	}
	if timestamp := os.Getenv("SIGSOLVER_LOG_TIMESTAMP"); timestamp != "" {
		c.Timestamp = timestamp == "true" || timestamp == "1"
	}

	if components := os.Getenv("SIGSOLVER_LOG_COMPONENTS"); components != "" {
		c.Components = make(map[string]bool)
		for _, comp := range strings.Split(components, ",") {
			comp = strings.TrimSpace(comp)
			if comp == "all" {
				for _, known := range Components {
					c.Components[string(known)] = true
				}
				continue
			}
			if comp != "" {
				c.Components[comp] = true
			}
		}
	}
}

// ValidateConfig validates the configuration
func (c *LogConfig) ValidateConfig() error {
	// Validate level
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %v", err)
	}

	// Validate format
	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %v", err)
	}

	// Validate output
	if err := checkOutput(c.Output); err != nil {
		return fmt.Errorf("invalid output: %v", err)
	}

	// Validate rotation config
	if c.Rotation != nil {
		if err := c.Rotation.Validate(); err != nil {
			return fmt.Errorf("invalid rotation config: %v", err)
		}
	}

	return nil
}

// Validate validates rotation configuration
func (r *RotationConfig) Validate() error {
	// Validate max size
	if r.MaxSize != "" {
		if _, err := parseSize(r.MaxSize); err != nil {
			return fmt.Errorf("invalid max_size: %v", err)
		}
	}

	// Validate max age
	if r.MaxAge != "" {
		if _, err := parseDuration(r.MaxAge); err != nil {
			return fmt.Errorf("invalid max_age: %v", err)
		}
	}

	// Validate max backups
	if r.MaxBackups < 0 {
		return fmt.Errorf("max_backups must be non-negative")
	}

	return nil
}

// parseSize parses size string (e.g., "100MB", "1GB") to bytes
func parseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)
	if sizeStr == "" {
		return 0, nil
	}

	// Extract number and unit
	var numStr, unit string
	for i, r := range sizeStr {
		if r >= '0' && r <= '9' {
			numStr += string(r)
		} else {
			unit = sizeStr[i:]
			break
		}
	}

	if numStr == "" {
		return 0, fmt.Errorf("no number found in size: %s", sizeStr)
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number: %v", err)
	}

	// Convert to bytes based on unit
	unit = strings.ToUpper(unit)
	switch unit {
	case "B", "":
		return num, nil
	case "KB":
		return num * 1024, nil
	case "MB":
		return num * 1024 * 1024, nil
	case "GB":
		return num * 1024 * 1024 * 1024, nil
	case "TB":
		return num * 1024 * 1024 * 1024 * 1024, nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}

// parseDuration parses duration string (e.g., "7d", "24h", "30m") to time.Duration
func parseDuration(durationStr string) (time.Duration, error) {
	durationStr = strings.TrimSpace(durationStr)
	if durationStr == "" {
		return 0, nil
	}

	// Extract number and unit
	var numStr, unit string
	for i, r := range durationStr {
		if r >= '0' && r <= '9' {
			numStr += string(r)
		} else {
			unit = durationStr[i:]
			break
		}
	}

	if numStr == "" {
		return 0, fmt.Errorf("no number found in duration: %s", durationStr)
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number: %v", err)
	}

	// Convert to duration based on unit
	unit = strings.ToLower(unit)
	switch unit {
	case "s", "sec", "second", "seconds":
		return time.Duration(num) * time.Second, nil
	case "m", "min", "minute", "minutes":
		return time.Duration(num) * time.Minute, nil
	case "h", "hour", "hours":
		return time.Duration(num) * time.Hour, nil
	case "d", "day", "days":
		return time.Duration(num) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}
