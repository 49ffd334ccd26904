package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// MarshalJSON renders the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Component represents the logging component
type Component string

const (
	ComponentApp       Component = "app"
	ComponentFetcher   Component = "fetcher"
	ComponentParser    Component = "parser"
	ComponentExtractor Component = "extractor"
	ComponentSandbox   Component = "sandbox"
	ComponentCache     Component = "cache"
	ComponentServer    Component = "server"
)

// Components lists every component in the order they are documented.
var Components = []Component{
	ComponentApp,
	ComponentFetcher,
	ComponentParser,
	ComponentExtractor,
	ComponentSandbox,
	ComponentCache,
	ComponentServer,
}

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  INFO,
		Format: FormatText,
		Output: os.Stdout,
		Components: map[Component]bool{
			ComponentApp:       true,
			ComponentFetcher:   false,
			ComponentParser:    false,
			ComponentExtractor: false,
			ComponentSandbox:   false,
			ComponentCache:     false,
			ComponentServer:    true,
		},
		ShowCaller: false,
		Timestamp:  false,
	}
}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     Level                  `json:"level"`
	Component Component              `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// Logger provides structured logging functionality
type Logger struct {
	config *Config
	mu     sync.RWMutex
	// wmu serializes writes to config.Output.
	wmu sync.Mutex
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Components == nil {
		config.Components = map[Component]bool{}
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Logger{
		config: config,
	}
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{
		logger:    l,
		component: component,
	}
}

// EnableComponent enables logging for a specific component
func (l *Logger) EnableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = true
}

// Enabled reports whether a message at level for component would be written.
func (l *Logger) Enabled(level Level, component Component) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.config.Level && l.config.Components[component]
}

// log writes a log entry. skip counts the frames between the caller of a
// ComponentLogger method and this function.
func (l *Logger) log(level Level, component Component, message string, fields map[string]interface{}, skip int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.config.Level {
		return
	}
	if !l.config.Components[component] {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	if l.config.ShowCaller {
		if _, file, line, ok := runtime.Caller(skip + 1); ok {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	l.writeEntry(entry)
}

// writeEntry writes the log entry to output
func (l *Logger) writeEntry(entry Entry) {
	var output string

	switch l.config.Format {
	case FormatJSON:
		output = l.formatJSON(entry)
	case FormatColor:
		output = l.formatColor(entry)
	default:
		output = l.formatText(entry)
	}

	l.wmu.Lock()
	defer l.wmu.Unlock()
	fmt.Fprintln(l.config.Output, output)
}

// sortedKeys returns the field names in lexical order.
func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatText formats entry as plain text
func (l *Logger) formatText(entry Entry) string {
	var parts []string

	if l.config.Timestamp {
		parts = append(parts, entry.Timestamp.Format("2006-01-02 15:04:05"))
	}

	parts = append(parts, fmt.Sprintf("[%s]", entry.Level))
	parts = append(parts, fmt.Sprintf("[%s]", entry.Component))
	parts = append(parts, entry.Message)

	if entry.Caller != "" {
		parts = append(parts, fmt.Sprintf("(%s)", entry.Caller))
	}

	if len(entry.Fields) > 0 {
		fieldParts := make([]string, 0, len(entry.Fields))
		for _, k := range sortedKeys(entry.Fields) {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		parts = append(parts, strings.Join(fieldParts, " "))
	}

	return strings.Join(parts, " ")
}

// formatJSON formats entry as JSON
func (l *Logger) formatJSON(entry Entry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		// Fields holding unmarshalable values are rendered with %v.
		safe := make(map[string]interface{}, len(entry.Fields))
		for k, v := range entry.Fields {
			safe[k] = fmt.Sprintf("%v", v)
		}
		entry.Fields = safe
		data, _ = json.Marshal(entry)
	}
	return string(data)
}

// formatColor formats entry with colors
func (l *Logger) formatColor(entry Entry) string {
	var parts []string

	if l.config.Timestamp {
		parts = append(parts, "\033[90m"+entry.Timestamp.Format("2006-01-02 15:04:05")+"\033[0m")
	}

	levelColor := l.getLevelColor(entry.Level)
	parts = append(parts, fmt.Sprintf("%s[%s]\033[0m", levelColor, entry.Level))
	parts = append(parts, fmt.Sprintf("\033[36m[%s]\033[0m", entry.Component))
	parts = append(parts, entry.Message)

	if entry.Caller != "" {
		parts = append(parts, fmt.Sprintf("\033[90m(%s)\033[0m", entry.Caller))
	}

	if len(entry.Fields) > 0 {
		fieldParts := make([]string, 0, len(entry.Fields))
		for _, k := range sortedKeys(entry.Fields) {
			fieldParts = append(fieldParts, fmt.Sprintf("\033[33m%s\033[0m=\033[32m%v\033[0m", k, entry.Fields[k]))
		}
		parts = append(parts, strings.Join(fieldParts, " "))
	}

	return strings.Join(parts, " ")
}

// getLevelColor returns color code for log level
func (l *Logger) getLevelColor(level Level) string {
	switch level {
	case TRACE:
		return "\033[37m" // White
	case DEBUG:
		return "\033[94m" // Blue
	case INFO:
		return "\033[92m" // Green
	case WARN:
		return "\033[93m" // Yellow
	case ERROR:
		return "\033[91m" // Red
	default:
		return "\033[0m" // Reset
	}
}

// ComponentLogger provides component-specific logging. One obtained from
// the package-level WithComponent follows SetGlobalLogger.
type ComponentLogger struct {
	logger    *Logger
	component Component
}

func (cl *ComponentLogger) target() *Logger {
	if cl.logger != nil {
		return cl.logger
	}
	return GetGlobalLogger()
}

// Trace logs a trace message
func (cl *ComponentLogger) Trace(message string, fields ...map[string]interface{}) {
	cl.log(TRACE, message, fields...)
}

// Debug logs a debug message
func (cl *ComponentLogger) Debug(message string, fields ...map[string]interface{}) {
	cl.log(DEBUG, message, fields...)
}

// Info logs an info message
func (cl *ComponentLogger) Info(message string, fields ...map[string]interface{}) {
	cl.log(INFO, message, fields...)
}

// Warn logs a warning message
func (cl *ComponentLogger) Warn(message string, fields ...map[string]interface{}) {
	cl.log(WARN, message, fields...)
}

// Error logs an error message
func (cl *ComponentLogger) Error(message string, fields ...map[string]interface{}) {
	cl.log(ERROR, message, fields...)
}

// Enabled reports whether messages at level would be written.
func (cl *ComponentLogger) Enabled(level Level) bool {
	return cl.target().Enabled(level, cl.component)
}

// log merges fields and writes the entry. It sits two frames below the
// caller of Trace..Error.
func (cl *ComponentLogger) log(level Level, message string, fields ...map[string]interface{}) {
	var merged map[string]interface{}
	switch len(fields) {
	case 0:
	case 1:
		merged = fields[0]
	default:
		merged = make(map[string]interface{})
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	cl.target().log(level, cl.component, message, merged, 2)
}

var globalLogger atomic.Pointer[Logger]

func init() {
	globalLogger.Store(New(DefaultConfig()))
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	if logger == nil {
		logger = New(DefaultConfig())
	}
	globalLogger.Store(logger)
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	return globalLogger.Load()
}

// WithComponent returns a component logger bound to whichever logger is
// global at the time of each call.
func WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{component: component}
}
