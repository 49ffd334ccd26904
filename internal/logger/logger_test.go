package logger

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Level = INFO

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	// Test that DEBUG messages are filtered out
	compLogger.Debug("This should not appear")
	compLogger.Info("This should appear")
	compLogger.Warn("This should appear")
	compLogger.Error("This should appear")

	output := buf.String()
	if strings.Contains(output, "This should not appear") {
		t.Error("DEBUG message should be filtered out")
	}
	if !strings.Contains(output, "This should appear") {
		t.Error("INFO/WARN/ERROR messages should appear")
	}
}

func TestLogger_Components(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Components[ComponentFetcher] = false

	logger := New(config)
	appLogger := logger.WithComponent(ComponentApp)
	fetcherLogger := logger.WithComponent(ComponentFetcher)

	appLogger.Info("App message")
	fetcherLogger.Info("Fetcher message")

	output := buf.String()
	if !strings.Contains(output, "App message") {
		t.Error("App message should appear")
	}
	if strings.Contains(output, "Fetcher message") {
		t.Error("Fetcher message should be filtered out")
	}
}

func TestLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Format = FormatJSON

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	compLogger.Info("Test message", map[string]interface{}{
		"key": "value",
	})

	output := buf.String()
	t.Logf("JSON output: %s", output)
	if !strings.Contains(output, `"level"`) {
		t.Error("JSON format should contain level field")
	}
	if !strings.Contains(output, `"component":"app"`) {
		t.Error("JSON format should contain component field")
	}
	if !strings.Contains(output, `"message":"Test message"`) {
		t.Error("JSON format should contain message field")
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	compLogger.Info("Test message", map[string]interface{}{
		"url":   "https://example.com",
		"count": 42,
	})

	output := buf.String()
	if !strings.Contains(output, "url=https://example.com") {
		t.Error("Fields should be included in output")
	}
	if !strings.Contains(output, "count=42") {
		t.Error("Fields should be included in output")
	}
}

func TestLogger_Timestamp(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Timestamp = true

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	compLogger.Info("Test message")

	output := buf.String()
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `).MatchString(output) {
		t.Error("Timestamp should be included in output")
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.ShowCaller = true

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	compLogger.Info("Test message")

	output := buf.String()
	if !strings.Contains(output, "logger_test.go:") {
		t.Error("Caller information should be included in output")
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf

	compLogger := WithComponent(ComponentApp)
	prev := GetGlobalLogger()
	SetGlobalLogger(New(config))
	defer SetGlobalLogger(prev)

	compLogger.Info("Global logger test")

	output := buf.String()
	if !strings.Contains(output, "Global logger test") {
		t.Error("Global logger should work")
	}
}

func TestLogger_Concurrency(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	// Test concurrent logging
	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			compLogger.Info("Concurrent message", map[string]interface{}{
				"goroutine": i,
			})
			done <- true
		}(i)
	}

	// Wait for all goroutines to complete
	for i := 0; i < 10; i++ {
		<-done
	}

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 10 {
		t.Errorf("Expected 10 log lines, got %d", len(lines))
	}
}

func TestLogger_LevelNames(t *testing.T) {
	expected := map[Level]string{
		TRACE: "TRACE",
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
	}

	for level, expectedName := range expected {
		if levelNames[level] != expectedName {
			t.Errorf("Level %d should have name %s, got %s", level, expectedName, levelNames[level])
		}
	}
}

func TestLogger_ComponentConstants(t *testing.T) {
	expected := map[Component]string{
		ComponentApp:       "app",
		ComponentFetcher:   "fetcher",
		ComponentParser:    "parser",
		ComponentExtractor: "extractor",
		ComponentSandbox:   "sandbox",
		ComponentCache:     "cache",
		ComponentServer:    "server",
	}

	for component, expectedValue := range expected {
		if string(component) != expectedValue {
			t.Errorf("Component %s should have value %s, got %s", component, expectedValue, string(component))
		}
	}
	if len(Components) != len(expected) {
		t.Errorf("Components lists %d entries, want %d", len(Components), len(expected))
	}
}

func TestLogger_JSONLevelName(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Format = FormatJSON

	New(config).WithComponent(ComponentApp).Warn("careful")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}

func TestLogger_SortedFields(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf

	New(config).WithComponent(ComponentApp).Info("msg", map[string]interface{}{"b": 2, "a": 1, "c": 3})

	if !strings.Contains(buf.String(), "a=1 b=2 c=3") {
		t.Errorf("fields not sorted: %q", buf.String())
	}
}

func TestLogger_Enabled(t *testing.T) {
	config := DefaultConfig()
	config.Output = &bytes.Buffer{}
	config.Level = DEBUG
	l := New(config)

	if !l.WithComponent(ComponentApp).Enabled(DEBUG) {
		t.Error("app DEBUG should be enabled")
	}
	if l.WithComponent(ComponentApp).Enabled(TRACE) {
		t.Error("app TRACE should be disabled")
	}
	if l.WithComponent(ComponentSandbox).Enabled(ERROR) {
		t.Error("sandbox is disabled by default")
	}
	l.EnableComponent(ComponentSandbox)
	if !l.WithComponent(ComponentSandbox).Enabled(ERROR) {
		t.Error("sandbox should be enabled after EnableComponent")
	}
}

func TestLogConfig_ToLoggerConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	cfg.Level = "debug"
	cfg.Format = "json"
	cfg.Output = "null"
	cfg.Components = map[string]bool{"Fetcher": true}

	got, err := cfg.ToLoggerConfig()
	if err != nil {
		t.Fatalf("ToLoggerConfig: %v", err)
	}
	if got.Level != DEBUG || got.Format != FormatJSON {
		t.Errorf("level/format = %v/%v", got.Level, got.Format)
	}
	if !got.Components[ComponentFetcher] {
		t.Error("component names should be case-insensitive")
	}
}

func TestLogConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LogConfig)
		wantErr bool
	}{
		{"defaults", func(*LogConfig) {}, false},
		{"bad level", func(c *LogConfig) { c.Level = "LOUD" }, true},
		{"bad format", func(c *LogConfig) { c.Format = "xml" }, true},
		{"bad output", func(c *LogConfig) { c.Output = "syslog" }, true},
		{"empty file", func(c *LogConfig) { c.Output = "file:" }, true},
		{"bad size", func(c *LogConfig) { c.Rotation.MaxSize = "10XB" }, true},
		{"bad age", func(c *LogConfig) { c.Rotation.MaxAge = "3w" }, true},
		{"negative backups", func(c *LogConfig) { c.Rotation.MaxBackups = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLogConfig()
			tt.mutate(cfg)
			if err := cfg.ValidateConfig(); (err != nil) != tt.wantErr {
				t.Fatalf("ValidateConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogConfig_ApplyEnv(t *testing.T) {
	t.Setenv("SIGSOLVER_LOG_LEVEL", "TRACE")
	t.Setenv("SIGSOLVER_LOG_FORMAT", "color")
	t.Setenv("SIGSOLVER_LOG_CALLER", "1")
	t.Setenv("SIGSOLVER_LOG_COMPONENTS", "fetcher, sandbox")

	cfg := EnvironmentConfig()
	if cfg.Level != "TRACE" || cfg.Format != "color" || !cfg.ShowCaller {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Components) != 2 || !cfg.Components["fetcher"] || !cfg.Components["sandbox"] {
		t.Errorf("components = %v", cfg.Components)
	}

	t.Setenv("SIGSOLVER_LOG_COMPONENTS", "all")
	cfg = EnvironmentConfig()
	if len(cfg.Components) != len(Components) {
		t.Errorf("all should enable %d components, got %v", len(Components), cfg.Components)
	}
}

func TestParseSizeAndDuration(t *testing.T) {
	sizes := map[string]int64{"": 0, "512": 512, "1KB": 1024, "100MB": 100 << 20, "2gb": 2 << 30}
	for in, want := range sizes {
		got, err := parseSize(in)
		if err != nil || got != want {
			t.Errorf("parseSize(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := parseDuration("7d"); err != nil {
		t.Errorf("parseDuration(7d): %v", err)
	}
	if _, err := parseDuration("d"); err == nil {
		t.Error("parseDuration(d) should fail")
	}
}

func TestCreateLoggerWithRotation_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sigsolver.log")
	cfg := DefaultLogConfig()
	cfg.Output = "file:" + path
	cfg.Timestamp = false
	cfg.Rotation.MaxSize = "64B"
	cfg.Rotation.Compress = false
	cfg.Rotation.MaxBackups = 1

	l, err := CreateLoggerWithRotation(cfg)
	if err != nil {
		t.Fatalf("CreateLoggerWithRotation: %v", err)
	}
	rw, ok := l.config.Output.(*RotatingWriter)
	if !ok {
		t.Fatalf("output is %T, want *RotatingWriter", l.config.Output)
	}
	defer rw.Close()

	log := l.WithComponent(ComponentApp)
	log.Info(strings.Repeat("x", 80))
	log.Info("after rotation")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "after rotation") || strings.Contains(string(data), "xxxx") {
		t.Errorf("current file = %q", data)
	}
	backups, _ := filepath.Glob(path + ".*")
	if len(backups) != 1 {
		t.Errorf("backups = %v, want 1", backups)
	}
}

func TestCreateLoggerWithRotation_Stream(t *testing.T) {
	cfg := DefaultLogConfig()
	cfg.Output = "null"
	l, err := CreateLoggerWithRotation(cfg)
	if err != nil {
		t.Fatalf("CreateLoggerWithRotation: %v", err)
	}
	if _, ok := l.config.Output.(*RotatingWriter); ok {
		t.Error("non-file output should not rotate")
	}
}

func TestRotatingWriter_CompressAndPrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rw, err := openRotating(path, rotationPolicy{maxSize: 16, keep: 2, compress: true})
	if err != nil {
		t.Fatalf("openRotating: %v", err)
	}
	defer rw.Close()

	for i := 0; i < 5; i++ {
		if _, err := rw.Write([]byte(strings.Repeat("y", 19) + "\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	gz, _ := filepath.Glob(path + ".*.gz")
	all, _ := filepath.Glob(path + ".*")
	if len(gz) != 2 || len(all) != 2 {
		t.Fatalf("backups = %v, want 2 gzipped", all)
	}
	f, err := os.Open(gz[1])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil || len(data) != 20 {
		t.Fatalf("backup holds %d bytes (%v), want one record", len(data), err)
	}
}

func TestRotatingWriter_KeepAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rw, err := openRotating(path, rotationPolicy{maxSize: 4})
	if err != nil {
		t.Fatalf("openRotating: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := rw.Write([]byte("12345")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if backups, _ := filepath.Glob(path + ".*"); len(backups) != 3 {
		t.Errorf("backups = %v, want 3", backups)
	}

	if err := rw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := rw.Write([]byte("late")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("write after Close = %v, want os.ErrClosed", err)
	}
}

func TestRotatingWriter_Age(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rw, err := openRotating(path, rotationPolicy{maxAge: time.Hour})
	if err != nil {
		t.Fatalf("openRotating: %v", err)
	}
	defer rw.Close()

	_, _ = rw.Write([]byte("old\n"))
	rw.opened = rw.opened.Add(-2 * time.Hour)
	_, _ = rw.Write([]byte("new\n"))

	data, _ := os.ReadFile(path)
	if string(data) != "new\n" {
		t.Errorf("current file = %q", data)
	}
}
