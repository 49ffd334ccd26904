package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ytget/sigsolver/internal/cache"
	"github.com/ytget/sigsolver/youtube/cipher"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Sandbox.Engine != "goja" {
		t.Errorf("Engine = %q", cfg.Sandbox.Engine)
	}
	if cfg.Fetch.BaseURL != cipher.DefaultBaseURL || cfg.Fetch.Retries != 3 || cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Logging == nil || cfg.Logging.Level != "INFO" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if diff := cmp.Diff(cipher.DefaultCacheConfig(), cfg.Cache.Tiers()); diff != "" {
		t.Errorf("default tiers mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
server:
  addr: 127.0.0.1:9000
  auth_token: secret
  read_timeout: 5s
fetch:
  retries: 5
  proxy: http://proxy:3128
sandbox:
  engine: otto
cache:
  solvers:
    capacity: 10
    refresh_on_read: false
  sts:
    ttl: 2h
logging:
  level: debug
  components:
    fetcher: true
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.AuthToken != "secret" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("WriteTimeout default not applied: %v", cfg.Server.WriteTimeout)
	}
	if cfg.Fetch.Retries != 5 || cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if got := cfg.Fetch.Client(); got.ProxyURL != "http://proxy:3128" || got.Retries != 5 {
		t.Errorf("Client() = %+v", got)
	}
	if got := cfg.Sandbox.Evaluator(); got.Engine != "otto" {
		t.Errorf("Evaluator() = %+v", got)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Logging.Components["fetcher"] || !cfg.Logging.Components["app"] {
		t.Errorf("logging components should merge over defaults: %v", cfg.Logging.Components)
	}

	tiers := cfg.Cache.Tiers()
	if want := (cache.Options{Capacity: 10, TTL: 24 * time.Hour}); tiers.Solvers != want {
		t.Errorf("Solvers tier = %+v, want %+v", tiers.Solvers, want)
	}
	if want := (cache.Options{Capacity: 300, TTL: 2 * time.Hour}); tiers.Sts != want {
		t.Errorf("Sts tier = %+v, want %+v", tiers.Sts, want)
	}
	if tiers.Scripts != cipher.DefaultCacheConfig().Scripts {
		t.Errorf("Scripts tier = %+v", tiers.Scripts)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("server: [")); err == nil {
		t.Fatal("expected a YAML error")
	}
	if _, err := Parse([]byte("fetch:\n  timeout: soon\n")); err == nil {
		t.Fatal("expected a duration error")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigsolver.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n  auth_token: fromfile\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIGSOLVER_AUTH_TOKEN", "fromenv")
	t.Setenv("SIGSOLVER_ENGINE", "OTTO")
	t.Setenv("SIGSOLVER_FETCH_TIMEOUT", "3s")
	t.Setenv("SIGSOLVER_LOG_LEVEL", "WARN")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.AuthToken != "fromenv" {
		t.Errorf("AuthToken = %q", cfg.Server.AuthToken)
	}
	if cfg.Sandbox.Engine != "OTTO" || cfg.Fetch.Timeout != 3*time.Second {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Sandbox, cfg.Fetch)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
		want string
	}{
		{name: "missing file", file: "/nonexistent/sigsolver.yaml", want: "read config"},
		{name: "bad engine", env: map[string]string{"SIGSOLVER_ENGINE": "v8"}, want: "sandbox.engine"},
		{name: "bad retries", env: map[string]string{"SIGSOLVER_FETCH_RETRIES": "many"}, want: "SIGSOLVER_FETCH_RETRIES"},
		{name: "bad base url", env: map[string]string{"SIGSOLVER_BASE_URL": "ftp://x"}, want: "fetch.base_url"},
		{name: "bad log level", env: map[string]string{"SIGSOLVER_LOG_LEVEL": "LOUD"}, want: "logging"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.file)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
