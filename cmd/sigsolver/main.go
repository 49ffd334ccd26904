package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytget/sigsolver"
	"github.com/ytget/sigsolver/internal/config"
	"github.com/ytget/sigsolver/internal/logger"
)

// flags shared by every command; zero values leave the configuration alone.
type globalFlags struct {
	configPath string
	engine     string
	baseURL    string
	logLevel   string
	timeout    time.Duration
	retries    int
	userAgent  string
	proxy      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "sigsolver",
		Short: "Decode YouTube stream signatures from player scripts",
		Long: `sigsolver extracts the signature and n transforms from a YouTube
player script and applies them to stream URLs.

Available subcommands:
  serve   - Run the HTTP API
  decrypt - Decode a signature and/or n value
  resolve - Rewrite a stream URL with decoded values
  sts     - Print the player's signature timestamp
  warm    - Build solvers for a list of player URLs`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&g.engine, "engine", "", "Sandbox engine (goja, or otto for ES5-only players)")
	root.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "Origin relative player paths resolve against")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	root.PersistentFlags().DurationVar(&g.timeout, "http-timeout", 0, "HTTP timeout (e.g., 30s, 1m)")
	root.PersistentFlags().IntVar(&g.retries, "retries", 0, "HTTP retries for transient errors")
	root.PersistentFlags().StringVar(&g.userAgent, "ua", "", "Override User-Agent header")
	root.PersistentFlags().StringVar(&g.proxy, "proxy", "", "Proxy URL (http/https/socks)")

	root.AddCommand(
		newServeCmd(g),
		newDecryptCmd(g),
		newResolveCmd(g),
		newStsCmd(g),
		newWarmCmd(g),
	)
	return root
}

// load reads the configuration, applies flag overrides and installs the
// global logger.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.engine != "" {
		cfg.Sandbox.Engine = g.engine
	}
	if g.baseURL != "" {
		cfg.Fetch.BaseURL = g.baseURL
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.timeout > 0 {
		cfg.Fetch.Timeout = g.timeout
	}
	if g.retries > 0 {
		cfg.Fetch.Retries = g.retries
	}
	if g.userAgent != "" {
		cfg.Fetch.UserAgent = g.userAgent
	}
	if g.proxy != "" {
		cfg.Fetch.Proxy = g.proxy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l, err := logger.CreateLoggerWithRotation(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logger.SetGlobalLogger(l)
	return cfg, nil
}

func (g *globalFlags) service() (*sigsolver.Service, *config.Config, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, nil, err
	}
	return sigsolver.FromConfig(cfg), cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
