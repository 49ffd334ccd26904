// Package logger provides structured logging for the sigsolver service.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Optional timestamps and caller locations
//   - Size and age based rotation of file output
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentFetcher)
//	log.Debug("downloading player script", map[string]interface{}{
//		"url": "https://www.youtube.com/s/player/abc/base.js",
//	})
//
//	cfg := logger.EnvironmentConfig()
//	l, err := logger.CreateLoggerWithRotation(cfg)
//	if err == nil {
//		logger.SetGlobalLogger(l)
//	}
//
// Components:
//   - ComponentApp: process lifecycle and CLI
//   - ComponentFetcher: player script downloads and in-flight joins
//   - ComponentParser: player script parsing
//   - ComponentExtractor: transform candidates and module synthesis
//   - ComponentSandbox: module evaluation
//   - ComponentCache: cache tier hits
//   - ComponentServer: HTTP requests
package logger
