package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// backupStamp sorts lexically in creation order.
const backupStamp = "20060102T150405.000000000"

// rotationPolicy is a parsed RotationConfig. Zero limits are disabled and
// keep == 0 retains every backup.
type rotationPolicy struct {
	maxSize  int64
	maxAge   time.Duration
	keep     int
	compress bool
}

func (r *RotationConfig) policy() (rotationPolicy, error) {
	size, err := parseSize(r.MaxSize)
	if err != nil {
		return rotationPolicy{}, fmt.Errorf("parse max size: %v", err)
	}
	age, err := parseDuration(r.MaxAge)
	if err != nil {
		return rotationPolicy{}, fmt.Errorf("parse max age: %v", err)
	}
	return rotationPolicy{maxSize: size, maxAge: age, keep: r.MaxBackups, compress: r.Compress}, nil
}

// RotatingWriter is a log file that is moved aside to path.<stamp>
// (optionally gzipped) once it grows past the size limit or outlives the
// age limit.
type RotatingWriter struct {
	path   string
	policy rotationPolicy

	mu     sync.Mutex
	f      *os.File
	size   int64
	opened time.Time
	stamp  time.Time
}

func openRotating(path string, p rotationPolicy) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %v", err)
	}
	rw := &RotatingWriter{path: path, policy: p}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingWriter) open() error {
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %v", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %v", err)
	}
	rw.f, rw.size, rw.opened = f, st.Size(), time.Now()
	return nil
}

func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.f == nil {
		return 0, os.ErrClosed
	}
	if rw.due(len(p)) {
		if err := rw.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %v", err)
		}
	}
	n, err := rw.f.Write(p)
	rw.size += int64(n)
	return n, err
}

// due reports whether the next write of n bytes goes to a fresh file.
// A record is never split, so an empty file accepts any write.
func (rw *RotatingWriter) due(n int) bool {
	if rw.size == 0 {
		return false
	}
	if rw.policy.maxSize > 0 && rw.size+int64(n) > rw.policy.maxSize {
		return true
	}
	return rw.policy.maxAge > 0 && time.Since(rw.opened) >= rw.policy.maxAge
}

func (rw *RotatingWriter) rotate() error {
	if err := rw.f.Close(); err != nil {
		return err
	}
	rw.f = nil

	backup := rw.path + "." + rw.nextStamp().Format(backupStamp)
	renameErr := os.Rename(rw.path, backup)
	if err := rw.open(); err != nil {
		return err
	}
	if renameErr != nil {
		return renameErr
	}

	// Archive failures are reported on stderr and do not fail the write.
	if rw.policy.compress {
		if err := gzipFile(backup); err != nil {
			fmt.Fprintf(os.Stderr, "logger: compress %s: %v\n", backup, err)
		}
	}
	if err := rw.prune(); err != nil {
		fmt.Fprintf(os.Stderr, "logger: prune backups of %s: %v\n", rw.path, err)
	}
	return nil
}

// nextStamp is strictly increasing so backups never collide.
func (rw *RotatingWriter) nextStamp() time.Time {
	now := time.Now().UTC()
	if !now.After(rw.stamp) {
		now = rw.stamp.Add(time.Nanosecond)
	}
	rw.stamp = now
	return now
}

// prune drops the oldest backups beyond policy.keep.
func (rw *RotatingWriter) prune() error {
	if rw.policy.keep <= 0 {
		return nil
	}
	backups, err := filepath.Glob(rw.path + ".*")
	if err != nil {
		return err
	}
	sort.Strings(backups)
	var firstErr error
	for len(backups) > rw.policy.keep {
		if err := os.Remove(backups[0]); err != nil && firstErr == nil {
			firstErr = err
		}
		backups = backups[1:]
	}
	return firstErr
}

// Close closes the current file. Writes after Close fail.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.f == nil {
		return nil
	}
	err := rw.f.Close()
	rw.f = nil
	return err
}

// gzipFile replaces name with name.gz.
func gzipFile(name string) (err error) {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(name + ".gz")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst.Name())
		}
	}()

	zw := gzip.NewWriter(dst)
	if _, err = io.Copy(zw, src); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}
	_ = src.Close()
	return os.Remove(name)
}

// CreateRotatingWriterFromConfig returns a RotatingWriter for a file:
// output with rotation configured, and the plain output otherwise.
func CreateRotatingWriterFromConfig(config *LogConfig) (io.Writer, error) {
	path, ok := outputFile(config.Output)
	if !ok || config.Rotation == nil {
		return parseOutput(config.Output)
	}
	p, err := config.Rotation.policy()
	if err != nil {
		return nil, err
	}
	return openRotating(path, p)
}

// CreateLoggerWithRotation creates a logger whose file output, if any,
// rotates per config.Rotation.
func CreateLoggerWithRotation(config *LogConfig) (*Logger, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("validate config: %v", err)
	}
	lc, err := config.toConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %v", err)
	}
	out, err := CreateRotatingWriterFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("create rotating writer: %v", err)
	}
	lc.Output = out
	return New(lc), nil
}
