package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Output describes where a stream tracer writes.
type Output struct {
	Path       string // "" or "-" is stderr
	MaxSizeMB  int    // >0 turns on rotation
	MaxBackups int
	MaxAgeDays int
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenOutput opens the destination. With MaxSizeMB set the file rotates
// through lumberjack and old files are gzipped; otherwise it is truncated.
// Stderr is never closed by the returned writer.
func OpenOutput(o Output) (io.WriteCloser, error) {
	if o.Path == "" || o.Path == "-" {
		return nopCloser{os.Stderr}, nil
	}
	if dir := filepath.Dir(o.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("trace output: %w", err)
		}
	}
	if o.MaxSizeMB > 0 {
		return &lumberjack.Logger{
			Filename:   o.Path,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
			Compress:   true,
		}, nil
	}
	f, err := os.Create(o.Path)
	if err != nil {
		return nil, fmt.Errorf("trace output: %w", err)
	}
	return f, nil
}
