package convert

import (
	"fmt"
	"runtime"
	"strings"

	"diagconv/internal/cache"
	"diagconv/internal/resolve"
)

// LogLevel controls the per-file .log report written next to each output.
type LogLevel uint8

const (
	LogOff LogLevel = iota
	LogInfo
	LogDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogInfo:
		return "info"
	case LogDebug:
		return "debug"
	}
	return "off"
}

func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LogOff, nil
	case "info":
		return LogInfo, nil
	case "debug":
		return LogDebug, nil
	}
	return LogOff, fmt.Errorf("invalid log level %q (expected off|info|debug)", s)
}

const defaultMaxWarnings = 4096

// Options configure both single and batch conversion. The zero value is a
// strict lzma conversion without a report.
type Options struct {
	Lenient   bool
	Audiences []string

	// MDD output.
	Compression   string
	SignContainer bool
	JobFilesDir   string

	DryRun      bool
	LogLevel    LogLevel
	Jobs        int // batch parallelism, 0 = GOMAXPROCS
	MaxWarnings int

	// Cache memoises ODX and PDX parses. Nil disables it.
	Cache    *cache.Cache
	Progress ProgressSink
}

func (o *Options) mode() resolve.Mode {
	if o.Lenient {
		return resolve.Lenient
	}
	return resolve.Strict
}

func (o *Options) maxWarnings() int {
	if o.MaxWarnings > 0 {
		return o.MaxWarnings
	}
	return defaultMaxWarnings
}

func (o *Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}
