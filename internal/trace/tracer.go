package trace

import (
	"io"
)

// Tracer receives trace events. Implementations are goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// Config holds tracer configuration.
type Config struct {
	Level    Level
	Format   Format
	Output   Output
	Writer   io.Writer // overrides Output when set
	RingSize int       // default 4096
}

// Setup is what New hands back: the tracer to put into the context and the
// ring to dump when a command fails. Ring is nil when tracing is off.
type Setup struct {
	Tracer Tracer
	Ring   *RingTracer
}

// New builds the tracer for cfg. LevelError records into the ring only; the
// higher levels also stream to the output.
func New(cfg Config) (Setup, error) {
	if cfg.Level == LevelOff {
		return Setup{Tracer: Nop}, nil
	}
	ring := NewRingTracer(cfg.RingSize, cfg.Level)
	if cfg.Level == LevelError {
		return Setup{Tracer: ring, Ring: ring}, nil
	}
	var w io.Writer = cfg.Writer
	if w == nil {
		out, err := OpenOutput(cfg.Output)
		if err != nil {
			return Setup{}, err
		}
		w = out
	}
	stream := NewStreamTracer(w, cfg.Level, cfg.Format)
	return Setup{Tracer: NewMultiTracer(cfg.Level, stream, ring), Ring: ring}, nil
}
