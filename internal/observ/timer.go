// Package observ times the stages of a conversion for --timings and the
// per-file .log report.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Stage is one timed step of a conversion.
type Stage struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	done  bool
}

// Timer collects stages in the order they began. It is safe for concurrent
// use, although a single conversion runs its stages one after another.
type Timer struct {
	mu     sync.Mutex
	stages []Stage
}

func NewTimer() *Timer { return &Timer{stages: make([]Stage, 0, 6)} }

// Begin starts a stage and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages = append(t.stages, Stage{Name: name, Start: time.Now()})
	return len(t.stages) - 1
}

// End closes the stage; a second End for the same index is ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.stages) || t.stages[idx].done {
		return
	}
	s := &t.stages[idx]
	s.Dur = time.Since(s.Start)
	s.Note = note
	s.done = true
}

// Time runs fn as a stage named name.
func (t *Timer) Time(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	note := ""
	if err != nil {
		note = "failed"
	}
	t.End(idx, note)
	return err
}

// StageReport is the serialisable form of a finished stage.
type StageReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report сводит стадии и их суммарную длительность в миллисекундах.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Stages  []StageReport `json:"stages"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := Report{Stages: make([]StageReport, 0, len(t.stages))}
	var total time.Duration
	for _, s := range t.stages {
		total += s.Dur
		r.Stages = append(r.Stages, StageReport{Name: s.Name, DurationMS: millis(s.Dur), Note: s.Note})
	}
	r.TotalMS = millis(total)
	return r
}

// Summary renders the report as an aligned table with a total line.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&sb, "  %-12s %9.2f ms", s.Name, s.DurationMS)
		if s.Note != "" {
			sb.WriteString("  ")
			sb.WriteString(s.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-12s %9.2f ms\n", "total", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
