package ui

import (
	"errors"
	"strings"
	"testing"

	"diagconv/internal/convert"
)

func TestModelTracksFiles(t *testing.T) {
	m := NewProgressModel("converting 2 files", []string{"a.odx", "b.odx"}, nil).(*progressModel)

	m.Update(eventMsg{File: "a.odx", Stage: convert.StageEncode, Status: convert.StatusWorking})
	m.Update(eventMsg{File: "b.odx", Stage: convert.StageParse, Status: convert.StatusError, Err: errors.New("boom")})
	m.Update(eventMsg{File: "unknown.odx", Status: convert.StatusDone})

	if m.items[0].status != "encoding" || m.items[1].status != "failed" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if got := m.percent(); got < 0.79 || got > 0.81 {
		t.Fatalf("percent = %.2f, want 0.80", got)
	}
	view := m.View()
	for _, want := range []string{"converting 2 files", "encoding", "a.odx", "0/2 converted", "1 failed"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view misses %q:\n%s", want, view)
		}
	}

	m.Update(eventMsg{File: "a.odx", Stage: convert.StageWrite, Status: convert.StatusDone})
	m.Update(doneMsg{})
	if !m.done || !strings.Contains(m.View(), "done: converting 2 files") {
		t.Fatalf("model not finished:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a/very/long/path.odx", 10, "a/very/..."},
		{"abcdef", 2, "ab"},
		{"abcdef", 5, "ab..."},
		{"日本語テキスト", 7, "日本..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
