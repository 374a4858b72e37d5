package main

import (
	"fmt"
	"io"

	"diagconv/internal/observ"
)

// printTimings writes one line per stage followed by the total.
func printTimings(out io.Writer, label string, r observ.Report) {
	if out == nil || len(r.Stages) == 0 {
		return
	}
	fmt.Fprintf(out, "timings for %s:\n", label)
	for _, s := range r.Stages {
		fmt.Fprintf(out, "  %-10s %9.2f ms", s.Name, s.DurationMS)
		if s.Note != "" {
			fmt.Fprintf(out, "  %s", s.Note)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "  %-10s %9.2f ms\n", "total", r.TotalMS)
}
