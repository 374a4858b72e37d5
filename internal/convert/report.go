package convert

import (
	"fmt"
	"strings"

	"diagconv/internal/ir"
)

// formatReport renders the .log file: one "key: value" line per fact, with
// per-variant and per-warning lines added at debug level.
func formatReport(r *Result, db *ir.DiagDatabase, level LogLevel) string {
	var sb strings.Builder
	line := func(key, format string, args ...any) {
		sb.WriteString(key)
		sb.WriteString(": ")
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	line("input", "%s", r.Input)
	line("input_size", "%d bytes", r.InputSize)
	line("output", "%s", r.Output)
	line("output_size", "%d bytes", r.OutputSize)
	line("input_format", "%s", r.InFormat.Title())
	line("output_format", "%s", r.OutFormat.Title())
	if r.Cached {
		line("cache", "hit")
	}
	for _, st := range r.Timings.Stages {
		line(st.Name+"_time", "%.1fms", st.DurationMS)
	}
	line("total_time", "%.1fms", r.Timings.TotalMS)
	line("ecu", "%s", db.EcuName)
	line("variants", "%d", r.Stats.Variants)
	line("functional_groups", "%d", r.Stats.FunctionalGroups)
	line("dtcs", "%d", r.Stats.Dtcs)
	if r.OutFormat == FormatMDD {
		line("fbs_size", "%d bytes", r.PayloadSize)
		if r.OutputSize > 0 {
			line("compression_ratio", "%.2fx", float64(r.PayloadSize)/float64(r.OutputSize))
		}
		if r.JobFiles > 0 {
			line("job_files", "%d", r.JobFiles)
		}
	}

	if n := r.Warnings.Len(); n > 0 {
		line("warnings", "%d", n)
		if level == LogDebug {
			for _, w := range r.Warnings.Strings() {
				sb.WriteString("  - ")
				sb.WriteString(w)
				sb.WriteByte('\n')
			}
		}
	}
	if len(r.Issues) > 0 {
		line("validation_warnings", "%d", len(r.Issues))
		if level == LogDebug {
			for _, is := range r.Issues {
				sb.WriteString("  - ")
				sb.WriteString(is.String())
				sb.WriteByte('\n')
			}
		}
	}

	if level == LogDebug {
		line("total_services", "%d", r.Stats.Services)
		line("total_single_ecu_jobs", "%d", r.Stats.Jobs)
		for i := range db.Variants {
			v := &db.Variants[i]
			fmt.Fprintf(&sb, "  variant '%s': %d services, %d jobs\n",
				v.ShortName(), len(v.DiagLayer.DiagServices), len(v.DiagLayer.SingleEcuJobs))
		}
	}
	return sb.String()
}
