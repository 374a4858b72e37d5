package convert

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"diagconv/internal/trace"
)

// Outcome is the result of one file of a batch. Exactly one of Result and
// Err is set.
type Outcome struct {
	Input  string
	Output string
	Result *Result
	Err    error
}

// FailureLine is the line printed for a failed file.
func (o Outcome) FailureLine() string {
	return fmt.Sprintf("FAILED %s: %v", o.Input, o.Err)
}

// BatchError is returned when at least one file of a batch failed.
type BatchError struct {
	Failed int
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d files failed to convert", e.Failed, e.Total)
}

// Batch converts every input into outDir as format f, at most opts.Jobs at a
// time. A failing file never stops its siblings; outcomes are returned in
// input order and the error is a *BatchError when any file failed.
func Batch(ctx context.Context, inputs []string, outDir string, f Format, opts *Options) ([]Outcome, error) {
	if opts == nil {
		opts = &Options{}
	}
	if f == FormatPDX {
		return nil, ErrInputOnly
	}
	if !opts.DryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory %s: %w", outDir, err)
		}
	}
	trace.Point(ctx, trace.ScopeFile, "batch", fmt.Sprintf("%d files, %d jobs", len(inputs), opts.jobs()))

	outcomes := make([]Outcome, len(inputs))
	claimed := make(map[string]string, len(inputs))
	for i, in := range inputs {
		outcomes[i] = Outcome{Input: in, Output: OutputPath(outDir, in, f)}
		if prev, dup := claimed[outcomes[i].Output]; dup {
			outcomes[i].Err = fmt.Errorf("output %s is also produced by %s", outcomes[i].Output, prev)
			continue
		}
		claimed[outcomes[i].Output] = in
		emit(opts.Progress, in, StageParse, StatusQueued, nil, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs())
	for i := range outcomes {
		if outcomes[i].Err != nil {
			continue
		}
		g.Go(func() error {
			o := &outcomes[i]
			if err := gctx.Err(); err != nil {
				o.Err = err
				return nil
			}
			o.Result, o.Err = File(gctx, o.Input, o.Output, opts)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range outcomes {
		if outcomes[i].Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return outcomes, &BatchError{Failed: failed, Total: len(inputs)}
	}
	return outcomes, nil
}
