package convert

import (
	"context"
	"fmt"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/mdd"
	"diagconv/internal/odx"
	"diagconv/internal/trace"
	"diagconv/internal/yamlfmt"
)

// Encoded is the serialised output of one conversion.
type Encoded struct {
	Data []byte
	// PayloadSize is the uncompressed description size for MDD output.
	PayloadSize int
	JobFiles    int
}

// Encode serialises db as f. Fields the target format cannot carry and job
// files that cannot be found are reported to rep.
func Encode(ctx context.Context, db *ir.DiagDatabase, f Format, opts *Options, rep diag.Reporter) (*Encoded, error) {
	if opts == nil {
		opts = &Options{}
	}
	if rep == nil {
		rep = diag.NopReporter{}
	}
	_, span := trace.Start(ctx, trace.ScopeStage, "encode")
	defer span.End(string(f))

	switch f {
	case FormatYAML:
		data, err := yamlfmt.Marshal(db)
		if err != nil {
			return nil, fmt.Errorf("writing YAML: %w", err)
		}
		return &Encoded{Data: data}, nil
	case FormatODX:
		data, err := odx.Marshal(db, odx.WriteOptions{Reporter: rep})
		if err != nil {
			return nil, fmt.Errorf("writing ODX: %w", err)
		}
		return &Encoded{Data: data}, nil
	case FormatMDD:
		var extra []mdd.Chunk
		if opts.JobFilesDir != "" {
			chunks, err := JobFileChunks(db, opts.JobFilesDir, rep)
			if err != nil {
				return nil, err
			}
			extra = chunks
		}
		w := mdd.Writer{Compression: opts.Compression, SignContainer: opts.SignContainer}
		file := mdd.DatabaseFile(db, nil, extra...)
		data, err := w.Encode(file)
		if err != nil {
			return nil, fmt.Errorf("writing MDD: %w", err)
		}
		span.WithExtra("chunks", fmt.Sprint(len(file.Chunks)))
		return &Encoded{Data: data, PayloadSize: len(file.Chunks[0].Payload), JobFiles: len(extra)}, nil
	case FormatPDX:
		return nil, ErrInputOnly
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
