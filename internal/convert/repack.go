package convert

import (
	"context"
	"fmt"
	"os"

	"diagconv/internal/mdd"
	"diagconv/internal/observ"
	"diagconv/internal/trace"
)

// RepackResult describes a re-encoded container.
type RepackResult struct {
	InputSize  int64
	OutputSize int64
	Chunks     int
	Verbatim   int // chunks copied byte for byte
	Timings    observ.Report
}

// Repack decodes an MDD container and encodes it again with w. Chunks with a
// decoded payload are recompressed and re-signed; vendor and undecodable
// chunks are carried over unchanged.
func Repack(ctx context.Context, data []byte, w mdd.Writer) ([]byte, *RepackResult, error) {
	timer := observ.NewTimer()
	res := &RepackResult{InputSize: int64(len(data))}

	var f *mdd.File
	err := timer.Time("decode", func() error {
		_, span := trace.Start(ctx, trace.ScopeStage, "decode")
		defer span.End("")
		var err error
		f, err = mdd.Decode(ctx, data)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	res.Chunks = len(f.Chunks)
	for i := range f.Chunks {
		if f.Chunks[i].Verbatim() || f.Chunks[i].Payload == nil {
			res.Verbatim++
		}
	}

	var out []byte
	err = timer.Time("encode", func() error {
		_, span := trace.Start(ctx, trace.ScopeStage, "encode")
		defer span.End("")
		var err error
		out, err = w.Encode(f)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	res.OutputSize = int64(len(out))
	res.Timings = timer.Report()
	return out, res, nil
}

// RepackFile is Repack from input to output.
func RepackFile(ctx context.Context, input, output string, w mdd.Writer) (*RepackResult, error) {
	for _, p := range []string{input, output} {
		if f, err := DetectFormat(p); err != nil || f != FormatMDD {
			return nil, fmt.Errorf("repack needs .mdd files, got %s", p)
		}
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	out, res, err := Repack(ctx, data, w)
	if err != nil {
		return nil, fmt.Errorf("repacking %s: %w", input, err)
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return nil, err
	}
	return res, nil
}
