package convert

import (
	"context"
	"fmt"
	"os"

	"diagconv/internal/cache"
	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/mdd"
	"diagconv/internal/odx"
	"diagconv/internal/trace"
	"diagconv/internal/yamlfmt"
)

// Input is a parsed input file.
type Input struct {
	Path   string
	Format Format
	Size   int64
	DB     *ir.DiagDatabase
	// Container is the decoded MDD file for MDD inputs, nil otherwise.
	Container *mdd.File
	Warnings  *diag.Bag
	Cached    bool
}

// Load reads path, detects its format and parses it. ODX and PDX inputs go
// through the resolver with opts' mode and audiences; YAML and MDD inputs
// are filtered by audience after parsing.
func Load(ctx context.Context, path string, opts *Options) (*Input, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	_, span := trace.Start(ctx, trace.ScopeStage, "read")
	data, err := os.ReadFile(path)
	span.WithExtra("bytes", fmt.Sprint(len(data))).End("")
	if err != nil {
		return nil, err
	}
	in, err := Parse(ctx, data, f, opts)
	if err != nil {
		return nil, err
	}
	in.Path = path
	return in, nil
}

// Parse is Load over bytes already in memory.
func Parse(ctx context.Context, data []byte, f Format, opts *Options) (*Input, error) {
	if opts == nil {
		opts = &Options{}
	}
	ctx, span := trace.Start(ctx, trace.ScopeStage, "parse")
	defer span.End(string(f))

	in := &Input{Format: f, Size: int64(len(data))}
	var key cache.Key
	if opts.Cache != nil && (f == FormatODX || f == FormatPDX) {
		key = cache.KeyFor(data, string(f), opts.mode().String(), opts.Audiences)
		db, warnings, ok, err := opts.Cache.Get(key, opts.maxWarnings())
		if err != nil {
			trace.Point(ctx, trace.ScopeDetail, "cache", err.Error())
		}
		if ok {
			in.DB, in.Warnings, in.Cached = db, warnings, true
			span.WithExtra("cache", "hit")
			return in, nil
		}
	}

	var err error
	switch f {
	case FormatODX, FormatPDX:
		odxOpts := odx.Options{Mode: opts.mode(), Audiences: opts.Audiences, MaxWarnings: opts.maxWarnings()}
		var res *odx.Result
		if f == FormatPDX {
			res, err = odx.ParsePDXBytes(data, odxOpts)
		} else {
			res, err = odx.ParseBytes(data, odxOpts)
		}
		if err == nil {
			in.DB, in.Warnings = res.DB, res.Warnings
		}
	case FormatYAML:
		in.DB, err = yamlfmt.Unmarshal(data)
	case FormatMDD:
		in.DB, in.Container, err = mdd.ReadDatabase(ctx, data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, err
	}
	if in.Warnings == nil {
		in.Warnings = diag.NewBag(opts.maxWarnings())
	}
	if len(opts.Audiences) > 0 && (f == FormatYAML || f == FormatMDD) {
		ir.FilterByAudience(in.DB, opts.Audiences...)
	}

	if opts.Cache != nil && (f == FormatODX || f == FormatPDX) {
		if err := opts.Cache.Put(key, in.DB, in.Warnings); err != nil {
			in.Warnings.Add(diag.NewWarning(diag.CnvCacheFailure, opts.Cache.Dir(), err.Error()))
		}
	}
	return in, nil
}
