package odx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"diagconv/internal/diag"
)

// ErrNoODX is returned for a PDX archive without a single ODX entry that
// carries a DIAG-LAYER-CONTAINER.
var ErrNoODX = errors.New("pdx: archive contains no ODX diag layer container")

// IsODXEntry reports whether a PDX member holds ODX: "*.odx" or the
// "*.odx-d", "*.odx-c" family.
func IsODXEntry(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".odx") || strings.Contains(lower, ".odx-")
}

// ParsePDX reads every ODX member of a PDX archive and resolves all their
// layers together. Members without a container are skipped with a warning.
func ParsePDX(r io.ReaderAt, size int64, opts Options) (*Result, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("pdx: %w", err)
	}
	var (
		docs    []*document
		skipped []diag.Diagnostic
	)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !IsODXEntry(f.Name) {
			continue
		}
		doc, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("pdx entry %s: %w", f.Name, err)
		}
		if doc.Container == nil {
			skipped = append(skipped, diag.NewWarning(diag.OdxSkippedEntry, f.Name, "no DIAG-LAYER-CONTAINER, entry skipped"))
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, ErrNoODX
	}
	return build(docs, opts, skipped...)
}

// ParsePDXBytes is ParsePDX over an in-memory archive.
func ParsePDXBytes(data []byte, opts Options) (*Result, error) {
	return ParsePDX(bytes.NewReader(data), int64(len(data)), opts)
}

func readEntry(f *zip.File) (*document, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return decodeDocument(rc)
}
