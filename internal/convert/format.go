package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is one of the interchange formats the converter reads or writes.
type Format string

const (
	FormatODX  Format = "odx"
	FormatPDX  Format = "pdx"
	FormatYAML Format = "yaml"
	FormatMDD  Format = "mdd"
)

var (
	ErrUnknownFormat = errors.New("unknown format")
	ErrSameFormat    = errors.New("input and output formats are the same, nothing to convert")
	ErrInputOnly     = errors.New("PDX is an input-only format, use .odx for ODX output")
)

// Title is the upper-case name used in reports.
func (f Format) Title() string { return strings.ToUpper(string(f)) }

// Extension is the file extension written for f, without the dot.
func (f Format) Extension() string {
	if f == FormatYAML {
		return "yml"
	}
	return string(f)
}

// DetectFormat picks the format from the file extension: .odx and the
// .odx-d family, .pdx, .yml or .yaml, .mdd.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".odx" || strings.HasPrefix(ext, ".odx-"):
		return FormatODX, nil
	case ext == ".pdx":
		return FormatPDX, nil
	case ext == ".yml" || ext == ".yaml":
		return FormatYAML, nil
	case ext == ".mdd":
		return FormatMDD, nil
	case ext == "":
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return "", fmt.Errorf("%w: extension %s", ErrUnknownFormat, ext)
}

// ParseOutputFormat reads the -f flag. "yml" is accepted for YAML.
func ParseOutputFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "odx":
		return FormatODX, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "mdd":
		return FormatMDD, nil
	case "pdx":
		return "", ErrInputOnly
	}
	return "", fmt.Errorf("%w: %q (expected odx, yaml or mdd)", ErrUnknownFormat, s)
}

// CheckPair rejects conversions that cannot be performed.
func CheckPair(in, out Format) error {
	if out == FormatPDX {
		return ErrInputOnly
	}
	if in == out {
		return fmt.Errorf("%w (%s)", ErrSameFormat, in.Title())
	}
	return nil
}

// OutputPath places input's stem in dir with the extension of f.
func OutputPath(dir, input string, f Format) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"."+f.Extension())
}
