package yamlfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"diagconv/internal/ir"
)

// ErrEmpty is returned for input that holds no YAML document.
var ErrEmpty = errors.New("yaml: empty document")

// Read parses one YAML document. Schema problems come back as one or more
// *SchemaValidationError joined together; errors.As finds the first.
func Read(r io.Reader) (*ir.DiagDatabase, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

func Unmarshal(data []byte) (*ir.DiagDatabase, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, ErrEmpty
	}
	if err := checkSchema(root.Content[0]); err != nil {
		return nil, err
	}

	// второй проход: yaml.Node.Decode не умеет KnownFields
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, typeErrors(te)
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return doc.toIR(), nil
}

// typeErrors splits the "line N: msg" strings yaml.v3 collects for unknown
// fields and mistyped scalars.
func typeErrors(te *yaml.TypeError) error {
	errs := make([]error, 0, len(te.Errors))
	for _, msg := range te.Errors {
		e := &SchemaValidationError{Msg: msg}
		if rest, ok := strings.CutPrefix(msg, "line "); ok {
			if num, text, ok := strings.Cut(rest, ": "); ok {
				if n, err := strconv.Atoi(num); err == nil {
					e.Line, e.Msg = n, text
				}
			}
		}
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
