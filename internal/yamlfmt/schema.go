package yamlfmt

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"diagconv/internal/ir"
)

// SchemaValidationError points at the offending node. Path is dotted with
// sequence indices, e.g. "variants[0].diag_layer.short_name"; Line is
// 1-based and zero when unknown.
type SchemaValidationError struct {
	Path string
	Line int
	Msg  string
}

func (e *SchemaValidationError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("yaml: line %d: %s: %s", e.Line, e.Path, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("yaml: line %d: %s", e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("yaml: %s: %s", e.Path, e.Msg)
	}
	return "yaml: " + e.Msg
}

type enumCheck func(string) error

func parsed[T any](parse func(string) (T, error)) enumCheck {
	return func(s string) error {
		_, err := parse(s)
		return err
	}
}

var (
	checkLayerKind    = parsed(ir.ParseLayerKind)
	checkResponseKind = parsed(ir.ParseResponseKind)
	checkDopKind      = parsed(ir.ParseDopKind)
	checkParamType    = parsed(ir.ParseParamType)
	checkAddressing   = parsed(ir.ParseAddressing)
	checkTransmission = parsed(ir.ParseTransmissionMode)
	checkDataType     = parsed(ir.ParseDataType)
)

// enumFor picks the enum a scalar must belong to from its key and the key
// of the mapping or sequence that holds it.
func enumFor(container, key string) enumCheck {
	switch key {
	case "kind":
		switch container {
		case "parent_refs":
			return checkLayerKind
		case "pos_responses", "neg_responses":
			return checkResponseKind
		case "dop":
			return checkDopKind
		}
	case "type":
		if container == "params" {
			return checkParamType
		}
	case "addressing":
		return checkAddressing
	case "transmission_mode":
		return checkTransmission
	case "base_data_type":
		return checkDataType
	}
	return nil
}

// named lists the containers whose elements need a non-empty short_name.
var named = map[string]bool{
	"diag_layer":      true,
	"diag_services":   true,
	"single_ecu_jobs": true,
	"params":          true,
	"dop":             true,
	"dtcs":            true,
	"parent_refs":     true,
}

type checker struct {
	errs []error
}

func (c *checker) fail(n *yaml.Node, path, format string, args ...any) {
	c.errs = append(c.errs, &SchemaValidationError{Path: path, Line: n.Line, Msg: fmt.Sprintf(format, args...)})
}

// checkSchema validates what the struct decoder cannot: the schema id,
// required names and enum spellings.
func checkSchema(root *yaml.Node) error {
	c := &checker{}
	if root.Kind != yaml.MappingNode {
		c.fail(root, "", "document must be a mapping")
		return errors.Join(c.errs...)
	}
	if v := lookup(root, "schema"); v == nil {
		c.fail(root, "schema", "missing, want %q", SchemaID)
	} else if v.Value != SchemaID {
		c.fail(v, "schema", "unsupported schema %q, want %q", v.Value, SchemaID)
	}
	if e := lookup(root, "ecu"); e == nil {
		c.fail(root, "ecu", "missing")
	} else if name := lookup(e, "name"); name == nil || name.Value == "" {
		c.fail(e, "ecu.name", "required")
	}
	c.walk(root, "", "")
	return errors.Join(c.errs...)
}

func (c *checker) walk(n *yaml.Node, path, container string) {
	switch n.Kind {
	case yaml.MappingNode:
		if named[container] {
			if v := lookup(n, "short_name"); v == nil || v.Value == "" {
				c.fail(n, join(path, "short_name"), "required")
			}
		}
		if (container == "variants" || container == "functional_groups") && lookup(n, "diag_layer") == nil {
			c.fail(n, join(path, "diag_layer"), "required")
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			p := join(path, k.Value)
			if check := enumFor(container, k.Value); check != nil && v.Kind == yaml.ScalarNode {
				if err := check(v.Value); err != nil {
					c.fail(v, p, "%v", err)
				}
			}
			c.walk(v, p, k.Value)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			c.walk(item, fmt.Sprintf("%s[%d]", path, i), container)
		}
	}
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
