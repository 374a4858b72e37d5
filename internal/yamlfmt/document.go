// Package yamlfmt reads and writes the human-editable YAML form of a
// diagnostic database. YAML carries already-resolved variants, so it maps
// onto the IR directly and never goes through the resolver.
package yamlfmt

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"diagconv/internal/ir"
)

// SchemaID identifies the document layout. Readers reject anything else.
const SchemaID = "diagconv/v1"

type document struct {
	Schema           string               `yaml:"schema"`
	Ecu              ecu                  `yaml:"ecu"`
	Metadata         map[string]string    `yaml:"metadata,omitempty"`
	Variants         []ir.Variant         `yaml:"variants,omitempty"`
	FunctionalGroups []ir.FunctionalGroup `yaml:"functional_groups,omitempty"`
	Dtcs             []ir.Dtc             `yaml:"dtcs,omitempty"`
	Memory           *ir.MemoryConfig     `yaml:"memory,omitempty"`
}

type ecu struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version,omitempty"`
	Revision string `yaml:"revision,omitempty"`
}

func fromIR(db *ir.DiagDatabase) *document {
	return &document{
		Schema: SchemaID,
		Ecu: ecu{
			Name:     db.EcuName,
			Version:  db.Version,
			Revision: db.Revision,
		},
		Metadata:         db.Metadata,
		Variants:         db.Variants,
		FunctionalGroups: db.FunctionalGroups,
		Dtcs:             db.Dtcs,
		Memory:           db.Memory,
	}
}

func (d *document) toIR() *ir.DiagDatabase {
	return &ir.DiagDatabase{
		EcuName:          d.Ecu.Name,
		Version:          d.Ecu.Version,
		Revision:         d.Ecu.Revision,
		Metadata:         d.Metadata,
		Variants:         d.Variants,
		FunctionalGroups: d.FunctionalGroups,
		Dtcs:             d.Dtcs,
		Memory:           d.Memory,
	}
}

// Write emits db as a single YAML document with two-space indentation.
func Write(w io.Writer, db *ir.DiagDatabase) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromIR(db)); err != nil {
		return err
	}
	return enc.Close()
}

func Marshal(db *ir.DiagDatabase) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, db); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
