package mdd

import (
	"context"

	"diagconv/internal/ir"
	"diagconv/internal/payload"
)

const (
	DescriptionChunkName = "diagnostic_description"
	DescriptionMimeType  = "application/x-flatbuffers"
)

// ReadDatabase decodes a container and its diagnostic description. The
// returned File keeps every other chunk for callers that re-pack or extract.
// Header fields missing from the payload are filled from the envelope.
func ReadDatabase(ctx context.Context, data []byte) (*ir.DiagDatabase, *File, error) {
	f, err := Decode(ctx, data)
	if err != nil {
		return nil, nil, err
	}
	c, ok := f.Find(ChunkDiagnosticDescription)
	if !ok {
		return nil, nil, &FormatError{Msg: "no diagnostic description chunk"}
	}
	if c.Payload == nil {
		return nil, nil, &FormatError{Msg: "diagnostic description chunk is encrypted or undecodable"}
	}
	db, _, err := payload.FromPayload(c.Payload)
	if err != nil {
		return nil, nil, formatErrorf(err, "diagnostic description")
	}
	if db.EcuName == "" {
		db.EcuName = f.EcuName
	}
	if db.Version == "" {
		db.Version = f.Version
	}
	if db.Revision == "" {
		db.Revision = f.Revision
	}
	return db, f, nil
}

// DatabaseFile builds the container model for db: the description chunk
// first, followed by extra in the given order.
func DatabaseFile(db *ir.DiagDatabase, featureFlags []string, extra ...Chunk) *File {
	f := &File{
		Version:      db.Version,
		EcuName:      db.EcuName,
		Revision:     db.Revision,
		Metadata:     db.Metadata,
		FeatureFlags: featureFlags,
		Chunks:       make([]Chunk, 0, 1+len(extra)),
	}
	f.Chunks = append(f.Chunks, Chunk{
		Type:     ChunkDiagnosticDescription,
		Name:     DescriptionChunkName,
		MimeType: DescriptionMimeType,
		Payload:  payload.ToPayload(db, featureFlags...),
	})
	f.Chunks = append(f.Chunks, extra...)
	return f
}

// WriteDatabase is DatabaseFile followed by w.Encode.
func WriteDatabase(w Writer, db *ir.DiagDatabase, featureFlags []string, extra ...Chunk) ([]byte, error) {
	return w.Encode(DatabaseFile(db, featureFlags, extra...))
}

// CodeFileChunk wraps a job code file (usually a .jar) as a JAR_FILE chunk.
func CodeFileChunk(name string, content []byte) Chunk {
	return Chunk{Type: ChunkJarFile, Name: name, MimeType: "application/java-archive", Payload: content}
}

// CodeFiles returns the JAR_FILE and JAR_FILE_PARTIAL chunks that could be
// decoded, keyed by name.
func (f *File) CodeFiles() map[string][]byte {
	out := make(map[string][]byte)
	for i := range f.Chunks {
		c := &f.Chunks[i]
		if (c.Type == ChunkJarFile || c.Type == ChunkJarFilePartial) && c.Payload != nil {
			out[c.Name] = c.Payload
		}
	}
	return out
}
