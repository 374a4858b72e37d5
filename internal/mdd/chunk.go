package mdd

import (
	"bytes"
	"fmt"
)

// Magic is the fixed 20-byte file header.
var Magic = [20]byte{'M', 'D', 'D', ' ', 'v', 'e', 'r', 's', 'i', 'o', 'n', ' ', '0', ' ', ' ', ' ', ' ', ' ', ' ', 0}

// HasMagic reports whether data starts with Magic.
func HasMagic(data []byte) bool {
	return len(data) >= len(Magic) && bytes.Equal(data[:len(Magic)], Magic[:])
}

type ChunkType int32

const (
	ChunkDiagnosticDescription ChunkType = 0
	ChunkJarFile               ChunkType = 1
	ChunkJarFilePartial        ChunkType = 2
	ChunkEmbeddedFile          ChunkType = 3
	ChunkVendorSpecific        ChunkType = 1024
)

// IsVendor reports whether t is a vendor-specific type. Vendor chunks are
// opaque and preserved verbatim.
func (t ChunkType) IsVendor() bool { return t >= ChunkVendorSpecific }

func (t ChunkType) String() string {
	switch t {
	case ChunkDiagnosticDescription:
		return "DIAGNOSTIC_DESCRIPTION"
	case ChunkJarFile:
		return "JAR_FILE"
	case ChunkJarFilePartial:
		return "JAR_FILE_PARTIAL"
	case ChunkEmbeddedFile:
		return "EMBEDDED_FILE"
	}
	if t.IsVendor() {
		return fmt.Sprintf("VENDOR_SPECIFIC(%d)", int32(t))
	}
	return fmt.Sprintf("UNKNOWN(%d)", int32(t))
}

// SignatureAlgorithm is the only algorithm this codec writes and verifies.
const SignatureAlgorithm = "sha512_uncompressed"

type Signature struct {
	Algorithm     string
	KeyIdentifier string
	Metadata      map[string]string
	Value         []byte
}

// Chunk is one entry of the container.
//
// Data holds the bytes as stored on disk. Payload holds the uncompressed
// bytes: Decode fills it, Encode reads it. Payload stays nil for chunks that
// cannot be decoded (encrypted, or vendor chunks with an unknown algorithm).
type Chunk struct {
	Type             ChunkType
	Name             string
	Metadata         map[string]string
	Signatures       []Signature
	Compression      string
	UncompressedSize *uint64
	Encryption       string
	MimeType         string
	Data             []byte

	Payload []byte
}

// Verbatim reports whether the writer must re-emit the chunk unchanged.
func (c *Chunk) Verbatim() bool {
	return c.Type.IsVendor() && c.Data != nil
}

// content is what signatures cover: the uncompressed payload when known,
// the stored bytes otherwise.
func (c *Chunk) content() []byte {
	if c.Payload != nil {
		return c.Payload
	}
	return c.Data
}

// File is the decoded MDD envelope.
type File struct {
	Version         string
	EcuName         string
	Revision        string
	Metadata        map[string]string
	FeatureFlags    []string
	Chunks          []Chunk
	ChunksSignature *Signature
}

// Find returns the first chunk of type t.
func (f *File) Find(t ChunkType) (*Chunk, bool) {
	for i := range f.Chunks {
		if f.Chunks[i].Type == t {
			return &f.Chunks[i], true
		}
	}
	return nil, false
}
