package mdd

import (
	"crypto/sha512"
	"maps"
	"slices"
)

// DefaultVersion is written when the caller leaves File.Version empty.
const DefaultVersion = "1.0.0"

// Writer encodes containers. The zero value writes lzma chunks without a
// container-wide signature.
type Writer struct {
	// Compression is "lzma", "gzip", "zstd" or "none"; empty means lzma.
	Compression string
	// SignContainer adds chunks_signature over all chunk payloads in order.
	SignContainer bool
}

func (w Writer) algorithm() (string, error) {
	return NormalizeCompression(w.Compression)
}

// Encode serialises f. Every chunk with a Payload is signed over the payload,
// compressed and given a fresh header; verbatim and opaque chunks are copied
// unchanged. f is not modified.
func (w Writer) Encode(f *File) ([]byte, error) {
	algo, err := w.algorithm()
	if err != nil {
		return nil, err
	}
	out := *f
	if out.Version == "" {
		out.Version = DefaultVersion
	}
	out.Chunks = make([]Chunk, len(f.Chunks))
	for i := range f.Chunks {
		c, err := sealChunk(&f.Chunks[i], algo)
		if err != nil {
			return nil, formatErrorf(err, "chunk %d (%s)", i, f.Chunks[i].Type)
		}
		out.Chunks[i] = c
	}
	out.ChunksSignature = nil
	if w.SignContainer {
		h := sha512.New()
		for i := range out.Chunks {
			h.Write(out.Chunks[i].content())
		}
		out.ChunksSignature = &Signature{Algorithm: SignatureAlgorithm, Value: h.Sum(nil)}
	}

	size := len(Magic) + 64
	for i := range out.Chunks {
		size += len(out.Chunks[i].Data) + 160
	}
	b := make([]byte, 0, size)
	b = append(b, Magic[:]...)
	return appendEnvelope(b, &out), nil
}

// sealChunk signs first, then compresses: the digest always covers the
// uncompressed bytes.
func sealChunk(c *Chunk, algo string) (Chunk, error) {
	if c.Verbatim() || c.Payload == nil {
		cp := *c
		return cp, nil
	}
	sum := sha512.Sum512(c.Payload)
	data, err := Compress(c.Payload, algo)
	if err != nil {
		return Chunk{}, err
	}
	out := Chunk{
		Type:        c.Type,
		Name:        c.Name,
		Metadata:    maps.Clone(c.Metadata),
		Signatures:  []Signature{{Algorithm: SignatureAlgorithm, Value: sum[:]}},
		Compression: algo,
		MimeType:    c.MimeType,
		Data:        data,
		Payload:     c.Payload,
	}
	if algo != CompressionNone {
		size := uint64(len(c.Payload))
		out.UncompressedSize = &size
	}
	return out, nil
}

// SortedMetadataKeys is a helper for printers.
func SortedMetadataKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
