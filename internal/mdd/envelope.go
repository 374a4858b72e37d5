package mdd

import (
	"fmt"
	"maps"
	"slices"

	"fortio.org/safecast"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the fileformat.proto messages.
const (
	fileVersion         protowire.Number = 1
	fileEcuName         protowire.Number = 2
	fileRevision        protowire.Number = 3
	fileMetadata        protowire.Number = 4
	fileChunks          protowire.Number = 5
	fileFeatureFlags    protowire.Number = 6
	fileChunksSignature protowire.Number = 7

	chunkType             protowire.Number = 1
	chunkName             protowire.Number = 2
	chunkMetadata         protowire.Number = 3
	chunkSignatures       protowire.Number = 4
	chunkCompression      protowire.Number = 5
	chunkUncompressedSize protowire.Number = 6
	chunkEncryption       protowire.Number = 7
	chunkMimeType         protowire.Number = 8
	chunkData             protowire.Number = 9

	sigAlgorithm     protowire.Number = 1
	sigKeyIdentifier protowire.Number = 2
	sigMetadata      protowire.Number = 3
	sigValue         protowire.Number = 4

	mapKey   protowire.Number = 1
	mapValue protowire.Number = 2
)

// appendEnvelope serialises f. Map entries are written in key order so the
// output is deterministic.
func appendEnvelope(b []byte, f *File) []byte {
	b = appendString(b, fileVersion, f.Version)
	b = appendString(b, fileEcuName, f.EcuName)
	b = appendString(b, fileRevision, f.Revision)
	b = appendMap(b, fileMetadata, f.Metadata)
	for i := range f.Chunks {
		b = protowire.AppendTag(b, fileChunks, protowire.BytesType)
		b = protowire.AppendBytes(b, appendChunk(nil, &f.Chunks[i]))
	}
	for _, flag := range f.FeatureFlags {
		b = protowire.AppendTag(b, fileFeatureFlags, protowire.BytesType)
		b = protowire.AppendString(b, flag)
	}
	if f.ChunksSignature != nil {
		b = protowire.AppendTag(b, fileChunksSignature, protowire.BytesType)
		b = protowire.AppendBytes(b, appendSignature(nil, f.ChunksSignature))
	}
	return b
}

func appendChunk(b []byte, c *Chunk) []byte {
	if c.Type != 0 {
		b = protowire.AppendTag(b, chunkType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(c.Type)))
	}
	b = appendString(b, chunkName, c.Name)
	b = appendMap(b, chunkMetadata, c.Metadata)
	for i := range c.Signatures {
		b = protowire.AppendTag(b, chunkSignatures, protowire.BytesType)
		b = protowire.AppendBytes(b, appendSignature(nil, &c.Signatures[i]))
	}
	b = appendString(b, chunkCompression, c.Compression)
	if c.UncompressedSize != nil {
		b = protowire.AppendTag(b, chunkUncompressedSize, protowire.VarintType)
		b = protowire.AppendVarint(b, *c.UncompressedSize)
	}
	b = appendString(b, chunkEncryption, c.Encryption)
	b = appendString(b, chunkMimeType, c.MimeType)
	// data is always present, even when empty
	b = protowire.AppendTag(b, chunkData, protowire.BytesType)
	b = protowire.AppendBytes(b, c.Data)
	return b
}

func appendSignature(b []byte, s *Signature) []byte {
	b = appendString(b, sigAlgorithm, s.Algorithm)
	b = appendString(b, sigKeyIdentifier, s.KeyIdentifier)
	b = appendMap(b, sigMetadata, s.Metadata)
	b = protowire.AppendTag(b, sigValue, protowire.BytesType)
	b = protowire.AppendBytes(b, s.Value)
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMap(b []byte, num protowire.Number, m map[string]string) []byte {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		var entry []byte
		entry = protowire.AppendTag(entry, mapKey, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, mapValue, protowire.BytesType)
		entry = protowire.AppendString(entry, m[k])
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// fieldReader walks the fields of one message. Unknown fields are skipped.
type fieldReader struct {
	b   []byte
	err error
}

func (r *fieldReader) next() (protowire.Number, protowire.Type, bool) {
	if r.err != nil || len(r.b) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(r.b)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return 0, 0, false
	}
	r.b = r.b[n:]
	return num, typ, true
}

func (r *fieldReader) bytes(typ protowire.Type) []byte {
	if typ != protowire.BytesType {
		r.err = fmt.Errorf("wire type %d, want bytes", typ)
		return nil
	}
	v, n := protowire.ConsumeBytes(r.b)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return nil
	}
	r.b = r.b[n:]
	return v
}

func (r *fieldReader) varint(typ protowire.Type) uint64 {
	if typ != protowire.VarintType {
		r.err = fmt.Errorf("wire type %d, want varint", typ)
		return 0
	}
	v, n := protowire.ConsumeVarint(r.b)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return 0
	}
	r.b = r.b[n:]
	return v
}

func (r *fieldReader) skip(num protowire.Number, typ protowire.Type) {
	n := protowire.ConsumeFieldValue(num, typ, r.b)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return
	}
	r.b = r.b[n:]
}

func (r *fieldReader) mapEntry(typ protowire.Type, m *map[string]string) {
	raw := r.bytes(typ)
	if r.err != nil {
		return
	}
	if err := parseMapEntry(raw, m); err != nil {
		r.err = fmt.Errorf("map entry: %w", err)
	}
}

// parseEnvelope decodes an MddFile message. Chunk Data aliases b.
func parseEnvelope(b []byte) (*File, error) {
	f := &File{}
	r := &fieldReader{b: b}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case fileVersion:
			f.Version = string(r.bytes(typ))
		case fileEcuName:
			f.EcuName = string(r.bytes(typ))
		case fileRevision:
			f.Revision = string(r.bytes(typ))
		case fileMetadata:
			r.mapEntry(typ, &f.Metadata)
		case fileChunks:
			raw := r.bytes(typ)
			if r.err != nil {
				break
			}
			c, err := parseChunk(raw)
			if err != nil {
				r.err = fmt.Errorf("chunk %d: %w", len(f.Chunks), err)
				break
			}
			f.Chunks = append(f.Chunks, c)
		case fileFeatureFlags:
			f.FeatureFlags = append(f.FeatureFlags, string(r.bytes(typ)))
		case fileChunksSignature:
			raw := r.bytes(typ)
			if r.err != nil {
				break
			}
			s, err := parseSignature(raw)
			if err != nil {
				r.err = fmt.Errorf("chunks signature: %w", err)
				break
			}
			f.ChunksSignature = &s
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

func parseChunk(b []byte) (Chunk, error) {
	var c Chunk
	r := &fieldReader{b: b}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case chunkType:
			v, err := safecast.Conv[int32](int64(r.varint(typ)))
			if err != nil && r.err == nil {
				r.err = fmt.Errorf("chunk type: %w", err)
			}
			c.Type = ChunkType(v)
		case chunkName:
			c.Name = string(r.bytes(typ))
		case chunkMetadata:
			r.mapEntry(typ, &c.Metadata)
		case chunkSignatures:
			raw := r.bytes(typ)
			if r.err != nil {
				break
			}
			s, err := parseSignature(raw)
			if err != nil {
				r.err = fmt.Errorf("signature: %w", err)
				break
			}
			c.Signatures = append(c.Signatures, s)
		case chunkCompression:
			c.Compression = string(r.bytes(typ))
		case chunkUncompressedSize:
			v := r.varint(typ)
			c.UncompressedSize = &v
		case chunkEncryption:
			c.Encryption = string(r.bytes(typ))
		case chunkMimeType:
			c.MimeType = string(r.bytes(typ))
		case chunkData:
			c.Data = r.bytes(typ)
			if c.Data == nil && r.err == nil {
				c.Data = []byte{}
			}
		default:
			r.skip(num, typ)
		}
	}
	return c, r.err
}

func parseSignature(b []byte) (Signature, error) {
	var s Signature
	r := &fieldReader{b: b}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case sigAlgorithm:
			s.Algorithm = string(r.bytes(typ))
		case sigKeyIdentifier:
			s.KeyIdentifier = string(r.bytes(typ))
		case sigMetadata:
			r.mapEntry(typ, &s.Metadata)
		case sigValue:
			s.Value = r.bytes(typ)
		default:
			r.skip(num, typ)
		}
	}
	return s, r.err
}

func parseMapEntry(b []byte, m *map[string]string) error {
	var k, v string
	r := &fieldReader{b: b}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case mapKey:
			k = string(r.bytes(typ))
		case mapValue:
			v = string(r.bytes(typ))
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return r.err
	}
	if *m == nil {
		*m = make(map[string]string)
	}
	(*m)[k] = v
	return nil
}
