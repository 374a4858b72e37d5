package mdd

import (
	"bytes"
	"context"
	"crypto/sha512"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParseEnvelope checks the magic and decodes the envelope. Chunk payloads are
// left untouched. Chunk Data aliases data.
func ParseEnvelope(data []byte) (*File, error) {
	if !HasMagic(data) {
		return nil, &FormatError{Msg: "invalid magic header"}
	}
	f, err := parseEnvelope(data[len(Magic):])
	if err != nil {
		return nil, formatErrorf(err, "envelope")
	}
	return f, nil
}

// Decode parses data and decompresses and verifies every chunk. Chunks are
// processed in parallel and stay in on-disk order.
func Decode(ctx context.Context, data []byte) (*File, error) {
	f, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(runtime.GOMAXPROCS(0), len(f.Chunks))))
	for i := range f.Chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return decodeChunk(i, &f.Chunks[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s := f.ChunksSignature; s != nil && s.Algorithm == SignatureAlgorithm {
		h := sha512.New()
		for i := range f.Chunks {
			h.Write(f.Chunks[i].content())
		}
		if !bytes.Equal(h.Sum(nil), s.Value) {
			return nil, &SignatureMismatchError{Chunk: -1}
		}
	}
	return f, nil
}

func decodeChunk(i int, c *Chunk) error {
	if c.Encryption != "" {
		// шифрованные чанки не трогаем: подпись считается по открытому тексту
		return nil
	}
	signed := signatureOf(c) != nil

	hint := uint64(len(c.Data))
	if c.UncompressedSize != nil {
		hint = *c.UncompressedSize
	}
	payload, err := Decompress(c.Data, c.Compression, hint)
	if err != nil {
		var unsupported *UnsupportedCompressionError
		if errors.As(err, &unsupported) {
			if c.Type.IsVendor() {
				return nil
			}
			return err
		}
		ferr := formatErrorf(err, "chunk %d (%s)", i, c.Type)
		if signed {
			return &SignatureMismatchError{Chunk: i, Name: c.Name, Err: ferr}
		}
		return ferr
	}
	if c.UncompressedSize != nil && uint64(len(payload)) != *c.UncompressedSize {
		return formatErrorf(nil, "chunk %d (%s): uncompressed size %d, header says %d", i, c.Type, len(payload), *c.UncompressedSize)
	}
	for _, s := range c.Signatures {
		if s.Algorithm != SignatureAlgorithm {
			continue
		}
		sum := sha512.Sum512(payload)
		if !bytes.Equal(sum[:], s.Value) {
			return &SignatureMismatchError{Chunk: i, Name: c.Name}
		}
	}
	if payload == nil {
		payload = []byte{}
	}
	c.Payload = payload
	return nil
}

func signatureOf(c *Chunk) *Signature {
	for i := range c.Signatures {
		if c.Signatures[i].Algorithm == SignatureAlgorithm {
			return &c.Signatures[i]
		}
	}
	return nil
}
