package mdd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz/lzma"
)

const (
	CompressionNone = ""
	CompressionLZMA = "lzma"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// MaxDecompressedSize bounds every decompression so a crafted chunk cannot
// exhaust memory.
const MaxDecompressedSize = 256 << 20

// lzmaDictCap matches xz preset 6.
const lzmaDictCap = 8 << 20

// NormalizeCompression maps user spellings to the on-disk algorithm name.
// An empty setting selects lzma; "none" selects uncompressed chunks.
func NormalizeCompression(name string) (string, error) {
	switch name {
	case "":
		return CompressionLZMA, nil
	case "none":
		return CompressionNone, nil
	case CompressionLZMA, CompressionGzip, CompressionZstd:
		return name, nil
	}
	return "", &UnsupportedCompressionError{Algorithm: name}
}

// Compress encodes data with algo. lzma produces the LZMA_ALONE (.lzma)
// framing: 13-byte header with unknown size and an end-of-stream marker.
func Compress(data []byte, algo string) ([]byte, error) {
	var buf bytes.Buffer
	switch algo {
	case CompressionNone:
		return bytes.Clone(data), nil
	case CompressionLZMA:
		cfg := lzma.WriterConfig{DictCap: lzmaDictCap, EOSMarker: true}
		w, err := cfg.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("lzma writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lzma compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lzma close: %w", err)
		}
	case CompressionGzip:
		w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
	case CompressionZstd:
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			_ = enc.Close()
			return nil, fmt.Errorf("zstd compress: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("zstd close: %w", err)
		}
	default:
		return nil, &UnsupportedCompressionError{Algorithm: algo}
	}
	return buf.Bytes(), nil
}

// Decompress decodes data compressed with algo. sizeHint pre-sizes the
// output buffer; the result never exceeds MaxDecompressedSize.
func Decompress(data []byte, algo string, sizeHint uint64) ([]byte, error) {
	var (
		r   io.Reader
		err error
	)
	switch algo {
	case CompressionNone:
		return data, nil
	case CompressionLZMA:
		r, err = lzma.NewReader(bytes.NewReader(data))
	case CompressionGzip:
		var gz *gzip.Reader
		gz, err = gzip.NewReader(bytes.NewReader(data))
		if err == nil {
			defer gz.Close()
			r = gz
		}
	case CompressionZstd:
		var dec *zstd.Decoder
		dec, err = zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderMaxMemory(MaxDecompressedSize))
		if err == nil {
			defer dec.Close()
			r = dec
		}
	default:
		return nil, &UnsupportedCompressionError{Algorithm: algo}
	}
	if err != nil {
		return nil, fmt.Errorf("%s decoder: %w", algo, err)
	}
	return readBounded(r, sizeHint, algo)
}

func readBounded(r io.Reader, sizeHint uint64, algo string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(sizeHint, MaxDecompressedSize)))
	n, err := buf.ReadFrom(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", algo, err)
	}
	if n > MaxDecompressedSize {
		return nil, fmt.Errorf("%s decompress: output exceeds %d bytes", algo, MaxDecompressedSize)
	}
	return buf.Bytes(), nil
}
