// Package mdd reads and writes MDD containers.
//
// Layout on disk:
//
//	bytes 0..19  magic "MDD version 0" padded with spaces, NUL terminated
//	bytes 20..   protobuf MddFile envelope
//
// The envelope carries header strings, a metadata map and an ordered list of
// chunks. Each chunk is compressed on its own (lzma, gzip, zstd or not at
// all) and signed over its uncompressed bytes with SHA-512, so a reader can
// verify after decompression without touching the compressed form.
//
// Chunks of unknown vendor types (>= 1024) are kept byte-for-byte and written
// back unchanged.
package mdd
