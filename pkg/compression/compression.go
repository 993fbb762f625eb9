// Package compression compresses archived job artifacts (program source
// and rendered normal forms) before they go to object storage. Normal
// forms of heavily shared graphs can blow up to many megabytes of
// highly repetitive text, which both gzip and zstd shrink dramatically;
// zstd is the default, gzip the fallback for readers without a zstd
// decoder.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Codec identifies a compression algorithm on the wire.
type Codec uint8

const (
	CodecGzip Codec = 0
	CodecZstd Codec = 1
	CodecNone Codec = 255
)

// Name returns the codec's conventional short name (also used as the
// artifact filename suffix).
func (c Codec) Name() string {
	switch c {
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	case CodecNone:
		return "none"
	default:
		return "unknown"
	}
}

// Compressor turns byte blobs into smaller byte blobs and back.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Codec() Codec
}

// gzipCompressor wraps compress/gzip at default compression.
type gzipCompressor struct{}

// NewGzip returns a gzip Compressor.
func NewGzip() Compressor {
	return gzipCompressor{}
}

func (gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip open: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (gzipCompressor) Codec() Codec { return CodecGzip }

// zstdCompressor holds a reusable encoder/decoder pair; both are safe
// for concurrent use via EncodeAll/DecodeAll.
type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd returns a zstd Compressor, or an error if the encoder cannot
// be constructed.
func NewZstd() (Compressor, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (c *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.dec.DecodeAll(data, nil)
}

func (c *zstdCompressor) Codec() Codec { return CodecZstd }

// noneCompressor passes blobs through untouched, for callers that want
// the Compressor plumbing with compression switched off.
type noneCompressor struct{}

// NewNone returns the pass-through Compressor.
func NewNone() Compressor {
	return noneCompressor{}
}

func (noneCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

func (noneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

func (noneCompressor) Codec() Codec { return CodecNone }

// Default returns the preferred archive compressor: zstd, or gzip if
// zstd setup fails.
func Default() Compressor {
	if c, err := NewZstd(); err == nil {
		return c
	}
	return NewGzip()
}

// New constructs a Compressor for an explicitly requested codec.
func New(codec Codec) (Compressor, error) {
	switch codec {
	case CodecZstd:
		return NewZstd()
	case CodecGzip:
		return NewGzip(), nil
	case CodecNone:
		return NewNone(), nil
	default:
		return nil, fmt.Errorf("unknown compression codec %d", codec)
	}
}

// Detect identifies a blob's codec from its magic bytes. Blobs matching
// neither magic are reported as CodecNone (stored uncompressed).
func Detect(data []byte) Codec {
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		return CodecZstd
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return CodecGzip
	}
	return CodecNone
}

// AutoDecompress detects a blob's codec and decompresses accordingly;
// unrecognized blobs come back unchanged.
func AutoDecompress(data []byte) ([]byte, error) {
	c, err := New(Detect(data))
	if err != nil {
		return nil, err
	}
	defer Close(c)
	return c.Decompress(data)
}

// Close releases a Compressor's resources if it holds any.
func Close(c Compressor) {
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Close releases the zstd encoder/decoder pair.
func (c *zstdCompressor) Close() {
	c.enc.Close()
	c.dec.Close()
}
