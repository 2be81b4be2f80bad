package eventlog

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// Compression is the container format detected on an input file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionXZ
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// openFile allows tests to stub file access.
var openFile = func(path string) (io.ReadCloser, error) { return os.Open(path) }

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open returns a reader over the decompressed contents of path. The container is
// detected from magic bytes, so a renamed archive still opens correctly.
func Open(path string) (io.ReadCloser, Compression, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, CompressionNone, err
	}
	br := bufio.NewReader(f)
	header, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		f.Close()
		return nil, CompressionNone, fmt.Errorf("read header of %s: %w", path, err)
	}

	switch {
	case bytes.HasPrefix(header, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, CompressionNone, fmt.Errorf("gzip reader for %s: %w", path, err)
		}
		return &stackedReader{Reader: gz, closers: []io.Closer{gz, f}}, CompressionGzip, nil
	case bytes.HasPrefix(header, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			f.Close()
			return nil, CompressionNone, fmt.Errorf("xz reader for %s: %w", path, err)
		}
		return &stackedReader{Reader: xr, closers: []io.Closer{f}}, CompressionXZ, nil
	}
	return &stackedReader{Reader: br, closers: []io.Closer{f}}, CompressionNone, nil
}
