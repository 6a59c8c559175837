package photo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// maxFileBytes bounds a single photo read from disk.
const maxFileBytes = 25 << 20

// Source is a selected photo that can be read on demand.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource string

// File returns a Source backed by a file on disk.
func File(path string) Source {
	return fileSource(path)
}

func (f fileSource) Name() string { return filepath.Base(string(f)) }

func (f fileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

type bytesSource struct {
	name string
	data []byte
}

// Bytes returns a Source backed by an in-memory image.
func Bytes(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (b bytesSource) Name() string { return b.name }

func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// Encode reads a source and returns it as a data URI.
func Encode(src Source) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src.Name(), err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing %s: %v\n", src.Name(), cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(rc, maxFileBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("reading %s: %w", src.Name(), ErrEmpty)
	}
	if len(data) > maxFileBytes {
		return "", fmt.Errorf("reading %s: larger than %d MB", src.Name(), maxFileBytes>>20)
	}
	return DataURI(data), nil
}

// EncodeAll encodes sources concurrently. Results are returned in input
// order regardless of completion order; the first failure cancels the
// remaining reads and is returned.
func EncodeAll(ctx context.Context, srcs []Source) ([]string, error) {
	out := make([]string, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			uri, err := Encode(src)
			if err != nil {
				return err
			}
			out[i] = uri
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
