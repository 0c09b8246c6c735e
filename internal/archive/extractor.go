// Package archive unpacks uploaded note archives onto local disk.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrManifestMissing is returned when an archive holds no *.json member.
	ErrManifestMissing = errors.New("no manifest found in archive")
	// ErrTooLarge is returned when extracted content exceeds the configured limit.
	ErrTooLarge = errors.New("archive exceeds extraction limit")
	// ErrUnsupportedFormat is returned when the payload is neither gzip nor zstd.
	ErrUnsupportedFormat = errors.New("unsupported archive compression")
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DecodeError reports a payload that could not be decompressed or unpacked.
type DecodeError struct {
	Member string // tar member being processed, empty for stream-level failures
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("decode archive member %s: %v", e.Member, e.Err)
	}
	return fmt.Sprintf("decode archive: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Extraction describes the files written for one upload.
type Extraction struct {
	Dir          string   // Per-day extraction directory
	ManifestPath string   // First extracted member ending in .json
	Files        []string // Every extracted file, in archive order
	Bytes        int64    // Total bytes written
}

// Extractor writes archive members under root/<YYYY-MM-DD>.
//
// Uploads on the same day share a directory and later files overwrite
// earlier ones with the same name.
type Extractor struct {
	root     string
	maxBytes int64
	now      func() time.Time
}

// NewExtractor creates an Extractor. maxBytes <= 0 disables the size limit.
func NewExtractor(root string, maxBytes int64) *Extractor {
	return &Extractor{
		root:     root,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// DirFor returns the extraction directory used for uploads at t.
func (e *Extractor) DirFor(t time.Time) string {
	return filepath.Join(e.root, t.Format("2006-01-02"))
}

// Extract decompresses r (gzip or zstd), unpacks every regular file into the
// day's directory and locates the manifest.
//
// Members whose path would land outside the directory are rejected, as is any
// archive whose content exceeds the extraction limit. The context is checked
// between members.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) (*Extraction, error) {
	stream, closeStream, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer closeStream()

	dir := e.DirFor(e.now())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	ext := &Extraction{Dir: dir}
	tr := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Err: err}
		}

		if !header.FileInfo().Mode().IsRegular() {
			continue
		}

		target, err := memberPath(dir, header.Name)
		if err != nil {
			return nil, &DecodeError{Member: header.Name, Err: err}
		}

		n, err := e.writeMember(target, tr, ext.Bytes)
		ext.Bytes += n
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				decodeErr.Member = header.Name
			}
			return nil, err
		}

		ext.Files = append(ext.Files, target)
		if ext.ManifestPath == "" && strings.HasSuffix(header.Name, ".json") {
			ext.ManifestPath = target
		}
	}

	if ext.ManifestPath == "" {
		return nil, ErrManifestMissing
	}
	return ext, nil
}

func (e *Extractor) writeMember(target string, src io.Reader, written int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}

	var n int64
	if e.maxBytes > 0 {
		remaining := e.maxBytes - written
		n, err = io.CopyN(out, src, remaining+1)
		if err == nil || n > remaining {
			_ = out.Close()
			return n, &DecodeError{Err: ErrTooLarge}
		}
		if errors.Is(err, io.EOF) {
			err = nil
		}
	} else {
		n, err = io.Copy(out, src)
	}
	if err != nil {
		_ = out.Close()
		return n, &DecodeError{Err: err}
	}

	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return n, nil
}

// memberPath resolves a tar member name inside dir.
func memberPath(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(name, "/")))
	if clean == "." || clean == "" {
		return "", errors.New("empty member name")
	}

	target := filepath.Join(dir, clean)
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("member path escapes extraction directory: %s", name)
	}
	return target, nil
}

// decompress sniffs the compression format from the magic bytes.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && len(magic) < len(gzipMagic) {
		return nil, nil, &DecodeError{Err: ErrUnsupportedFormat}
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, &DecodeError{Err: err}
		}
		return gz, func() { _ = gz.Close() }, nil
	case bytes.HasPrefix(magic, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, &DecodeError{Err: err}
		}
		return dec, dec.Close, nil
	default:
		return nil, nil, &DecodeError{Err: ErrUnsupportedFormat}
	}
}
