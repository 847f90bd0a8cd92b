// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// LinePolicy decides what a reader does with an unparseable line.
type LinePolicy uint8

const (
	// Strict aborts the read at the first bad line. No events are
	// returned.
	Strict LinePolicy = iota
	// Skip logs each bad line at warn level, records it in
	// [Log.Skipped], and keeps reading.
	Skip
)

func (policy LinePolicy) String() string {
	if policy == Skip {
		return "skip"
	}
	return "strict"
}

// ParseLinePolicy parses "strict" or "skip". The empty string is Strict.
func ParseLinePolicy(text string) (LinePolicy, error) {
	switch text {
	case "", "strict":
		return Strict, nil
	case "skip":
		return Skip, nil
	default:
		return Strict, fmt.Errorf("unknown line policy %q (want strict or skip)", text)
	}
}

// ReadOptions configures [Read] and [FromFile].
type ReadOptions struct {
	Policy LinePolicy

	// Logger receives skipped line warnings. Nil discards.
	Logger *slog.Logger
}

// LineError reports an unparseable log line.
type LineError struct {
	// Line is the 1-based line number in the decompressed stream.
	Line int
	Text string
	Err  error
}

func (err *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", err.Line, err.Err)
}

func (err *LineError) Unwrap() error {
	return err.Err
}

// Log is the result of reading a decision log.
type Log struct {
	Events []Event

	// Skipped holds the lines dropped under the Skip policy.
	Skipped []*LineError
}

const maxLineLength = 1024 * 1024

// FromFile reads the decision log at path. Compressed rotations are
// decompressed transparently. Failing to open the file fails the whole
// read.
func FromFile(path string, options ReadOptions) (*Log, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer file.Close()

	log, err := Read(file, options)
	if err != nil {
		return nil, fmt.Errorf("reading event log %s: %w", path, err)
	}
	return log, nil
}

// Read parses a decision log from reader. Blank lines and lines
// starting with '#' are ignored.
func Read(reader io.Reader, options ReadOptions) (*Log, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	decompressed, closeFn, err := decompress(reader)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	scanner := bufio.NewScanner(decompressed)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	log := &Log{}
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		event, err := ParseLine(line)
		if err != nil {
			lineError := &LineError{Line: lineNumber, Text: line, Err: err}
			if options.Policy == Strict {
				return nil, lineError
			}
			logger.Warn("skipping unparseable event line",
				"line", lineNumber,
				"error", err,
			)
			log.Skipped = append(log.Skipped, lineError)
			continue
		}
		log.Events = append(log.Events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return log, nil
}

// Compression is the encoding of a decision log stream.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionGzip
	CompressionLZ4
)

func (compression Compression) String() string {
	switch compression {
	case CompressionZstd:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// DetectCompression identifies a stream by its leading bytes.
func DetectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(header, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

func decompress(reader io.Reader) (io.Reader, func(), error) {
	buffered := bufio.NewReader(reader)
	// Peek errors only mean the stream is shorter than the magic.
	header, _ := buffered.Peek(4)

	switch compression := DetectCompression(header); compression {
	case CompressionZstd:
		decoder, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return decoder, decoder.Close, nil
	case CompressionGzip:
		decoder, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return decoder, func() { decoder.Close() }, nil
	case CompressionLZ4:
		return lz4.NewReader(buffered), func() {}, nil
	default:
		return buffered, func() {}, nil
	}
}
