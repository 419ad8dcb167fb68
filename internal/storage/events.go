package storage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"heartbeatmonitor/internal/models"
)

// StdinPath selects standard input as the event source.
const StdinPath = "-"

const maxLineSize = 1 << 20

// Format identifies how an event source is encoded.
type Format int

const (
	// FormatJSON is a single JSON array of records.
	FormatJSON Format = iota
	// FormatNDJSON is one JSON record per line.
	FormatNDJSON
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown events format")

// ParseFormat maps "json" or "ndjson" to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	default:
		return FormatJSON, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatForPath picks NDJSON for .ndjson/.jsonl files and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	default:
		return FormatJSON
	}
}

// DecodeEvents reads every raw record from r.
func DecodeEvents(r io.Reader, format Format) ([]models.RawEvent, error) {
	if format == FormatNDJSON {
		return decodeLines(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var events []models.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	return events, nil
}

// decodeLines keeps malformed lines as empty records so validation counts them.
func decodeLines(r io.Reader) ([]models.RawEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var events []models.RawEvent
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event models.RawEvent
		if err := json.Unmarshal(line, &event); err != nil {
			event = models.RawEvent{}
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// FileSource loads heartbeat records from a file or standard input.
// A missing file yields no records.
type FileSource struct {
	path   string
	format Format
	stdin  io.Reader
	logger *zap.Logger
}

// NewFileSource creates a source for path, inferring the format from its extension.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{
		path:   path,
		format: FormatForPath(path),
		stdin:  os.Stdin,
		logger: logger,
	}
}

// WithFormat overrides the inferred format.
func (s *FileSource) WithFormat(format Format) *FileSource {
	s.format = format
	return s
}

// WithStdin replaces the reader used for StdinPath.
func (s *FileSource) WithStdin(r io.Reader) *FileSource {
	s.stdin = r
	return s
}

// Name returns the configured path.
func (s *FileSource) Name() string {
	return s.path
}

// Load reads and decodes the whole source.
func (s *FileSource) Load(ctx context.Context) ([]models.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == StdinPath {
		return DecodeEvents(s.stdin, s.format)
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("events source not found, treating as empty", zap.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	return DecodeEvents(f, s.format)
}
