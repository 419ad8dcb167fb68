package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"heartbeatmonitor/internal/models"
)

// EncodeAlerts writes alerts as a JSON array. An empty list renders as [].
func EncodeAlerts(w io.Writer, alerts []models.Alert, pretty bool) error {
	if alerts == nil {
		alerts = []models.Alert{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(alerts); err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}
	return nil
}

// SaveAlerts replaces the file at path with the encoded alerts. The write goes
// to a temporary file first so readers never observe a partial report.
func SaveAlerts(path string, alerts []models.Alert, pretty bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := EncodeAlerts(&buf, alerts, pretty); err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace report file: %w", err)
	}
	return nil
}
