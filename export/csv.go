// Package export writes query frames to disk for backups and offline
// analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"influxkit/influx"
	"influxkit/infrastructure/log"
)

var logger = log.NewLogger("export")

const timeLayout = "2006-01-02T15:04:05.999999999"

// SanitizeFilename keeps letters, digits, dash, underscore and dot; every
// other rune becomes an underscore. Series names carry "k=v" tag pairs, so
// this keeps them filesystem-safe on every platform.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "unnamed"
	}
	return out
}

// BackupDir returns a dated subdirectory of root, so repeated exports land
// in per-day folders.
func BackupDir(root string) string {
	return filepath.Join(root, time.Now().UTC().Format("2006-01-02"))
}

// WriteCSV stores the frame as <dir>/<name>.csv, creating the directory if
// needed, and returns the full path. Timestamps are written without a zone
// suffix; NaN cells come out as empty strings.
func WriteCSV(frame *influx.Frame, dir, name string) (string, error) {
	if frame == nil {
		return "", &influx.ValidationError{Message: "frame is required"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create export directory: %w", err)
	}
	path := filepath.Join(dir, SanitizeFilename(name)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("cannot create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	columns := frame.Columns()
	if err := w.Write(columns); err != nil {
		return "", err
	}
	row := make([]string, len(columns))
	for i := 0; i < frame.Len(); i++ {
		for j, col := range columns {
			if col == influx.TimeColumn {
				row[j] = frame.Time(i).Format(timeLayout)
				continue
			}
			row[j] = formatCell(frame.Value(col, i))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	logger.WithField("path", path).WithField("rows", frame.Len()).Info("frame exported")
	return path, nil
}

func formatCell(v interface{}) string {
	if influx.IsNaN(v) {
		return ""
	}
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(timeLayout)
	default:
		return fmt.Sprintf("%v", val)
	}
}
