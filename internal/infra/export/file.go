package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmrzaf/datasanitizer/internal/domain"
)

const maxNameAttempts = 5

// FileExporter writes each snapshot to its own JSON file under dir.
type FileExporter struct {
	dir string
	now func() time.Time
}

func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{dir: dir, now: time.Now}
}

// WithClock replaces the time source used for artifact names.
func (e *FileExporter) WithClock(now func() time.Time) *FileExporter {
	e.now = now
	return e
}

// Export publishes the artifact with a hard link from a synced temp file, so
// readers never observe a partial file and an existing artifact is never
// replaced.
func (e *FileExporter) Export(ctx context.Context, tableName string, rows []domain.Row) (string, error) {
	data, err := Encode(rows)
	if err != nil {
		return "", exportErr(err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", exportErr(err)
	}

	tmp, err := os.CreateTemp(e.dir, ".export-*.tmp")
	if err != nil {
		return "", exportErr(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeSynced(tmp, data); err != nil {
		return "", exportErr(err)
	}

	base := ArtifactName(tableName, e.now())
	name := base
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		candidate := filepath.Join(e.dir, name)
		err := os.Link(tmpPath, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", exportErr(err)
		}
		name = withSuffix(base, uuid.NewString()[:8])
	}
	return "", exportErr(fmt.Errorf("could not find a free artifact name for table %s", tableName))
}

func writeSynced(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// withSuffix turns "t_20240101_000000.json" into "t_20240101_000000_ab12cd34.json".
func withSuffix(name, suffix string) string {
	return strings.TrimSuffix(name, ".json") + "_" + suffix + ".json"
}
