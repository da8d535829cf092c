// Package export writes row snapshots to durable storage before deletion.
package export

import (
	"encoding/json"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/domain"
)

const timestampLayout = "20060102_150405"

// ArtifactName is the base name of an export: {table}_{YYYYMMDD_HHMMSS}.json in UTC.
func ArtifactName(tableName string, at time.Time) string {
	return tableName + "_" + at.UTC().Format(timestampLayout) + ".json"
}

// Encode renders rows as an indented JSON array. An empty snapshot is "[]".
func Encode(rows []domain.Row) ([]byte, error) {
	if rows == nil {
		rows = []domain.Row{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func exportErr(err error) error {
	return domain.NewError(domain.ExportFailed, "export", err)
}
