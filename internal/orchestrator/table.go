package orchestrator

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"ikh/dicom-extraction/internal/models"
)

// Identifier columns lead every row.
const (
	ColumnPatientID = "patient_id"
	ColumnStudyID   = "study_id"
	ColumnFileID    = "filename_id"
)

// tableColumns keeps the allow-list order and drops columns no record has a
// value for.
func tableColumns(allowed []string, records []models.Record) []string {
	cols := []string{ColumnPatientID, ColumnStudyID, ColumnFileID}
	for _, c := range allowed {
		for _, r := range records {
			if _, ok := r.Values[c]; ok {
				cols = append(cols, c)
				break
			}
		}
	}
	return cols
}

// writeTable writes the whole table to a temporary file next to path and
// renames it into place, so path never holds a partial table.
func writeTable(path string, columns []string, records []models.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &OutputError{Op: "create table", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		tmp.Close()
		return &OutputError{Op: "write table", Path: path, Err: err}
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			switch c {
			case ColumnPatientID:
				row[i] = r.PatientID
			case ColumnStudyID:
				row[i] = r.StudyID
			case ColumnFileID:
				row[i] = strconv.Itoa(r.FileID)
			default:
				row[i] = r.Values[c]
			}
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return &OutputError{Op: "write table", Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return &OutputError{Op: "write table", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &OutputError{Op: "close table", Path: path, Err: err}
	}
	// CreateTemp makes the file 0600.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &OutputError{Op: "chmod table", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &OutputError{Op: "rename table", Path: path, Err: err}
	}
	return nil
}
