package models

import "fmt"

// Patient is one validated patient_<k> folder.
type Patient struct {
	Index   int
	ID      string
	Path    string
	Studies []*Study
}

// Study is one validated study_<k> folder nested under a patient.
type Study struct {
	Index      int
	ID         string
	Path       string
	DicomFiles []*DicomFile
}

// DicomFile is one input file. FileID is its 1-based position in the sorted
// listing of the study folder.
type DicomFile struct {
	FileID    int
	Name      string
	FilePath  string
	PatientID string
	StudyID   string
}

// Key is the identifier triple shared by a table row and its image.
func (f *DicomFile) Key() string {
	return fmt.Sprintf("%s-%s-%d", f.PatientID, f.StudyID, f.FileID)
}

// Record is one row of the metadata table.
type Record struct {
	PatientID string
	StudyID   string
	FileID    int
	Values    map[string]string
}

// SkipKind tells why a file was left out of the output.
type SkipKind string

const (
	SkipUnreadable  SkipKind = "unreadable"
	SkipUnsupported SkipKind = "unsupported"
)

// Skip is one file excluded from the output, kept for the end-of-run report.
type Skip struct {
	Path   string
	Kind   SkipKind
	Reason string
}
