package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDicomFileKey(t *testing.T) {
	f := &DicomFile{FileID: 3, PatientID: "patient_12", StudyID: "study_2"}
	assert.Equal(t, "patient_12-study_2-3", f.Key())
}
