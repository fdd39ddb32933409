package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ikh/dicom-extraction/internal/models"
	"ikh/dicom-extraction/internal/orchestrator"
)

func init() {
	color.NoColor = true
}

func TestPrintSuccessWithSkips(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, &orchestrator.Summary{
		State:     orchestrator.StateDone,
		Records:   2,
		Images:    2,
		TablePath: "out/metadata.csv",
		ImageDir:  "out/images",
		Skipped: []models.Skip{
			{Path: "data/patient_1/study_1/b.dcm", Kind: models.SkipUnreadable, Reason: "not a DICOM file"},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[SUCCESS]")
	assert.Contains(t, out, "out/metadata.csv")
	assert.Contains(t, out, "out/images")
	assert.Contains(t, out, "1 files were skipped")
	assert.Contains(t, out, "data/patient_1/study_1/b.dcm")
	assert.Contains(t, out, "not a DICOM file")
	assert.Contains(t, out, "PHI")
}

func TestPrintWithoutSkips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, &orchestrator.Summary{State: orchestrator.StateDone}))
	assert.NotContains(t, buf.String(), "skipped")
}

func TestPrintFailed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, &orchestrator.Summary{State: orchestrator.StateFailed}))
	assert.Contains(t, buf.String(), "[FAILED]")
	assert.Contains(t, buf.String(), "FAILED")
	assert.NotContains(t, buf.String(), "[SUCCESS]")
}
