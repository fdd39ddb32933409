package validator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ikh/dicom-extraction/internal/config"
)

// makeTree creates every path under root. Paths ending in "/" are folders,
// anything else is a small file.
func makeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if p[len(p)-1] == '/' {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
}

func newValidator() *Validator {
	return New(config.Default(), zap.NewNop())
}

func TestValidateOrdersByIndexThenName(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root,
		"patient_10/study_1/z.dcm",
		"patient_2/study_2/b.dcm",
		"patient_2/study_2/a.dcm",
		"patient_2/study_1/c.dcm",
		"patient_1/study_1/x.dcm",
	)

	patients, err := newValidator().Validate(root)
	require.NoError(t, err)
	require.Len(t, patients, 3)

	assert.Equal(t, []string{"patient_1", "patient_2", "patient_10"},
		[]string{patients[0].ID, patients[1].ID, patients[2].ID})

	p2 := patients[1]
	require.Len(t, p2.Studies, 2)
	assert.Equal(t, "study_1", p2.Studies[0].ID)
	assert.Equal(t, "study_2", p2.Studies[1].ID)

	files := p2.Studies[1].DicomFiles
	require.Len(t, files, 2)
	assert.Equal(t, "a.dcm", files[0].Name)
	assert.Equal(t, 1, files[0].FileID)
	assert.Equal(t, "b.dcm", files[1].Name)
	assert.Equal(t, 2, files[1].FileID)
	assert.Equal(t, "patient_2", files[1].PatientID)
	assert.Equal(t, "study_2", files[1].StudyID)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		kind  Kind
	}{
		{name: "bad patient name", paths: []string{"subject_1/study_1/a.dcm"}, kind: BadName},
		{name: "leading zero", paths: []string{"patient_01/study_1/a.dcm"}, kind: BadName},
		{name: "patient zero", paths: []string{"patient_0/study_1/a.dcm"}, kind: BadName},
		{name: "patient out of range", paths: []string{"patient_501/study_1/a.dcm"}, kind: OutOfRange},
		{name: "huge index", paths: []string{"patient_99999999999999999999999/study_1/a.dcm"}, kind: OutOfRange},
		{name: "study out of range", paths: []string{"patient_1/study_3/a.dcm"}, kind: OutOfRange},
		{name: "bad study name", paths: []string{"patient_1/series_1/a.dcm"}, kind: BadName},
		{name: "file in root", paths: []string{"patient_1/study_1/a.dcm", "notes.txt"}, kind: UnexpectedFile},
		{name: "file in patient", paths: []string{"patient_1/study_1/a.dcm", "patient_1/a.dcm"}, kind: UnexpectedFile},
		{name: "nested in study", paths: []string{"patient_1/study_1/deeper/a.dcm"}, kind: UnexpectedNesting},
		{name: "empty study", paths: []string{"patient_1/study_1/a.dcm", "patient_1/study_2/"}, kind: Empty},
		{name: "patient without studies", paths: []string{"patient_1/study_1/a.dcm", "patient_2/"}, kind: Empty},
		{name: "study with hidden files only", paths: []string{"patient_1/study_1/.DS_Store"}, kind: Empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			makeTree(t, root, tt.paths...)

			patients, err := newValidator().Validate(root)
			require.Error(t, err)
			assert.Nil(t, patients)

			var se *StructureError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.kind, se.Kind)
		})
	}
}

func TestValidateEmptyAndMissingRoot(t *testing.T) {
	var se *StructureError

	_, err := newValidator().Validate(t.TempDir())
	require.True(t, errors.As(err, &se))
	assert.Equal(t, Empty, se.Kind)

	_, err = newValidator().Validate(filepath.Join(t.TempDir(), "missing"))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, NotDirectory, se.Kind)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = newValidator().Validate(file)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, NotDirectory, se.Kind)
}

func TestValidateHiddenEntries(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root,
		".DS_Store",
		"patient_1/.hidden/",
		"patient_1/study_1/.DS_Store",
		"patient_1/study_1/a.dcm",
	)

	patients, err := newValidator().Validate(root)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	files := patients[0].Studies[0].DicomFiles
	require.Len(t, files, 1)
	assert.Equal(t, "a.dcm", files[0].Name)
	assert.Equal(t, 1, files[0].FileID)

	v := newValidator()
	v.IgnoreHidden = false
	_, err = v.Validate(root)
	assert.Error(t, err)
}

func TestValidateCustomBounds(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "patient_3/study_5/a.dcm")

	cfg := config.Default()
	cfg.MaxPatientIndex = 3
	cfg.MaxStudyIndex = 5
	_, err := New(cfg, zap.NewNop()).Validate(root)
	assert.NoError(t, err)

	cfg.MaxPatientIndex = 2
	_, err = New(cfg, zap.NewNop()).Validate(root)
	var se *StructureError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, OutOfRange, se.Kind)
}

func TestValidateReportsEveryViolation(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "patient_x/study_1/a.dcm", "patient_1/study_9/a.dcm")

	_, err := newValidator().Validate(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patient_x")
	assert.Contains(t, err.Error(), "study_9")
}
