package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"ikh/dicom-extraction/internal/dicomtest"
)

func writeScan(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	im := dicomtest.Gray16(dicomtest.Attr{Tag: tag.PatientAge, Value: "45"})
	require.NoError(t, dicomtest.Write(path, im))
}

func TestRunSuccess(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	writeScan(t, root, "patient_1/study_1/a.dcm")
	out := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-out", out, root}, &stdout, &stderr)

	assert.Equal(t, exitOK, code, stderr.String())
	assert.FileExists(t, filepath.Join(out, "metadata.csv"))
	assert.FileExists(t, filepath.Join(out, "images", "patient_1-study_1-1.png"))
	assert.Contains(t, stdout.String(), "[SUCCESS]")
}

func TestRunDefaultAllowList(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(root, "patient_1", "study_1", "a.dcm")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	im := dicomtest.Gray16(
		dicomtest.Attr{Tag: tag.PatientAge, Value: "45"},
		dicomtest.Attr{Tag: tag.PatientName, Value: "Doe^Jane"},
	)
	require.NoError(t, dicomtest.Write(path, im))
	out := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, run([]string{"-out", out, root}, &stdout, &stderr), stderr.String())

	f, err := os.Open(filepath.Join(out, "metadata.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header, row := rows[0], rows[1]
	assert.Equal(t, []string{"patient_id", "study_id", "filename_id"}, header[:3])
	assert.Equal(t, []string{"patient_1", "study_1", "1"}, row[:3])
	assert.NotContains(t, header, "PatientName")
	assert.NotContains(t, header, "age")
	for i, col := range header {
		if col == "PatientAge" {
			assert.Equal(t, "45", row[i])
			return
		}
	}
	t.Fatalf("no PatientAge column in %v", header)
}

func TestRunStructureError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	writeScan(t, root, "patient_1/study_9/a.dcm")
	out := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-out", out, root}, &stdout, &stderr)

	assert.Equal(t, exitStructure, code)
	assert.NoDirExists(t, out)
}

func TestRunUsageErrors(t *testing.T) {
	dir := t.TempDir()
	badConfig := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badConfig, []byte("image_format: [png"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"two positional args", []string{"a", "b"}},
		{"bad config file", []string{"-config", badConfig}},
		{"missing config file", []string{"-config", filepath.Join(dir, "missing.yaml")}},
		{"bad image format", []string{"-image_format", "jpeg", dir}},
		{"missing tags file", []string{"-tags", filepath.Join(dir, "missing.csv"), dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, exitUsage, run(tt.args, &stdout, &stderr))
		})
	}
}

func TestRunConfigFileWithFlagOverride(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	writeScan(t, root, "patient_1/study_1/a.dcm")
	out := filepath.Join(t.TempDir(), "out")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "data_dir: " + root + "\noutput_dir: " + out + "\nimage_format: png\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "-image_format", "tiff"}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.FileExists(t, filepath.Join(out, "images", "patient_1-study_1-1.tiff"))
}
