package validator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ikh/dicom-extraction/internal/config"
	"ikh/dicom-extraction/internal/models"
)

const (
	patientPrefix = "patient_"
	studyPrefix   = "study_"
)

var (
	patientPattern = regexp.MustCompile(`^patient_([1-9][0-9]*)$`)
	studyPattern   = regexp.MustCompile(`^study_([1-9][0-9]*)$`)
)

// Validator checks the input tree and returns it in index order. It only
// lists directories and never opens the files under them.
type Validator struct {
	MaxPatientIndex int
	MaxStudyIndex   int
	IgnoreHidden    bool
	log             *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Validator {
	return &Validator{
		MaxPatientIndex: cfg.MaxPatientIndex,
		MaxStudyIndex:   cfg.MaxStudyIndex,
		IgnoreHidden:    cfg.IgnoreHidden,
		log:             log,
	}
}

// Validate walks root and returns every patient, study and file. Any
// violation fails the whole tree; all violations found are returned joined,
// each one a *StructureError.
func (v *Validator) Validate(root string) ([]*models.Patient, error) {
	v.log.Info("validating folder structure", zap.String("root", root))

	if err := requireDir(root); err != nil {
		return nil, err
	}

	entries, err := v.list(root)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &StructureError{Path: root, Kind: Empty, Detail: "no patient folders"}
	}

	var (
		patients []*models.Patient
		errs     []error
	)
	for _, entry := range entries {
		path := filepath.Join(root, entry)
		index, err := v.folderIndex(path, entry, patientPrefix, patientPattern, v.MaxPatientIndex)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		patient := &models.Patient{Index: index, ID: entry, Path: path}
		studyErrs := v.readStudies(patient)
		if len(studyErrs) > 0 {
			errs = append(errs, studyErrs...)
			continue
		}
		patients = append(patients, patient)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(patients, func(i, j int) bool { return patients[i].Index < patients[j].Index })

	files := 0
	for _, p := range patients {
		for _, s := range p.Studies {
			files += len(s.DicomFiles)
		}
	}
	v.log.Info("folder structure valid",
		zap.Int("patients", len(patients)),
		zap.Int("files", files))

	return patients, nil
}

func (v *Validator) readStudies(patient *models.Patient) []error {
	entries, err := v.list(patient.Path)
	if err != nil {
		return []error{err}
	}

	if len(entries) == 0 {
		return []error{&StructureError{Path: patient.Path, Kind: Empty, Detail: "no study folders"}}
	}

	var errs []error
	for _, entry := range entries {
		path := filepath.Join(patient.Path, entry)
		index, err := v.folderIndex(path, entry, studyPrefix, studyPattern, v.MaxStudyIndex)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		study := &models.Study{Index: index, ID: entry, Path: path}
		if fileErrs := v.readFiles(patient, study); len(fileErrs) > 0 {
			errs = append(errs, fileErrs...)
			continue
		}
		patient.Studies = append(patient.Studies, study)
	}

	sort.Slice(patient.Studies, func(i, j int) bool {
		return patient.Studies[i].Index < patient.Studies[j].Index
	})
	return errs
}

func (v *Validator) readFiles(patient *models.Patient, study *models.Study) []error {
	entries, err := v.list(study.Path)
	if err != nil {
		return []error{err}
	}

	if len(entries) == 0 {
		return []error{&StructureError{Path: study.Path, Kind: Empty, Detail: "no files"}}
	}

	var errs []error
	for i, entry := range entries {
		path := filepath.Join(study.Path, entry)
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, &StructureError{Path: path, Kind: UnexpectedFile, Detail: err.Error()})
			continue
		}
		if info.IsDir() {
			errs = append(errs, &StructureError{Path: path, Kind: UnexpectedNesting, Detail: "study folders hold files only"})
			continue
		}
		study.DicomFiles = append(study.DicomFiles, &models.DicomFile{
			FileID:    i + 1,
			Name:      entry,
			FilePath:  path,
			PatientID: patient.ID,
			StudyID:   study.ID,
		})
	}
	return errs
}

// folderIndex checks that path is a directory named <prefix><k> with k in
// [1, limit] and returns k.
func (v *Validator) folderIndex(path, name, prefix string, pattern *regexp.Regexp, limit int) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, &StructureError{Path: path, Kind: UnexpectedFile, Detail: err.Error()}
	}
	if !info.IsDir() {
		return 0, &StructureError{Path: path, Kind: UnexpectedFile, Detail: fmt.Sprintf("expected a %s<k> folder", prefix)}
	}

	m := pattern.FindStringSubmatch(name)
	if m == nil {
		return 0, &StructureError{Path: path, Kind: BadName, Detail: fmt.Sprintf("expected %s<k> with k >= 1 and no leading zeros", prefix)}
	}
	index, err := strconv.Atoi(m[1])
	if err != nil || index > limit {
		return 0, &StructureError{Path: path, Kind: OutOfRange, Detail: fmt.Sprintf("%s index must be in [1, %d]", strings.TrimSuffix(prefix, "_"), limit)}
	}
	return index, nil
}

// list returns the entry names of dir in lexical order.
func (v *Validator) list(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &StructureError{Path: dir, Kind: NotDirectory, Detail: err.Error()}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if v.IgnoreHidden && strings.HasPrefix(e.Name(), ".") {
			v.log.Debug("ignoring hidden entry", zap.String("path", filepath.Join(dir, e.Name())))
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &StructureError{Path: path, Kind: NotDirectory, Detail: err.Error()}
	}
	if !info.IsDir() {
		return &StructureError{Path: path, Kind: NotDirectory}
	}
	return nil
}
