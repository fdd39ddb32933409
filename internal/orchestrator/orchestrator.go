package orchestrator

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"ikh/dicom-extraction/internal/config"
	"ikh/dicom-extraction/internal/extract"
	"ikh/dicom-extraction/internal/models"
)

// TreeValidator checks the input layout before anything is read.
type TreeValidator interface {
	Validate(root string) ([]*models.Patient, error)
}

// FileExtractor reads one input file into table cells and a raster.
type FileExtractor interface {
	File(path string) (map[string]string, image.Image, error)
}

// Summary describes a finished or failed run.
type Summary struct {
	State     State
	Records   int
	Images    int
	Skipped   []models.Skip
	TablePath string
	ImageDir  string
}

// Orchestrator runs one extraction over a data directory. It is single use.
type Orchestrator struct {
	cfg       *config.Config
	validator TreeValidator
	extractor FileExtractor
	columns   []string
	log       *zap.Logger
	state     State
}

// New builds an orchestrator. columns is the allow-list column order.
func New(cfg *config.Config, v TreeValidator, x FileExtractor, columns []string, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		validator: v,
		extractor: x,
		columns:   columns,
		log:       log,
		state:     StateInit,
	}
}

func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) moveTo(to State) {
	if !o.state.canMoveTo(to) {
		panic(fmt.Sprintf("illegal state transition %s -> %s", o.state, to))
	}
	o.log.Debug("state", zap.Stringer("from", o.state), zap.Stringer("to", to))
	o.state = to
}

// Run validates the tree, extracts every file in index then name order and
// writes the table once at the end. Per-file failures are skipped and listed
// in the summary; a StructureError or OutputError fails the run.
func (o *Orchestrator) Run() (*Summary, error) {
	if o.state != StateInit {
		return nil, ErrAlreadyRun
	}
	summary := &Summary{
		TablePath: o.cfg.MetadataPath(),
		ImageDir:  o.cfg.ImagePath(),
	}
	fail := func(err error) (*Summary, error) {
		o.moveTo(StateFailed)
		summary.State = o.state
		return summary, err
	}

	o.moveTo(StateValidating)
	patients, err := o.validator.Validate(o.cfg.DataDir)
	if err != nil {
		return fail(err)
	}

	o.moveTo(StateExtracting)
	encode, ext, err := encoderFor(o.cfg.ImageFormat)
	if err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(summary.ImageDir, 0o755); err != nil {
		return fail(&OutputError{Op: "create output directory", Path: summary.ImageDir, Err: err})
	}

	var records []models.Record
	for _, patient := range patients {
		for _, study := range patient.Studies {
			for _, file := range study.DicomFiles {
				cells, img, err := o.extractor.File(file.FilePath)
				if err != nil {
					summary.Skipped = append(summary.Skipped, o.skip(file, err))
					continue
				}

				imgPath := filepath.Join(summary.ImageDir, file.Key()+"."+ext)
				if err := writeImage(imgPath, img, encode); err != nil {
					return fail(err)
				}
				summary.Images++

				records = append(records, models.Record{
					PatientID: file.PatientID,
					StudyID:   file.StudyID,
					FileID:    file.FileID,
					Values:    cells,
				})
				o.log.Debug("processed file",
					zap.String("path", file.FilePath),
					zap.String("id", file.Key()))
			}
		}
	}

	o.moveTo(StateFinalizing)
	if err := writeTable(summary.TablePath, tableColumns(o.columns, records), records); err != nil {
		return fail(err)
	}
	summary.Records = len(records)

	o.log.Info("metadata written", zap.String("path", summary.TablePath), zap.Int("records", summary.Records))
	o.log.Info("images written", zap.String("dir", summary.ImageDir), zap.Int("images", summary.Images))

	o.moveTo(StateDone)
	summary.State = o.state
	return summary, nil
}

func (o *Orchestrator) skip(file *models.DicomFile, err error) models.Skip {
	var unsupported *extract.UnsupportedPixelFormatError
	if errors.As(err, &unsupported) {
		o.log.Warn("skipping file with unsupported pixel format",
			zap.String("path", file.FilePath),
			zap.String("reason", unsupported.Reason))
		return models.Skip{Path: file.FilePath, Kind: models.SkipUnsupported, Reason: unsupported.Reason}
	}

	o.log.Error("skipping unreadable file", zap.String("path", file.FilePath), zap.Error(err))
	reason := err.Error()
	var unreadable *extract.UnreadableImageError
	if errors.As(err, &unreadable) {
		reason = unreadable.Err.Error()
	}
	return models.Skip{Path: file.FilePath, Kind: models.SkipUnreadable, Reason: reason}
}
