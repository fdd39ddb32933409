package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/suyashkumar/dicom"
)

const (
	preambleLen = 128
	magicWord   = "DICM"
)

// Decoder is the DICOM reading capability handed to the extractors.
type Decoder interface {
	Decode(path string) (dicom.Dataset, error)
}

// FileDecoder parses Part-10 files from disk. Each call opens and closes the
// file before it returns.
type FileDecoder struct{}

func NewDecoder() *FileDecoder {
	return &FileDecoder{}
}

// Decode returns the full dataset, pixel data included. All failures are
// *UnreadableImageError.
func (d *FileDecoder) Decode(path string) (ds dicom.Dataset, err error) {
	f, err := os.Open(path)
	if err != nil {
		return dicom.Dataset{}, &UnreadableImageError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return dicom.Dataset{}, &UnreadableImageError{Path: path, Err: err}
	}

	if err := sniff(f); err != nil {
		return dicom.Dataset{}, &UnreadableImageError{Path: path, Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return dicom.Dataset{}, &UnreadableImageError{Path: path, Err: err}
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			ds = dicom.Dataset{}
			err = &UnreadableImageError{Path: path, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	ds, err = dicom.Parse(f, info.Size(), nil)
	if err != nil {
		return dicom.Dataset{}, &UnreadableImageError{Path: path, Err: err}
	}
	return ds, nil
}

// sniff checks for the DICM marker after the 128 byte preamble.
func sniff(r io.Reader) error {
	head := make([]byte, preambleLen+len(magicWord))
	if _, err := io.ReadFull(r, head); err != nil {
		return ErrNotDICOM
	}
	if !bytes.Equal(head[preambleLen:], []byte(magicWord)) {
		return ErrNotDICOM
	}
	return nil
}
