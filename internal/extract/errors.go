package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDICOM is returned for files without the Part-10 "DICM" marker.
	ErrNotDICOM = errors.New("not a DICOM file")
	// ErrNoPixelData is returned when a dataset carries no pixel data.
	ErrNoPixelData = errors.New("no pixel data")
)

// UnreadableImageError reports a file that could not be parsed.
type UnreadableImageError struct {
	Path string
	Err  error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("unreadable image %s: %v", e.Path, e.Err)
}

func (e *UnreadableImageError) Unwrap() error { return e.Err }

// UnsupportedPixelFormatError reports pixel data outside the supported
// single-frame formats.
type UnsupportedPixelFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedPixelFormatError) Error() string {
	return fmt.Sprintf("unsupported pixel format in %s: %s", e.Path, e.Reason)
}
