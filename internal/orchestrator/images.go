package orchestrator

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/tiff"

	"ikh/dicom-extraction/internal/config"
)

type encodeFunc func(io.Writer, image.Image) error

// encoderFor returns a lossless encoder and the file extension for format.
func encoderFor(format string) (encodeFunc, string, error) {
	switch format {
	case config.FormatPNG, "":
		enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
		return enc.Encode, "png", nil
	case config.FormatTIFF:
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, "tiff", nil
	default:
		return nil, "", fmt.Errorf("unknown image format %q", format)
	}
}

func writeImage(path string, img image.Image, encode encodeFunc) error {
	f, err := os.Create(path)
	if err != nil {
		return &OutputError{Op: "create image", Path: path, Err: err}
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return &OutputError{Op: "encode image", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &OutputError{Op: "close image", Path: path, Err: err}
	}
	return nil
}
