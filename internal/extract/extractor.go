package extract

import (
	"image"

	"ikh/dicom-extraction/internal/tags"
)

// Extractor reads metadata and pixels through an injected Decoder.
type Extractor struct {
	decoder Decoder
	allow   *tags.AllowList
}

func New(decoder Decoder, allow *tags.AllowList) *Extractor {
	return &Extractor{decoder: decoder, allow: allow}
}

// Metadata returns the allow-listed cells of one file.
func (x *Extractor) Metadata(path string) (map[string]string, error) {
	ds, err := x.decoder.Decode(path)
	if err != nil {
		return nil, err
	}
	return Metadata(ds, x.allow), nil
}

// Pixels returns the raster of one file.
func (x *Extractor) Pixels(path string) (image.Image, error) {
	ds, err := x.decoder.Decode(path)
	if err != nil {
		return nil, err
	}
	return Pixels(path, ds)
}

// File decodes path once and returns both its cells and its raster. The
// file is closed before File returns.
func (x *Extractor) File(path string) (map[string]string, image.Image, error) {
	ds, err := x.decoder.Decode(path)
	if err != nil {
		return nil, nil, err
	}
	img, err := Pixels(path, ds)
	if err != nil {
		return nil, nil, err
	}
	return Metadata(ds, x.allow), img, nil
}
