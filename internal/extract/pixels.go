package extract

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // baseline JPEG for encapsulated frames

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const (
	monochrome1 = "MONOCHROME1"
	monochrome2 = "MONOCHROME2"
	rgb         = "RGB"
)

// pixelFormat holds the image pixel module attributes of a dataset.
type pixelFormat struct {
	rows, cols      int
	bitsAllocated   int
	bitsStored      int
	signed          bool
	samplesPerPixel int
	photometric     string
	frames          int
}

func readPixelFormat(ds dicom.Dataset) pixelFormat {
	pf := pixelFormat{samplesPerPixel: 1, photometric: monochrome2, frames: 1}
	pf.rows, _ = intValue(ds, tag.Rows)
	pf.cols, _ = intValue(ds, tag.Columns)
	pf.bitsAllocated, _ = intValue(ds, tag.BitsAllocated)
	var ok bool
	if pf.bitsStored, ok = intValue(ds, tag.BitsStored); !ok {
		pf.bitsStored = pf.bitsAllocated
	}
	if rep, ok := intValue(ds, tag.PixelRepresentation); ok {
		pf.signed = rep == 1
	}
	if n, ok := intValue(ds, tag.SamplesPerPixel); ok {
		pf.samplesPerPixel = n
	}
	if p, ok := stringValue(ds, tag.PhotometricInterpretation); ok {
		pf.photometric = p
	}
	if n, ok := intValue(ds, tag.NumberOfFrames); ok {
		pf.frames = n
	}
	return pf
}

func (pf pixelFormat) check() error {
	if pf.frames > 1 {
		return fmt.Errorf("%d frames, only single-frame images are supported", pf.frames)
	}
	if pf.bitsAllocated != 8 && pf.bitsAllocated != 16 {
		return fmt.Errorf("bits allocated %d", pf.bitsAllocated)
	}
	if pf.bitsStored < 1 || pf.bitsStored > pf.bitsAllocated {
		return fmt.Errorf("bits stored %d with bits allocated %d", pf.bitsStored, pf.bitsAllocated)
	}
	switch {
	case pf.samplesPerPixel == 1 && (pf.photometric == monochrome1 || pf.photometric == monochrome2):
	case pf.samplesPerPixel == 3 && pf.photometric == rgb && pf.bitsAllocated == 8:
	default:
		return fmt.Errorf("photometric interpretation %s with %d samples per pixel at %d bits",
			pf.photometric, pf.samplesPerPixel, pf.bitsAllocated)
	}
	return nil
}

// Pixels converts the single frame of ds into a raster ready for lossless
// encoding. Samples are shifted so BitsStored fills BitsAllocated, signed
// samples are moved into the unsigned range, and MONOCHROME1 is inverted so
// that the result renders as MONOCHROME2.
func Pixels(path string, ds dicom.Dataset) (image.Image, error) {
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, &UnreadableImageError{Path: path, Err: ErrNoPixelData}
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, &UnreadableImageError{Path: path, Err: ErrNoPixelData}
	}

	pf := readPixelFormat(ds)
	if err := pf.check(); err != nil {
		return nil, &UnsupportedPixelFormatError{Path: path, Reason: err.Error()}
	}

	if len(info.Frames) == 0 {
		return nil, &UnreadableImageError{Path: path, Err: ErrNoPixelData}
	}
	if len(info.Frames) > 1 {
		return nil, &UnsupportedPixelFormatError{Path: path, Reason: fmt.Sprintf("%d frames, only single-frame images are supported", len(info.Frames))}
	}

	if info.IsEncapsulated {
		img, err := info.Frames[0].GetImage()
		if err != nil {
			return nil, &UnsupportedPixelFormatError{Path: path, Reason: fmt.Sprintf("compressed frame: %v", err)}
		}
		if pf.photometric == monochrome1 {
			return invertGray(img), nil
		}
		return img, nil
	}

	native, err := info.Frames[0].GetNativeFrame()
	if err != nil {
		return nil, &UnreadableImageError{Path: path, Err: err}
	}
	if native.Rows*native.Cols != len(native.Data) || native.Rows == 0 || native.Cols == 0 {
		return nil, &UnreadableImageError{Path: path, Err: fmt.Errorf("frame holds %d pixels for %dx%d", len(native.Data), native.Cols, native.Rows)}
	}

	if pf.samplesPerPixel == 3 {
		return toRGBA(native.Data, native.Cols, native.Rows, pf), nil
	}
	if pf.bitsAllocated == 8 {
		return toGray(native.Data, native.Cols, native.Rows, pf), nil
	}
	return toGray16(native.Data, native.Cols, native.Rows, pf), nil
}

// normalize maps one raw sample to an unsigned value spanning BitsAllocated.
func (pf pixelFormat) normalize(v int) uint32 {
	mask := (1 << pf.bitsStored) - 1
	u := v & mask
	if pf.signed {
		u = (u + (1 << (pf.bitsStored - 1))) & mask
	}
	out := uint32(u) << (pf.bitsAllocated - pf.bitsStored)
	if pf.photometric == monochrome1 {
		out = uint32(1<<pf.bitsAllocated-1) - out
	}
	return out
}

func toGray(data [][]int, w, h int, pf pixelFormat) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, px := range data {
		if len(px) == 0 {
			continue
		}
		img.Pix[i] = uint8(pf.normalize(px[0]))
	}
	return img
}

func toGray16(data [][]int, w, h int, pf pixelFormat) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for i, px := range data {
		if len(px) == 0 {
			continue
		}
		v := pf.normalize(px[0])
		img.Pix[2*i] = uint8(v >> 8)
		img.Pix[2*i+1] = uint8(v)
	}
	return img
}

func toRGBA(data [][]int, w, h int, pf pixelFormat) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, px := range data {
		if len(px) < 3 {
			continue
		}
		img.Pix[4*i] = uint8(pf.normalize(px[0]))
		img.Pix[4*i+1] = uint8(pf.normalize(px[1]))
		img.Pix[4*i+2] = uint8(pf.normalize(px[2]))
		img.Pix[4*i+3] = 0xff
	}
	return img
}

func invertGray(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewGray16(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := dst.Gray16At(x, y)
			dst.SetGray16(x, y, color.Gray16{Y: 0xffff - c.Y})
		}
	}
	return dst
}
