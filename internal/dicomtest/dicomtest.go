// Package dicomtest writes small Part-10 files (explicit VR little endian)
// for tests.
package dicomtest

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/suyashkumar/dicom/pkg/uid"
)

const secondaryCaptureSOPClass = "1.2.840.10008.5.1.4.1.1.7"

// Attr is one extra dataset attribute with a text value. Backslashes split
// multi-valued attributes.
type Attr struct {
	Tag   tag.Tag
	Value string
}

// Image describes the file to write. Pixels holds one value per sample, row
// major, interleaved for multi-sample images, frame after frame.
type Image struct {
	Rows, Cols          int
	BitsAllocated       int
	BitsStored          int
	PixelRepresentation int
	SamplesPerPixel     int
	Photometric         string
	NumberOfFrames      int
	Pixels              []int
	Attrs               []Attr
}

// Gray16 returns a 2x2 MONOCHROME2 16 bit image.
func Gray16(attrs ...Attr) Image {
	return Image{
		Rows: 2, Cols: 2,
		BitsAllocated: 16, BitsStored: 16,
		SamplesPerPixel: 1,
		Photometric:     "MONOCHROME2",
		Pixels:          []int{0, 1000, 30000, 65535},
		Attrs:           attrs,
	}
}

// Dataset builds the dataset for im, file meta group included.
func (im Image) Dataset() (dicom.Dataset, error) {
	samples := im.SamplesPerPixel
	if samples == 0 {
		samples = 1
	}

	var elems []*dicom.Element
	var errs []error
	add := func(t tag.Tag, data interface{}) {
		e, err := dicom.NewElement(t, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tag.DebugString(t), err))
			return
		}
		elems = append(elems, e)
	}

	add(tag.FileMetaInformationVersion, []byte{0x00, 0x01})
	add(tag.MediaStorageSOPClassUID, []string{secondaryCaptureSOPClass})
	add(tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5"})
	add(tag.TransferSyntaxUID, []string{uid.ExplicitVRLittleEndian})

	add(tag.SOPClassUID, []string{secondaryCaptureSOPClass})
	add(tag.SamplesPerPixel, []int{samples})
	add(tag.PhotometricInterpretation, []string{im.Photometric})
	add(tag.Rows, []int{im.Rows})
	add(tag.Columns, []int{im.Cols})
	add(tag.BitsAllocated, []int{im.BitsAllocated})
	add(tag.BitsStored, []int{im.BitsStored})
	add(tag.HighBit, []int{im.BitsStored - 1})
	add(tag.PixelRepresentation, []int{im.PixelRepresentation})
	if im.NumberOfFrames > 0 {
		add(tag.NumberOfFrames, []string{strconv.Itoa(im.NumberOfFrames)})
	}
	for _, a := range im.Attrs {
		add(a.Tag, strings.Split(a.Value, `\`))
	}
	if im.Pixels != nil {
		info, err := im.pixelData(samples)
		if err != nil {
			errs = append(errs, err)
		} else {
			add(tag.PixelData, info)
		}
	}
	if len(errs) > 0 {
		return dicom.Dataset{}, errs[0]
	}

	sort.SliceStable(elems, func(i, j int) bool {
		if elems[i].Tag.Group != elems[j].Tag.Group {
			return elems[i].Tag.Group < elems[j].Tag.Group
		}
		return elems[i].Tag.Element < elems[j].Tag.Element
	})
	return dicom.Dataset{Elements: elems}, nil
}

func (im Image) pixelData(samples int) (dicom.PixelDataInfo, error) {
	frames := im.NumberOfFrames
	if frames == 0 {
		frames = 1
	}
	perFrame := im.Rows * im.Cols
	if perFrame == 0 || len(im.Pixels) != frames*perFrame*samples {
		return dicom.PixelDataInfo{}, fmt.Errorf("%d samples for %d frames of %dx%dx%d",
			len(im.Pixels), frames, im.Cols, im.Rows, samples)
	}

	info := dicom.PixelDataInfo{}
	for f := 0; f < frames; f++ {
		data := make([][]int, perFrame)
		for p := range data {
			start := (f*perFrame + p) * samples
			data[p] = im.Pixels[start : start+samples]
		}
		info.Frames = append(info.Frames, &frame.Frame{
			NativeData: frame.NativeFrame{
				BitsPerSample: im.BitsAllocated,
				Rows:          im.Rows,
				Cols:          im.Cols,
				Data:          data,
			},
		})
	}
	return info, nil
}

// Encode returns the complete file.
func (im Image) Encode() ([]byte, error) {
	ds, err := im.Dataset()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes im into path.
func Write(path string, im Image) error {
	data, err := im.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
