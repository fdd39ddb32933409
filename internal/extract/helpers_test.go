package extract

import "github.com/suyashkumar/dicom"

type countingDecoder struct {
	inner Decoder
	calls int
}

func (c *countingDecoder) Decode(path string) (dicom.Dataset, error) {
	c.calls++
	return c.inner.Decode(path)
}
