package extract

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"ikh/dicom-extraction/internal/tags"
)

// valueSeparator joins multi-valued attributes, as DICOM does on the wire.
const valueSeparator = `\`

// Metadata returns the table cells for every allow-listed attribute present
// in ds. Attributes missing from ds are left out.
func Metadata(ds dicom.Dataset, allow *tags.AllowList) map[string]string {
	out := map[string]string{}
	for _, elem := range ds.Elements {
		if elem == nil || elem.Tag == tag.PixelData {
			continue
		}
		entry, ok := allow.Lookup(elem.Tag)
		if !ok {
			continue
		}
		raw, ok := valueString(elem)
		if !ok {
			continue
		}
		for col, v := range entry.Apply(raw) {
			out[col] = v
		}
	}
	return out
}

// valueString renders scalar and multi-valued attributes. Binary data,
// sequences and pixel data have no text form.
func valueString(elem *dicom.Element) (string, bool) {
	if elem == nil || elem.Value == nil {
		return "", false
	}

	var parts []string
	switch v := elem.Value.GetValue().(type) {
	case []string:
		for _, s := range v {
			parts = append(parts, strings.TrimRight(strings.TrimSpace(s), "\x00"))
		}
	case []int:
		for _, n := range v {
			parts = append(parts, strconv.Itoa(n))
		}
	case []float64:
		for _, f := range v {
			parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
		}
	default:
		return "", false
	}

	s := strings.Join(parts, valueSeparator)
	return s, s != ""
}

func stringValue(ds dicom.Dataset, t tag.Tag) (string, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return "", false
	}
	v, ok := elem.Value.GetValue().([]string)
	if !ok || len(v) == 0 {
		return "", false
	}
	return strings.ToUpper(strings.TrimRight(strings.TrimSpace(v[0]), "\x00")), true
}

func intValue(ds dicom.Dataset, t tag.Tag) (int, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, false
	}
	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			n, err := strconv.Atoi(strings.TrimSpace(v[0]))
			return n, err == nil
		}
	}
	return 0, false
}
