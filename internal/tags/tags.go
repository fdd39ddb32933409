// Package tags loads the allow-list of DICOM attributes that may be copied
// into the metadata table.
package tags

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

//go:embed default_tags.csv
var defaultTags string

// Action tells how an allow-listed value reaches the table.
type Action string

const (
	Keep Action = "keep"
	Age  Action = "age"
	Date Action = "date"
	Time Action = "time"
)

// Entry is one allow-listed attribute.
type Entry struct {
	Keyword string
	Tag     tag.Tag
	Action  Action
}

// AllowList is the ordered, immutable set of retained attributes.
type AllowList struct {
	entries []Entry
	byTag   map[tag.Tag]int
}

// Load reads an allow-list CSV file.
func Load(path string) (*AllowList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("allow-list %s: %w", path, err)
	}
	return list, nil
}

// Default returns the allow-list bundled with the binary.
func Default() (*AllowList, error) {
	return Parse(strings.NewReader(defaultTags))
}

// Parse reads CSV with a header row. Keyword is required; Tag and Action are
// optional columns.
func Parse(r io.Reader) (*AllowList, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty allow-list")
	}
	if err != nil {
		return nil, err
	}

	// Spreadsheet exports often start with a byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	kwCol, ok := cols["keyword"]
	if !ok {
		return nil, errors.New(`allow-list header has no "Keyword" column`)
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	list := &AllowList{byTag: map[tag.Tag]int{}}
	columns := map[string]string{}
	var invalid []string

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		keyword := ""
		if kwCol < len(rec) {
			keyword = strings.TrimSpace(rec[kwCol])
		}
		if keyword == "" {
			continue
		}
		if keyword == "PixelData" {
			continue
		}

		t, err := resolve(keyword, field(rec, "tag"))
		if err != nil {
			invalid = append(invalid, err.Error())
			continue
		}

		action := Action(strings.ToLower(field(rec, "action")))
		if action == "" {
			action = Keep
		}
		switch action {
		case Keep, Age, Date, Time:
		default:
			invalid = append(invalid, fmt.Sprintf("%s: unknown action %q", keyword, action))
			continue
		}

		if _, dup := list.byTag[t]; dup {
			invalid = append(invalid, fmt.Sprintf("%s: tag %s listed twice", keyword, t))
			continue
		}

		entry := Entry{Keyword: keyword, Tag: t, Action: action}
		clash := false
		for _, col := range entry.Columns() {
			if prev, ok := columns[col]; ok {
				invalid = append(invalid, fmt.Sprintf("%s: column %q already produced by %s", keyword, col, prev))
				clash = true
			}
		}
		if clash {
			continue
		}
		for _, col := range entry.Columns() {
			columns[col] = keyword
		}

		list.byTag[t] = len(list.entries)
		list.entries = append(list.entries, entry)
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid allow-list entries: %s", strings.Join(invalid, "; "))
	}
	return list, nil
}

// Entries returns the entries in file order.
func (a *AllowList) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Lookup returns the entry for t, if allow-listed.
func (a *AllowList) Lookup(t tag.Tag) (Entry, bool) {
	i, ok := a.byTag[t]
	if !ok {
		return Entry{}, false
	}
	return a.entries[i], true
}

// Columns returns every table column the list can produce, in order.
func (a *AllowList) Columns() []string {
	var cols []string
	for _, e := range a.entries {
		cols = append(cols, e.Columns()...)
	}
	return cols
}

// Columns returns the table columns this entry writes to.
func (e Entry) Columns() []string {
	switch e.Action {
	case Date:
		return []string{ColumnDayOfWeek, ColumnYear}
	case Time:
		return []string{ColumnHour}
	default:
		return []string{e.Keyword}
	}
}

// resolve maps a keyword and an optional identifier to a tag. The dictionary
// must agree with the identifier when it knows the keyword.
func resolve(keyword, ident string) (tag.Tag, error) {
	info, dictErr := tag.FindByName(keyword)
	if ident == "" {
		if dictErr != nil {
			return tag.Tag{}, fmt.Errorf("%s: unknown keyword", keyword)
		}
		return info.Tag, nil
	}

	t, err := ParseTag(ident)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("%s: %v", keyword, err)
	}
	if dictErr == nil && info.Tag != t {
		return tag.Tag{}, fmt.Errorf("%s: tag %s does not match dictionary tag %s", keyword, t, info.Tag)
	}
	return t, nil
}

// ParseTag accepts "(gggg,eeee)", "gggg,eeee" and "ggggeeee".
func ParseTag(s string) (tag.Tag, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "(")
	clean = strings.TrimSuffix(clean, ")")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, " ", "")
	if len(clean) != 8 {
		return tag.Tag{}, fmt.Errorf("malformed tag %q", s)
	}

	group, err := strconv.ParseUint(clean[:4], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("malformed tag %q", s)
	}
	element, err := strconv.ParseUint(clean[4:], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("malformed tag %q", s)
	}
	return tag.Tag{Group: uint16(group), Element: uint16(element)}, nil
}
