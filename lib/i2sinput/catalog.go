package i2sinput

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/gggutils/i2srun/lib/runcfg"
)

// Column counts of catalog entries.
const (
	SliceColumns   = 5
	MaxOpusColumns = 18
)

var embeddedDateRe = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)

// Entry is one catalog line: a slice run (year month day run slice) or an
// Opus file (file year month day run lat lon alt ...).
type Entry struct {
	// Line is the index of the entry in Document.Lines.
	Line   int
	Fields []string

	Year, Month, Day int
	Run              string
	// Slice is the first slice number of a slice entry.
	Slice int
	// File is the interferogram file name of an Opus entry.
	File string
}

// IsSlice reports whether the entry describes a slice run.
func (e Entry) IsSlice() bool {
	return len(e.Fields) == SliceColumns
}

// SliceRunDir is the YYMMDD.R directory holding the entry's slices.
func (e Entry) SliceRunDir() string {
	return SliceRunDir(e.Year, e.Month, e.Day, e.Run)
}

// SliceRunDir formats the YYMMDD.R directory name for a slice run.
func SliceRunDir(year, month, day int, run string) string {
	return pad2(year%100) + pad2(month) + pad2(day) + "." + run
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Catalog returns the catalog entries in file order. Commented-out
// entries are not included.
func Catalog(doc *Document) ([]Entry, error) {
	var entries []Entry
	for i := doc.HeaderEnd; i < len(doc.Lines); i++ {
		l := doc.Lines[i]
		if l.Kind != DataLine {
			continue
		}
		e, err := parseEntry(l.Value())
		if err != nil {
			return nil, err
		}
		e.Line = i
		entries = append(entries, e)
	}
	return entries, nil
}

func parseEntry(value string) (Entry, error) {
	fields := strings.Fields(value)
	e := Entry{Fields: fields}
	switch {
	case len(fields) == SliceColumns:
		if err := e.setDate(fields[0], fields[1], fields[2]); err != nil {
			return Entry{}, err
		}
		e.Run = fields[3]
		slice, err := strconv.Atoi(fields[4])
		if err != nil {
			return Entry{}, &MalformedInputFileError{Reason: "slice number " + strconv.Quote(fields[4]) + " is not an integer"}
		}
		e.Slice = slice
	case len(fields) <= MaxOpusColumns:
		e.File = fields[0]
		if len(fields) >= 4 && e.setDate(fields[1], fields[2], fields[3]) == nil {
			if len(fields) >= 5 {
				e.Run = fields[4]
			}
			break
		}
		m := embeddedDateRe.FindStringSubmatch(path.Base(strings.ReplaceAll(e.File, `\`, "/")))
		if m == nil {
			return Entry{}, &MalformedInputFileError{Reason: "cannot find a date for catalog entry " + strconv.Quote(value)}
		}
		if err := e.setDate(m[1], m[2], m[3]); err != nil {
			return Entry{}, err
		}
	default:
		return Entry{}, &MalformedInputFileError{
			Reason: "catalog entry has " + strconv.Itoa(len(fields)) + " columns, expected no more than " + strconv.Itoa(MaxOpusColumns),
		}
	}
	return e, nil
}

func (e *Entry) setDate(y, m, d string) error {
	var err error
	if e.Year, err = strconv.Atoi(y); err != nil {
		return &MalformedInputFileError{Reason: "bad year " + strconv.Quote(y)}
	}
	if e.Month, err = strconv.Atoi(m); err != nil || e.Month < 1 || e.Month > 12 {
		return &MalformedInputFileError{Reason: "bad month " + strconv.Quote(m)}
	}
	if e.Day, err = strconv.Atoi(d); err != nil || e.Day < 1 || e.Day > 31 {
		return &MalformedInputFileError{Reason: "bad day " + strconv.Quote(d)}
	}
	return nil
}

// UsesSlices reports whether doc's catalog lists slices (5 columns)
// rather than Opus files.
func UsesSlices(doc *Document) (bool, error) {
	for i := doc.HeaderEnd; i < len(doc.Lines); i++ {
		l := doc.Lines[i]
		if l.Kind != DataLine {
			continue
		}
		n := len(strings.Fields(l.Value()))
		switch {
		case n == SliceColumns:
			return true, nil
		case n <= MaxOpusColumns:
			return false, nil
		default:
			return false, &MalformedInputFileError{
				Reason: "catalog entry has " + strconv.Itoa(n) + " columns, expected no more than " + strconv.Itoa(MaxOpusColumns),
			}
		}
	}
	return false, &MalformedInputFileError{Reason: "no catalog entries, cannot tell slices from Opus interferograms"}
}

// Group is one period's share of a split catalog.
type Group struct {
	Key runcfg.DateKey
	Doc *Document
}

// SplitBy groups the catalog entries by year, month or day. Each group's
// document holds the shared header block followed by the group's entries
// in their original order. Groups come in order of first appearance.
// Commented-out entries are left out of every group.
func SplitBy(doc *Document, site string, g runcfg.Granularity) ([]Group, error) {
	entries, err := Catalog(doc)
	if err != nil {
		return nil, err
	}
	header := doc.headerBlock()

	var groups []Group
	index := map[string]int{}
	for _, e := range entries {
		key := runcfg.NewDateKey(site, e.Year, e.Month, e.Day, g)
		i, ok := index[key.String()]
		if !ok {
			i = len(groups)
			index[key.String()] = i
			gd := &Document{Format: doc.Format, HeaderEnd: doc.HeaderEnd}
			gd.Lines = append([]Line(nil), header...)
			groups = append(groups, Group{Key: key, Doc: gd})
		}
		gd := groups[i].Doc
		gd.Lines = append(gd.Lines, terminated(doc.Lines[e.Line]))
	}
	return groups, nil
}

// headerBlock is the header up to its last parameter line, with the last
// line terminated. Anything after it, including commented-out catalog
// entries, belongs to the catalog.
func (d *Document) headerBlock() []Line {
	block := append([]Line(nil), d.Lines[:d.HeaderEnd]...)
	if n := len(block); n > 0 {
		block[n-1] = terminated(block[n-1])
	}
	return block
}

func terminated(l Line) Line {
	if l.EOL == "" {
		l.EOL = "\n"
	}
	return l
}
