package i2sinput

import (
	"strings"
)

// DefaultHeaderSlots is the number of numbered parameters before the
// catalog in a standard I2S input file.
const DefaultHeaderSlots = 28

// DefaultMarker starts an I2S comment. Everything after it on a line is
// a comment, except when it is directly followed by a backslash, as in a
// Windows path like c:\data.
const DefaultMarker = ":"

// Parameters that span more than one physical line.
var multiLineSlots = map[int]int{
	17: 2,
}

// SlotLines is the number of physical lines parameter slot occupies.
func SlotLines(slot int) int {
	if n, ok := multiLineSlots[slot]; ok {
		return n
	}
	return 1
}

// Kind tells slice input files from Opus input files.
type Kind int

const (
	Opus Kind = iota
	Slices
)

func (k Kind) String() string {
	if k == Slices {
		return "slice"
	}
	return "opus"
}

// InputFileName is the name I2S input files get inside a run directory.
func (k Kind) InputFileName() string {
	return k.String() + "-i2s.in"
}

// LinkSubdir is the run-directory subdirectory the inputs are linked to.
func (k Kind) LinkSubdir() string {
	if k == Slices {
		return "slices"
	}
	return "igms"
}

// Format describes how to read an input file.
type Format struct {
	Kind Kind
	// HeaderSlots is the number of parameter slots before the catalog.
	HeaderSlots int
	// Marker is the comment marker.
	Marker string
}

// SliceFormat is the standard slice-i2s.in layout.
func SliceFormat() Format {
	return Format{Kind: Slices, HeaderSlots: DefaultHeaderSlots, Marker: DefaultMarker}
}

// OpusFormat is the standard opus-i2s.in layout.
func OpusFormat() Format {
	return Format{Kind: Opus, HeaderSlots: DefaultHeaderSlots, Marker: DefaultMarker}
}

func (f Format) withDefaults() Format {
	if f.HeaderSlots <= 0 {
		f.HeaderSlots = DefaultHeaderSlots
	}
	if f.Marker == "" {
		f.Marker = DefaultMarker
	}
	return f
}

// requiredDataLines counts the physical lines the header block needs.
func (f Format) requiredDataLines() int {
	n := 0
	for slot := 1; slot <= f.HeaderSlots; slot++ {
		n += SlotLines(slot)
	}
	return n
}

// LineKind classifies a physical line.
type LineKind int

const (
	Blank LineKind = iota
	Comment
	DataLine
)

// Line is one physical line of an input file.
type Line struct {
	Kind LineKind
	// Text is the line without its line ending.
	Text string
	// EOL is the original line ending: "\n", "\r\n", "\r" or "" for a
	// final unterminated line.
	EOL string
	// Slot and Part locate a header data line; both are 0 for catalog
	// lines and non-data lines.
	Slot int
	Part int
	// valueEnd is the offset in Text where the inline comment starts.
	valueEnd int
}

// Value is the parameter value part of the line, comment excluded.
func (l Line) Value() string {
	return l.Text[:l.valueEnd]
}

// Comment is the inline comment, marker included, or "".
func (l Line) Comment() string {
	return l.Text[l.valueEnd:]
}

// Document is a parsed input file. Slots are identified only by their
// ordinal position among data lines.
type Document struct {
	Format Format
	Lines  []Line
	// HeaderEnd is the index of the first line after the last header
	// data line. Data lines at or after it are catalog entries.
	HeaderEnd int
}

// Parse reads an input file. It fails with MalformedInputFileError if the
// text has fewer data lines than the format's header needs.
func Parse(text string, format Format) (*Document, error) {
	format = format.withDefaults()
	doc := &Document{Format: format}

	slot, part := 1, 1
	dataLines := 0
	for _, raw := range splitLines(text) {
		l := classify(raw.text, raw.eol, format.Marker)
		if l.Kind == DataLine {
			dataLines++
			if slot <= format.HeaderSlots {
				l.Slot, l.Part = slot, part
				if part == SlotLines(slot) {
					slot, part = slot+1, 1
				} else {
					part++
				}
				doc.HeaderEnd = len(doc.Lines) + 1
			}
		}
		doc.Lines = append(doc.Lines, l)
	}

	if slot <= format.HeaderSlots {
		return nil, &MalformedInputFileError{
			Reason:    "header block is truncated",
			DataLines: dataLines,
			Required:  format.requiredDataLines(),
		}
	}
	return doc, nil
}

// Render reconstructs the file text. An unpatched document renders to
// exactly the text it was parsed from.
func (d *Document) Render() string {
	var b strings.Builder
	for _, l := range d.Lines {
		b.WriteString(l.Text)
		b.WriteString(l.EOL)
	}
	return b.String()
}

// Slot returns the value of a header slot with surrounding whitespace
// removed. Multi-line slots are joined with "\n".
func (d *Document) Slot(slot int) (string, bool) {
	var parts []string
	for _, l := range d.Lines {
		if l.Slot == slot && l.Kind == DataLine {
			parts = append(parts, strings.TrimSpace(l.Value()))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

func (d *Document) clone() *Document {
	c := *d
	c.Lines = append([]Line(nil), d.Lines...)
	return &c
}

type rawLine struct {
	text string
	eol  string
}

func splitLines(text string) []rawLine {
	var lines []rawLine
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, rawLine{text: text})
			break
		}
		eol := text[i : i+1]
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			eol = "\r\n"
		}
		lines = append(lines, rawLine{text: text[:i], eol: eol})
		text = text[i+len(eol):]
	}
	return lines
}

func classify(text, eol, marker string) Line {
	l := Line{Text: text, EOL: eol, valueEnd: commentStart(text, marker)}
	switch {
	case strings.TrimSpace(l.Value()) != "":
		l.Kind = DataLine
	case l.valueEnd < len(text):
		l.Kind = Comment
	default:
		l.Kind = Blank
	}
	return l
}

// commentStart returns the offset of the first comment marker in text,
// or len(text) if there is none.
func commentStart(text, marker string) int {
	from := 0
	for {
		i := strings.Index(text[from:], marker)
		if i < 0 {
			return len(text)
		}
		i += from
		next := i + len(marker)
		if marker == ":" && next < len(text) && text[next] == '\\' {
			from = next
			continue
		}
		return i
	}
}
