package i2sinput

import (
	"strconv"
	"strings"
)

// Concat joins the catalogs of several input files under the header of
// the first one. All entries must have the same number of columns.
func Concat(docs ...*Document) (*Document, error) {
	if len(docs) == 0 {
		return nil, &MalformedInputFileError{Reason: "no input files to concatenate"}
	}
	out := &Document{Format: docs[0].Format, HeaderEnd: docs[0].HeaderEnd}
	out.Lines = docs[0].headerBlock()

	columns := -1
	total := 0
	for di, d := range docs {
		entries, err := Catalog(d)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			total++
			if columns < 0 {
				columns = len(e.Fields)
			} else if len(e.Fields) != columns {
				return nil, &MalformedInputFileError{
					Reason: "inconsistent catalog: the first entry has " + strconv.Itoa(columns) +
						" columns but entry " + strconv.Itoa(total) + " (file " + strconv.Itoa(di+1) +
						") has " + strconv.Itoa(len(e.Fields)),
				}
			}
			out.Lines = append(out.Lines, terminated(d.Lines[e.Line]))
		}
	}
	return out, nil
}

// HeaderAndCatalog splits doc into its header text and its catalog text,
// one trimmed entry per line.
func HeaderAndCatalog(doc *Document) (header, catalog string, err error) {
	entries, err := Catalog(doc)
	if err != nil {
		return "", "", err
	}
	var hb strings.Builder
	for _, l := range doc.headerBlock() {
		hb.WriteString(l.Text)
		hb.WriteString(l.EOL)
	}
	var cb strings.Builder
	for _, e := range entries {
		cb.WriteString(strings.TrimSpace(doc.Lines[e.Line].Value()))
		cb.WriteByte('\n')
	}
	return hb.String(), cb.String(), nil
}

// FromHeaderAndCatalog assembles an input file from a header file and a
// catalog file.
func FromHeaderAndCatalog(header, catalog string, format Format) (*Document, error) {
	if header != "" && !strings.HasSuffix(header, "\n") && !strings.HasSuffix(header, "\r") {
		header += "\n"
	}
	return Parse(header+catalog, format)
}

// ChdirCatalog rewrites the directory of every Opus file in the catalog
// to dir, or strips it when dir is empty. Slice catalogs carry no paths
// and are returned unchanged with changed == false.
func ChdirCatalog(doc *Document, dir string) (out *Document, changed bool, err error) {
	entries, err := Catalog(doc)
	if err != nil {
		return nil, false, err
	}
	out = doc.clone()
	for _, e := range entries {
		if e.IsSlice() {
			continue
		}
		l := &out.Lines[e.Line]
		value := l.Value()
		start := strings.Index(value, e.File)
		base := e.File
		if i := strings.LastIndexAny(base, `/\`); i >= 0 {
			base = base[i+1:]
		}
		if dir != "" {
			base = strings.TrimRight(dir, `/\`) + "/" + base
		}
		newValue := value[:start] + base + value[start+len(e.File):]
		l.Text = newValue + l.Comment()
		l.valueEnd = len(newValue)
		changed = true
	}
	return out, changed, nil
}
