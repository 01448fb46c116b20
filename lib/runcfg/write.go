package runcfg

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Write renders doc in the bracket-nested format read by Parse. Options
// are written in their canonical order; unset options are omitted.
func Write(doc *Document) string {
	var b strings.Builder

	b.WriteString("[" + SectionRun + "]\n")
	b.WriteString("# The directory where the data are linked to to run I2S\n")
	writeOption(&b, "", OptRunTopDir, doc.RunOptions[OptRunTopDir])

	b.WriteString("\n[" + SectionI2S + "]\n")
	for _, slot := range sortedSlots(doc.I2SOverrides) {
		writeOption(&b, "", strconv.Itoa(slot), escapeBreaks(doc.I2SOverrides[slot]))
	}

	b.WriteString("\n[" + SectionSites + "]\n")
	for _, s := range doc.sites {
		b.WriteString("    [[" + s.ID + "]]\n")
		writeAttributes(&b, "    ", s.Attributes, SiteOptions)
		for _, dc := range s.dates {
			b.WriteString("        [[[" + dc.Key + "]]]\n")
			writeAttributes(&b, "        ", dc.Attributes, DateOptions)
		}
	}
	return b.String()
}

// Save writes doc to path.
func Save(doc *Document, path string) error {
	if err := os.WriteFile(path, []byte(Write(doc)), 0o644); err != nil {
		return oops.Wrapf(err, "writing config file %s", path)
	}
	return nil
}

func writeAttributes(b *strings.Builder, indent string, attrs map[string]string, order []string) {
	known := make(map[string]bool, len(order))
	for _, name := range order {
		known[name] = true
		if v, ok := attrs[name]; ok {
			writeOption(b, indent, name, v)
		}
	}
	// Programmatically built documents may carry extra keys; keep them
	// so nothing is lost, in a stable order.
	var extra []string
	for k := range attrs {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		writeOption(b, indent, k, attrs[k])
	}
}

func writeOption(b *strings.Builder, indent, key, value string) {
	b.WriteString(indent)
	b.WriteString(key)
	b.WriteString(" = ")
	b.WriteString(quoteValue(value))
	b.WriteByte('\n')
}

func quoteValue(v string) string {
	if v == "" || strings.Contains(v, "#") || strings.TrimSpace(v) != v || strings.HasPrefix(v, "'") || strings.HasPrefix(v, `"`) {
		if strings.Contains(v, `"`) {
			return "'" + v + "'"
		}
		return `"` + v + `"`
	}
	return v
}
