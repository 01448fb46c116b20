package i2sinput

import (
	"fmt"
	"regexp"
	"strings"
)

var lineBreakRe = regexp.MustCompile(`\r\n|\n|\r`)

// Slots patched for every run directory.
const (
	SlotInputDir      = 1
	SlotOutputDir     = 2
	SlotSaveSepIgrams = 3
	SlotFlimitFile    = 8
)

// Patch returns a copy of doc with the given header slots replaced. Values
// for multi-line slots separate their lines with any line break. Each
// physical line keeps its leading whitespace, the whitespace before its
// inline comment and the comment itself. doc is not modified.
func Patch(doc *Document, overrides map[int]string) (*Document, error) {
	out := doc.clone()
	for slot, value := range overrides {
		if slot < 1 || slot > doc.Format.HeaderSlots {
			return nil, &InvalidOverrideError{Slot: slot, Reason: "no such header parameter"}
		}
		parts := lineBreakRe.Split(value, -1)
		if want := SlotLines(slot); len(parts) != want {
			return nil, &InvalidOverrideError{
				Slot:   slot,
				Reason: "requires " + plural(want, "line") + ", got " + plural(len(parts), "line"),
			}
		}
		for i := range out.Lines {
			l := &out.Lines[i]
			if l.Kind != DataLine || l.Slot != slot {
				continue
			}
			*l = replaceValue(*l, parts[l.Part-1])
		}
	}
	return out, nil
}

func replaceValue(l Line, value string) Line {
	old := l.Value()
	trimmedLeft := strings.TrimLeft(old, " \t")
	leading := old[:len(old)-len(trimmedLeft)]
	trailing := trimmedLeft[len(strings.TrimRight(trimmedLeft, " \t")):]

	comment := l.Comment()
	l.Text = leading + value + trailing + comment
	l.valueEnd = len(leading) + len(value) + len(trailing)
	return l
}

// PrepareForRunDir patches doc for execution inside a run directory laid
// out by the linker: inputs in ./slices/ or ./igms/, spectra written to
// ./spectra/ and the window limits read from ./flimit.i2s. Saving
// separated interferograms is turned off unless overrides say otherwise.
// Overrides for the input, output and flimit slots are ignored.
func PrepareForRunDir(doc *Document, overrides map[int]string) (*Document, error) {
	merged := map[int]string{SlotSaveSepIgrams: "0"}
	for k, v := range overrides {
		merged[k] = v
	}
	merged[SlotInputDir] = "./" + doc.Format.Kind.LinkSubdir() + "/"
	merged[SlotOutputDir] = "./spectra/"
	merged[SlotFlimitFile] = "./flimit.i2s"
	return Patch(doc, merged)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
