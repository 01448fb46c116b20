package i2sinput

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPatchKeepsComment checks that only the value text changes.
func TestPatchKeepsComment(t *testing.T) {
	text := "a\nb\n0 # comment\n"
	doc := mustParse(t, text, Format{Kind: Slices, HeaderSlots: 3, Marker: "#"})

	patched, err := Patch(doc, map[int]string{3: "1"})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n1 # comment\n", patched.Render())
	assert.Equal(t, text, doc.Render(), "the original document is left alone")
}

func TestPatchPreservesLayout(t *testing.T) {
	text := readFixture(t, "slice-i2s.in")
	doc := mustParse(t, text, SliceFormat())

	patched, err := Patch(doc, map[int]string{
		5:  "3",
		17: "-1.0 1.0\n-2.0 2.0",
	})
	require.NoError(t, err)

	want := strings.Replace(text,
		"1                                       :5  Verbosity",
		"3                                       :5  Verbosity", 1)
	want = strings.Replace(want,
		"-0.4 0.4                                :17",
		"-1.0 1.0                                :17", 1)
	want = strings.Replace(want,
		"-0.2 0.2                                :17",
		"-2.0 2.0                                :17", 1)
	if diff := cmp.Diff(want, patched.Render()); diff != "" {
		t.Errorf("Patch() mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchCRLF(t *testing.T) {
	text := strings.ReplaceAll(readFixture(t, "slice-i2s.in"), "\n", "\r\n")
	doc := mustParse(t, text, SliceFormat())

	patched, err := Patch(doc, map[int]string{17: "1 1\r\n2 2"})
	require.NoError(t, err)
	out := patched.Render()
	assert.Equal(t, strings.Count(text, "\r\n"), strings.Count(out, "\r\n"))
	v, _ := patched.Slot(17)
	assert.Equal(t, "1 1\n2 2", v)
}

func TestPatchInvalidOverride(t *testing.T) {
	doc := mustParse(t, readFixture(t, "slice-i2s.in"), SliceFormat())

	for _, tc := range []struct {
		name      string
		overrides map[int]string
		slot      int
	}{
		{"slot zero", map[int]string{0: "x"}, 0},
		{"past the header", map[int]string{29: "x"}, 29},
		{"one line for slot 17", map[int]string{17: "1 1"}, 17},
		{"two lines for slot 4", map[int]string{4: "1\n2"}, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Patch(doc, tc.overrides)
			var invalid *InvalidOverrideError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tc.slot, invalid.Slot)
		})
	}
}

// TestPrepareForRunDir checks that the input, output and flimit slots
// always point into the run directory.
func TestPrepareForRunDir(t *testing.T) {
	doc := mustParse(t, readFixture(t, "slice-i2s.in"), SliceFormat())

	prepared, err := PrepareForRunDir(doc, map[int]string{
		1:  "/elsewhere/",
		8:  "/elsewhere/flimit",
		10: "1",
	})
	require.NoError(t, err)

	for slot, want := range map[int]string{
		1:  "./slices/",
		2:  "./spectra/",
		3:  "0",
		8:  "./flimit.i2s",
		10: "1",
	} {
		got, _ := prepared.Slot(slot)
		assert.Equal(t, want, got, "slot %d", slot)
	}

	opus := mustParse(t, readFixture(t, "opus-i2s.in"), OpusFormat())
	prepared, err = PrepareForRunDir(opus, map[int]string{3: "1"})
	require.NoError(t, err)
	v, _ := prepared.Slot(1)
	assert.Equal(t, "./igms/", v)
	v, _ = prepared.Slot(3)
	assert.Equal(t, "1", v, "slot 3 can be overridden")
}
