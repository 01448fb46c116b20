package i2sinput

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gggutils/i2srun/lib/runcfg"
)

func TestCatalogSlices(t *testing.T) {
	doc := mustParse(t, readFixture(t, "slice-i2s.in"), SliceFormat())

	entries, err := Catalog(doc)
	require.NoError(t, err)
	require.Len(t, entries, 4, "the commented-out entry is skipped")

	e := entries[0]
	assert.True(t, e.IsSlice())
	assert.Equal(t, 2014, e.Year)
	assert.Equal(t, 9, e.Month)
	assert.Equal(t, 18, e.Day)
	assert.Equal(t, "1", e.Run)
	assert.Equal(t, 1001, e.Slice)
	assert.Equal(t, "140918.1", e.SliceRunDir())

	slices, err := UsesSlices(doc)
	require.NoError(t, err)
	assert.True(t, slices)
}

func TestCatalogOpus(t *testing.T) {
	doc := mustParse(t, readFixture(t, "opus-i2s.in"), OpusFormat())

	entries, err := Catalog(doc)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.False(t, entries[0].IsSlice())
	assert.Equal(t, "/data/pa/igms/pa20140918saaaaa.001", entries[0].File)
	assert.Equal(t, "2", entries[1].Run)
	assert.Equal(t, 19, entries[2].Day)

	slices, err := UsesSlices(doc)
	require.NoError(t, err)
	assert.False(t, slices)
}

// TestCatalogDateFromFileName covers short Opus entries without date
// columns.
func TestCatalogDateFromFileName(t *testing.T) {
	header := strings.Repeat("0\n", 29)
	doc := mustParse(t, header+"pa20150102saaaaa.001\n", OpusFormat())

	entries, err := Catalog(doc)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []int{2015, 1, 2}, []int{entries[0].Year, entries[0].Month, entries[0].Day})

	doc = mustParse(t, header+"nodate.001\n", OpusFormat())
	_, err = Catalog(doc)
	var malformed *MalformedInputFileError
	assert.True(t, errors.As(err, &malformed))
}

func TestUsesSlicesEmptyCatalog(t *testing.T) {
	doc := mustParse(t, strings.Repeat("0\n", 29), OpusFormat())
	_, err := UsesSlices(doc)
	var malformed *MalformedInputFileError
	assert.True(t, errors.As(err, &malformed))
}

func TestSplitBy(t *testing.T) {
	doc := mustParse(t, readFixture(t, "slice-i2s.in"), SliceFormat())
	all, err := Catalog(doc)
	require.NoError(t, err)

	for _, tc := range []struct {
		g     runcfg.Granularity
		keys  []string
		sizes []int
	}{
		{runcfg.Day, []string{"pa20140918", "pa20140919", "pa20141001"}, []int{2, 1, 1}},
		{runcfg.Month, []string{"pa201409", "pa201410"}, []int{3, 1}},
		{runcfg.Year, []string{"pa2014"}, []int{4}},
	} {
		t.Run(tc.g.String(), func(t *testing.T) {
			groups, err := SplitBy(doc, "pa", tc.g)
			require.NoError(t, err)
			require.Len(t, groups, len(tc.keys))

			var union []string
			for i, g := range groups {
				assert.Equal(t, tc.keys[i], g.Key.String())

				// Every group must parse back as a complete input file.
				reparsed := mustParse(t, g.Doc.Render(), SliceFormat())
				entries, err := Catalog(reparsed)
				require.NoError(t, err)
				assert.Len(t, entries, tc.sizes[i])
				for _, e := range entries {
					union = append(union, strings.Join(e.Fields, " "))
				}
				v, _ := reparsed.Slot(17)
				assert.Equal(t, "-0.4 0.4\n-0.2 0.2", v)
				assert.NotContains(t, g.Doc.Render(), "2014  9  18  2  1049")
			}

			var want []string
			for _, e := range all {
				want = append(want, strings.Join(e.Fields, " "))
			}
			assert.Equal(t, want, union, "the groups partition the catalog in order")
		})
	}
}

// TestSplitByNonContiguous checks that a date coming back later in the
// catalog joins its earlier group.
func TestSplitByNonContiguous(t *testing.T) {
	header := strings.Repeat("0\n", 29)
	catalog := "2014 1 1 1 1\n2014 1 2 1 1\n2014 1 1 2 1\n"
	doc := mustParse(t, header+catalog, SliceFormat())

	groups, err := SplitBy(doc, "xx", runcfg.Day)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	entries, err := Catalog(groups[0].Doc)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[1].Run)
}
