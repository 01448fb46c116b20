package runcfg

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupInputFiles(t *testing.T) {
	groups, order, err := GroupInputFiles([]string{
		"/in/pa20140918.opus-i2s.in",
		"/in/ci201401.slice-i2s.in",
		"/in/pa20140925.opus-i2s.in",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pa", "ci"}, order)
	assert.Equal(t, InputFileGroups{
		"pa": {"pa20140918": "/in/pa20140918.opus-i2s.in", "pa20140925": "/in/pa20140925.opus-i2s.in"},
		"ci": {"ci201401": "/in/ci201401.slice-i2s.in"},
	}, groups)
}

func TestGroupInputFilesRejectsUnnamed(t *testing.T) {
	_, _, err := GroupInputFiles([]string{"/in/opus-i2s.in"})
	assert.Error(t, err)
}

func TestBuildFromInputFiles(t *testing.T) {
	files := []string{
		"/in/pa20140925.opus-i2s.in",
		"/in/pa20140918.opus-i2s.in",
		"/in/ci20200101.slice-i2s.in",
	}
	detect := func(path string) (bool, error) {
		return strings.Contains(path, "slice"), nil
	}

	doc, err := BuildFromInputFiles(files, BuildOptions{ConfigDir: "/in", RelPaths: true, UsesSlices: detect})
	require.NoError(t, err)

	pa, ok := doc.Site("pa")
	require.True(t, ok)
	assert.Equal(t, "0", pa.Attributes[OptSlices])
	assert.Equal(t, "igms", pa.Attributes[OptSubdir])
	require.Len(t, pa.Dates(), 2)
	assert.Equal(t, "pa20140918", pa.Dates()[0].Key, "dates are sorted")
	assert.Equal(t, "pa20140918.opus-i2s.in", pa.Dates()[0].Attributes[OptI2SInputFile])

	ci, ok := doc.Site("ci")
	require.True(t, ok)
	assert.Equal(t, "1", ci.Attributes[OptSlices])
	assert.Equal(t, "slices", ci.Attributes[OptSubdir])

	// The placeholders must survive a write/parse cycle.
	again, err := Parse(Write(doc), "/in")
	require.NoError(t, err)
	assert.Len(t, again.Units(), 3)
}

func TestBuildFromInputFilesAbsolutePaths(t *testing.T) {
	doc, err := BuildFromInputFiles([]string{"rel/pa2014.opus-i2s.in"}, BuildOptions{ConfigDir: "/cfg"})
	require.NoError(t, err)
	pa, _ := doc.Site("pa")
	p := pa.Dates()[0].Attributes[OptI2SInputFile]
	assert.True(t, filepath.IsAbs(p), p)
}

func TestOverlay(t *testing.T) {
	doc, err := BuildFromInputFiles([]string{"/in/pa20140918.opus-i2s.in"}, BuildOptions{ConfigDir: "/in"})
	require.NoError(t, err)
	old := mustParse(t, paConfig, "/old")

	Overlay(doc, old)

	assert.Equal(t, "/old/runs", doc.RunOptions[OptRunTopDir])
	pa, _ := doc.Site("pa")
	assert.Equal(t, "/a/b", pa.Attributes[OptFlimitFile])
	require.Len(t, pa.Dates(), 2, "dates only present in the old config are carried over")
	assert.Equal(t, "/old/pa20140918.opus-i2s.in", pa.Dates()[0].Attributes[OptI2SInputFile])
	assert.Equal(t, "/c/d", pa.Dates()[0].Attributes[OptFlimitFile])
}

func TestUpdateInputFiles(t *testing.T) {
	doc := mustParse(t, paConfig, "/cfg")

	removed, err := UpdateInputFiles(doc, []string{"/new/pa20140918.opus-i2s.in"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"pa20140925"}, removed)

	pa, _ := doc.Site("pa")
	require.Len(t, pa.Dates(), 1)
	assert.Equal(t, "/new/pa20140918.opus-i2s.in", pa.Dates()[0].Attributes[OptI2SInputFile])
}

func TestUpdateInputFilesKeepMissing(t *testing.T) {
	doc := mustParse(t, paConfig, "/cfg")

	removed, err := UpdateInputFiles(doc, []string{"/new/pa20140918.opus-i2s.in"}, true)
	require.NoError(t, err)
	assert.Empty(t, removed)
	pa, _ := doc.Site("pa")
	assert.Len(t, pa.Dates(), 2)
}
