package runcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructure(t *testing.T) {
	doc := mustParse(t, paConfig, "/cfg")

	assert.Equal(t, "runs", doc.RunOptions[OptRunTopDir])
	assert.Equal(t, map[int]string{3: "1", 17: "0.0 0.0\n1.0 1.0"}, doc.I2SOverrides)

	require.Len(t, doc.Sites(), 1)
	site := doc.Sites()[0]
	assert.Equal(t, "pa", site.ID)
	assert.Equal(t, "/data/pa", site.Attributes[OptSiteRootDir])

	var keys []string
	for _, dc := range site.Dates() {
		keys = append(keys, dc.Key)
	}
	assert.Equal(t, []string{"pa20140918", "pa20140925"}, keys)
	assert.Equal(t, []Unit{{"pa", "pa20140918"}, {"pa", "pa20140925"}}, doc.Units())
}

func TestParseCommentsAndQuotes(t *testing.T) {
	doc := mustParse(t, `
# leading comment
[Run]
run_top_dir = "/runs with spaces/#1"   # trailing comment
[Sites]
    [[ci]]  # site comment
    subdir = slices # inline
    site_root_dir = '/data/ci'
`, "/cfg")

	assert.Equal(t, "/runs with spaces/#1", doc.RunOptions[OptRunTopDir])
	site, ok := doc.Site("ci")
	require.True(t, ok)
	assert.Equal(t, "slices", site.Attributes[OptSubdir])
	assert.Equal(t, "/data/ci", site.Attributes[OptSiteRootDir])
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		text   string
		target interface{}
	}{
		{"unknown site option", "[Sites]\n[[pa]]\nflimit = x\n", new(*UnknownOptionError)},
		{"misspelled date option", "[Sites]\n[[pa]]\n[[[pa2014]]]\ni2s_input = x\n", new(*UnknownOptionError)},
		{"i2s input file at site level", "[Sites]\n[[pa]]\ni2s_input_file = x\n", new(*UnknownOptionError)},
		{"non-numeric i2s key", "[I2S]\nfoo = 1\n", new(*UnknownOptionError)},
		{"unknown run option", "[Run]\nrun_dir = x\n", new(*UnknownOptionError)},
		{"bad boolean", "[Sites]\n[[pa]]\nslices = maybe\n", new(*InvalidBooleanError)},
		{"bad date key", "[Sites]\n[[pa]]\n[[[pa201\t]]]\n", new(*InvalidDateKeyError)},
		{"duplicate site", "[Sites]\n[[pa]]\n[[pa]]\n", new(*DuplicateSiteError)},
		{"unknown section", "[Other]\n", new(*SyntaxError)},
		{"site outside sites", "[Run]\n[[pa]]\n", new(*SyntaxError)},
		{"too deep", "[Sites]\n[[[pa2014]]]\n", new(*SyntaxError)},
		{"wrong site prefix", "[Sites]\n[[pa]]\n[[[ci2014]]]\n", new(*SyntaxError)},
		{"unbalanced", "[Sites]\n[[pa]\n", new(*SyntaxError)},
		{"no equals", "[Run]\nrun_top_dir\n", new(*SyntaxError)},
		{"duplicate option", "[Run]\nrun_top_dir = a\nrun_top_dir = b\n", new(*SyntaxError)},
		{"unterminated quote", "[Run]\nrun_top_dir = \"abc\n", new(*SyntaxError)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text, "/cfg")
			require.Error(t, err)
			assert.ErrorAs(t, err, tc.target)
		})
	}
}

func TestParseSyntaxErrorLineNumber(t *testing.T) {
	_, err := Parse("[Run]\n\n# c\nbogus line\n", "/cfg")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Line)
}

func TestLoadUsesFileDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "i2s_parallel.cfg")
	require.NoError(t, os.WriteFile(path, []byte(paConfig), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, doc.BaseDir)

	r, err := Resolve(doc, "pa", "pa20140918")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pa20140918.opus-i2s.in"), r.I2SInputFile)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cfg"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteRoundTrip(t *testing.T) {
	doc := mustParse(t, paConfig, "/cfg")
	doc.RunOptions[OptRunTopDir] = "/runs #2"

	again := mustParse(t, Write(doc), "/cfg")
	assert.Equal(t, doc.RunOptions, again.RunOptions)
	assert.Equal(t, doc.I2SOverrides, again.I2SOverrides)
	require.Len(t, again.Sites(), 1)
	assert.Equal(t, doc.Sites()[0].Attributes, again.Sites()[0].Attributes)
	require.Len(t, again.Sites()[0].Dates(), 2)
	for i, dc := range doc.Sites()[0].Dates() {
		assert.Equal(t, dc.Key, again.Sites()[0].Dates()[i].Key)
		assert.Equal(t, dc.Attributes, again.Sites()[0].Dates()[i].Attributes)
	}
}

func TestWriteEmptyPlaceholders(t *testing.T) {
	doc := NewDocument("/cfg")
	doc.RunOptions[OptRunTopDir] = ""
	site, err := doc.AddSite("pa")
	require.NoError(t, err)
	site.Attributes[OptFlimitFile] = ""

	text := Write(doc)
	assert.Contains(t, text, `run_top_dir = ""`)
	assert.Contains(t, text, `flimit_file = ""`)

	again := mustParse(t, text, "/cfg")
	s, _ := again.Site("pa")
	assert.Equal(t, "", s.Attributes[OptFlimitFile])
}
