package runcfg

import (
	"sort"
	"strings"
)

// Option names.
const (
	OptRunTopDir      = "run_top_dir"
	OptSlices         = "slices"
	OptSiteRootDir    = "site_root_dir"
	OptNoDateDir      = "no_date_dir"
	OptSubdir         = "subdir"
	OptSlicesInSubdir = "slices_in_subdir"
	OptFlimitFile     = "flimit_file"
	OptI2SInputFile   = "i2s_input_file"
)

// Section names at the top of a document.
const (
	SectionRun   = "Run"
	SectionI2S   = "I2S"
	SectionSites = "Sites"
)

// SiteOptions lists the options a site section may set, in the order
// they are written out.
var SiteOptions = []string{
	OptSlices,
	OptSiteRootDir,
	OptNoDateDir,
	OptSubdir,
	OptSlicesInSubdir,
	OptFlimitFile,
}

// DateOptions lists the options a date section may set.
var DateOptions = append(append([]string{}, SiteOptions...), OptI2SInputFile)

var (
	runOptionSet  = map[string]bool{OptRunTopDir: true}
	siteOptionSet = toSet(SiteOptions)
	dateOptionSet = toSet(DateOptions)
	boolOptions   = map[string]bool{OptSlices: true, OptNoDateDir: true, OptSlicesInSubdir: true}
	pathOptions   = map[string]bool{OptRunTopDir: true, OptSiteRootDir: true, OptFlimitFile: true, OptI2SInputFile: true}
)

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Document is a parsed batch configuration: global run options, I2S
// parameter overrides and the per-site, per-date sections.
type Document struct {
	// BaseDir is the absolute directory relative paths resolve against,
	// normally the directory holding the config file.
	BaseDir string

	RunOptions   map[string]string
	I2SOverrides map[int]string

	sites     []*SiteConfig
	siteIndex map[string]*SiteConfig
}

// SiteConfig holds one site's options and its date sections.
type SiteConfig struct {
	ID         string
	Attributes map[string]string

	dates     []*DateConfig
	dateIndex map[string]*DateConfig
}

// DateConfig holds the options that override a site for one date key.
type DateConfig struct {
	Key        string
	Attributes map[string]string
}

// NewDocument returns an empty document rooted at baseDir.
func NewDocument(baseDir string) *Document {
	return &Document{
		BaseDir:      baseDir,
		RunOptions:   map[string]string{},
		I2SOverrides: map[int]string{},
		siteIndex:    map[string]*SiteConfig{},
	}
}

// AddSite appends a new, empty site. It fails with DuplicateSiteError if
// the id is already present.
func (d *Document) AddSite(id string) (*SiteConfig, error) {
	if _, ok := d.siteIndex[id]; ok {
		return nil, &DuplicateSiteError{Site: id}
	}
	s := &SiteConfig{
		ID:         id,
		Attributes: map[string]string{},
		dateIndex:  map[string]*DateConfig{},
	}
	d.sites = append(d.sites, s)
	d.siteIndex[id] = s
	return s, nil
}

// Site returns the site with the given id.
func (d *Document) Site(id string) (*SiteConfig, bool) {
	s, ok := d.siteIndex[id]
	return s, ok
}

// Sites returns the sites in document order.
func (d *Document) Sites() []*SiteConfig {
	return d.sites
}

// Units lists every (site, date key) pair in document order.
func (d *Document) Units() []Unit {
	var units []Unit
	for _, s := range d.sites {
		for _, dc := range s.dates {
			units = append(units, Unit{Site: s.ID, DateKey: dc.Key})
		}
	}
	return units
}

// Unit is one site/date pair, i.e. one run directory.
type Unit struct {
	Site    string
	DateKey string
}

// AddDate appends a date section. A date key may only appear once per
// site; adding it again returns the existing section.
func (s *SiteConfig) AddDate(key string) (*DateConfig, error) {
	if _, err := ParseDateKey(key); err != nil {
		return nil, err
	}
	if dc, ok := s.dateIndex[key]; ok {
		return dc, nil
	}
	dc := &DateConfig{Key: key, Attributes: map[string]string{}}
	s.dates = append(s.dates, dc)
	s.dateIndex[key] = dc
	return dc, nil
}

// Dates returns the date sections in document order.
func (s *SiteConfig) Dates() []*DateConfig {
	return s.dates
}

// RemoveDate drops a date section, if present.
func (s *SiteConfig) RemoveDate(key string) {
	if _, ok := s.dateIndex[key]; !ok {
		return
	}
	delete(s.dateIndex, key)
	for i, dc := range s.dates {
		if dc.Key == key {
			s.dates = append(s.dates[:i], s.dates[i+1:]...)
			return
		}
	}
}

// FindDate looks up a date section. key may be the full section name
// (xxYYYYMMDD) or just its date part (YYYYMMDD).
func (s *SiteConfig) FindDate(key string) (*DateConfig, bool) {
	if dc, ok := s.dateIndex[key]; ok {
		return dc, true
	}
	if key == "" {
		return nil, false
	}
	for _, dc := range s.dates {
		if strings.HasSuffix(dc.Key, key) {
			return dc, true
		}
	}
	return nil, false
}

func (s *SiteConfig) clone() *SiteConfig {
	c := &SiteConfig{
		ID:         s.ID,
		Attributes: copyStrings(s.Attributes),
		dateIndex:  make(map[string]*DateConfig, len(s.dates)),
	}
	for _, dc := range s.dates {
		nd := &DateConfig{Key: dc.Key, Attributes: copyStrings(dc.Attributes)}
		c.dates = append(c.dates, nd)
		c.dateIndex[nd.Key] = nd
	}
	return c
}

func copyStrings(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func sortedSlots(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
