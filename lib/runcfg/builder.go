package runcfg

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/samber/oops"
)

var inputFileKeyRe = regexp.MustCompile(`([A-Za-z]{2})(\d{4,8})`)

// SliceDetector reports whether the I2S input file at path lists slices
// rather than Opus interferograms.
type SliceDetector func(path string) (bool, error)

// BuildOptions controls BuildFromInputFiles.
type BuildOptions struct {
	// ConfigDir is the directory the new config file will live in.
	ConfigDir string
	// RelPaths writes input file paths relative to ConfigDir instead of
	// absolute.
	RelPaths bool
	// UsesSlices decides the site-level slices/subdir defaults. If nil,
	// every site defaults to Opus interferograms.
	UsesSlices SliceDetector
}

// InputFileGroups maps site id -> date key -> input file path.
type InputFileGroups map[string]map[string]string

// GroupInputFiles groups I2S input files by the site+date token
// (xxYYYY, xxYYYYMM or xxYYYYMMDD) in their base names. The returned
// order slice lists sites in first-seen order.
func GroupInputFiles(files []string) (InputFileGroups, []string, error) {
	groups := InputFileGroups{}
	var order []string
	for _, f := range files {
		m := inputFileKeyRe.FindStringSubmatch(filepath.Base(f))
		if m == nil {
			return nil, nil, oops.Errorf("%s does not contain a site abbreviation + date string in its name", f)
		}
		key, err := ParseDateKey(m[0])
		if err != nil {
			return nil, nil, oops.Wrapf(err, "input file %s", f)
		}
		if _, ok := groups[key.Site]; !ok {
			groups[key.Site] = map[string]string{}
			order = append(order, key.Site)
		}
		groups[key.Site][key.String()] = f
	}
	return groups, order, nil
}

// BuildFromInputFiles creates a starting document with one site section
// per site found in files and one date section per input file. Site
// options get placeholder values to be filled in by hand.
func BuildFromInputFiles(files []string, opts BuildOptions) (*Document, error) {
	groups, order, err := GroupInputFiles(files)
	if err != nil {
		return nil, err
	}
	cfgDir, err := filepath.Abs(opts.ConfigDir)
	if err != nil {
		return nil, oops.Wrapf(err, "resolving config directory %s", opts.ConfigDir)
	}

	doc := NewDocument(cfgDir)
	doc.RunOptions[OptRunTopDir] = ""
	for _, siteID := range order {
		site, err := doc.AddSite(siteID)
		if err != nil {
			return nil, err
		}
		slices, err := majorityUsesSlices(groups[siteID], opts.UsesSlices)
		if err != nil {
			return nil, err
		}
		site.Attributes[OptSlices] = "0"
		site.Attributes[OptSubdir] = "igms"
		if slices {
			site.Attributes[OptSlices] = "1"
			site.Attributes[OptSubdir] = "slices"
		}
		site.Attributes[OptSiteRootDir] = ""
		site.Attributes[OptNoDateDir] = "0"
		site.Attributes[OptSlicesInSubdir] = "0"
		site.Attributes[OptFlimitFile] = ""

		for _, key := range sortedKeys(groups[siteID]) {
			dc, err := site.AddDate(key)
			if err != nil {
				return nil, err
			}
			p, err := inputFilePath(groups[siteID][key], cfgDir, opts.RelPaths)
			if err != nil {
				return nil, err
			}
			dc.Attributes[OptI2SInputFile] = p
		}
	}
	return doc, nil
}

func majorityUsesSlices(files map[string]string, detect SliceDetector) (bool, error) {
	if detect == nil || len(files) == 0 {
		return false, nil
	}
	n := 0
	for _, f := range files {
		if !filepath.IsAbs(f) {
			abs, err := filepath.Abs(f)
			if err != nil {
				return false, oops.Wrapf(err, "resolving %s", f)
			}
			f = abs
		}
		uses, err := detect(f)
		if err != nil {
			return false, oops.Wrapf(err, "checking %s for slices", f)
		}
		if uses {
			n++
		}
	}
	return float64(n) > 0.5*float64(len(files)), nil
}

func inputFilePath(f, cfgDir string, rel bool) (string, error) {
	abs, err := filepath.Abs(f)
	if err != nil {
		return "", oops.Wrapf(err, "resolving %s", f)
	}
	if !rel {
		return abs, nil
	}
	r, err := filepath.Rel(cfgDir, abs)
	if err != nil {
		return "", oops.Wrapf(err, "making %s relative to %s", abs, cfgDir)
	}
	return r, nil
}

// Overlay copies every option set in old over doc, adding sites and date
// sections doc lacks. Relative paths in old are made absolute against
// old's BaseDir first.
func Overlay(doc, old *Document) {
	for k, v := range old.RunOptions {
		if pathOptions[k] && v != "" {
			v = old.resolvePath(v)
		}
		doc.RunOptions[k] = v
	}
	for k, v := range old.I2SOverrides {
		doc.I2SOverrides[k] = v
	}
	for _, oldSite := range old.sites {
		site, ok := doc.Site(oldSite.ID)
		if !ok {
			site, _ = doc.AddSite(oldSite.ID)
		}
		overlayAttributes(old, site.Attributes, oldSite.Attributes)
		for _, od := range oldSite.dates {
			dc, err := site.AddDate(od.Key)
			if err != nil {
				continue
			}
			overlayAttributes(old, dc.Attributes, od.Attributes)
		}
	}
}

func overlayAttributes(old *Document, dst, src map[string]string) {
	for k, v := range src {
		if pathOptions[k] && v != "" {
			v = old.resolvePath(v)
		}
		dst[k] = v
	}
}

// UpdateInputFiles points every date section at the matching file in
// files. Date sections with no match are removed unless keepMissing is
// set. It returns the keys of removed sections.
func UpdateInputFiles(doc *Document, files []string, keepMissing bool) ([]string, error) {
	groups, _, err := GroupInputFiles(files)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, site := range doc.sites {
		siteFiles := groups[site.ID]
		for _, dc := range append([]*DateConfig(nil), site.dates...) {
			f, ok := siteFiles[dc.Key]
			if !ok {
				if !keepMissing {
					site.RemoveDate(dc.Key)
					removed = append(removed, dc.Key)
				}
				continue
			}
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, oops.Wrapf(err, "resolving %s", f)
			}
			dc.Attributes[OptI2SInputFile] = abs
		}
	}
	return removed, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := keys[i][2:], keys[j][2:]
		if di != dj {
			return di < dj
		}
		return keys[i] < keys[j]
	})
	return keys
}
