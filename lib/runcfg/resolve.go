package runcfg

import (
	"path/filepath"
)

// Resolved holds the effective options for one site/date unit. Paths are
// absolute when the document has a BaseDir.
type Resolved struct {
	Site    string
	DateKey string

	Slices         bool
	SiteRootDir    string
	NoDateDir      bool
	Subdir         string
	SlicesInSubdir bool
	FlimitFile     string
	I2SInputFile   string
}

// Resolve computes the effective options for a site and date key. Each
// option comes from the date section when present there, from the site
// section otherwise, even when the value is empty. There is exactly one
// level of fallback. Path options must not be empty.
func Resolve(doc *Document, siteID, dateKey string) (Resolved, error) {
	site, ok := doc.Site(siteID)
	if !ok {
		return Resolved{}, &UnknownSiteError{Site: siteID}
	}
	date, ok := site.FindDate(dateKey)
	if !ok {
		return Resolved{}, &UnknownSiteError{Site: siteID, DateKey: dateKey}
	}

	r := Resolved{Site: siteID, DateKey: date.Key}
	lookup := func(name string) (string, error) {
		if v, ok := date.Attributes[name]; ok {
			return v, nil
		}
		if v, ok := site.Attributes[name]; ok {
			return v, nil
		}
		return "", &MissingAttributeError{Attribute: name, Site: siteID, DateKey: date.Key}
	}
	boolean := func(name string, dst *bool) error {
		v, err := lookup(name)
		if err != nil {
			return err
		}
		*dst, err = parseBool(name, v)
		return err
	}
	path := func(name string, dst *string) error {
		v, err := lookup(name)
		if err != nil {
			return err
		}
		if v == "" {
			return &EmptyPathError{Attribute: name, Site: siteID, DateKey: date.Key}
		}
		*dst = doc.resolvePath(v)
		return nil
	}

	var err error
	if err = boolean(OptSlices, &r.Slices); err != nil {
		return Resolved{}, err
	}
	if err = path(OptSiteRootDir, &r.SiteRootDir); err != nil {
		return Resolved{}, err
	}
	if err = boolean(OptNoDateDir, &r.NoDateDir); err != nil {
		return Resolved{}, err
	}
	if r.Subdir, err = lookup(OptSubdir); err != nil {
		return Resolved{}, err
	}
	if err = boolean(OptSlicesInSubdir, &r.SlicesInSubdir); err != nil {
		return Resolved{}, err
	}
	if err = path(OptFlimitFile, &r.FlimitFile); err != nil {
		return Resolved{}, err
	}
	if err = path(OptI2SInputFile, &r.I2SInputFile); err != nil {
		return Resolved{}, err
	}
	return r, nil
}

// DataDir is the directory the unit's interferograms, or slice run
// directories, are read from: site_root_dir[/date key]/subdir.
func (r Resolved) DataDir() string {
	base := r.SiteRootDir
	if !r.NoDateDir {
		base = filepath.Join(base, r.DateKey)
	}
	return filepath.Join(base, r.Subdir)
}

// RunTopDir is the resolved run_top_dir.
func (d *Document) RunTopDir() (string, error) {
	v := d.RunOptions[OptRunTopDir]
	if v == "" {
		return "", &MissingAttributeError{Attribute: OptRunTopDir, Site: SectionRun}
	}
	return d.resolvePath(v), nil
}

// RunDir is the directory I2S runs in for a unit:
// run_top_dir/<site>/<date key>.
func (d *Document) RunDir(siteID, dateKey string) (string, error) {
	top, err := d.RunTopDir()
	if err != nil {
		return "", err
	}
	site, ok := d.Site(siteID)
	if !ok {
		return "", &UnknownSiteError{Site: siteID}
	}
	date, ok := site.FindDate(dateKey)
	if !ok {
		return "", &UnknownSiteError{Site: siteID, DateKey: dateKey}
	}
	return filepath.Join(top, site.ID, date.Key), nil
}

func (d *Document) resolvePath(p string) string {
	if filepath.IsAbs(p) || d.BaseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(d.BaseDir, p)
}
