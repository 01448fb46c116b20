package runcfg

import "fmt"

// MissingAttributeError is returned when an option is set neither in a
// date section nor in the site section that owns it.
type MissingAttributeError struct {
	Attribute string
	Site      string
	DateKey   string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("option %q was not found in the date section %q nor in site %q",
		e.Attribute, e.DateKey, e.Site)
}

// EmptyPathError is returned when a path option resolves to an empty
// value, such as the placeholders left by build-cfg.
type EmptyPathError struct {
	Attribute string
	Site      string
	DateKey   string
}

func (e *EmptyPathError) Error() string {
	return fmt.Sprintf("option %q is empty for date section %q of site %q", e.Attribute, e.DateKey, e.Site)
}

// InvalidBooleanError is returned for a boolean option whose literal is
// not one of true/false/1/0.
type InvalidBooleanError struct {
	Attribute string
	Value     string
}

func (e *InvalidBooleanError) Error() string {
	return fmt.Sprintf("option %q: %q is not a boolean (expected true, false, 1 or 0)", e.Attribute, e.Value)
}

// DuplicateSiteError is returned when merging documents that define the
// same site.
type DuplicateSiteError struct {
	Site string
}

func (e *DuplicateSiteError) Error() string {
	return fmt.Sprintf("site %q is defined in more than one document", e.Site)
}

// InvalidDateKeyError is returned for date keys that are not two letters
// followed by 4, 6 or 8 digits.
type InvalidDateKeyError struct {
	Key string
}

func (e *InvalidDateKeyError) Error() string {
	return fmt.Sprintf("%q is not a valid date key (want xxYYYY, xxYYYYMM or xxYYYYMMDD)", e.Key)
}

// UnknownOptionError is returned when a section sets an option outside the
// recognized set for its level.
type UnknownOptionError struct {
	Section string
	Option  string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("section %q: unknown option %q", e.Section, e.Option)
}

// SyntaxError reports a malformed line in a config document.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// UnknownSiteError is returned when a site or date key is not present in a
// document.
type UnknownSiteError struct {
	Site    string
	DateKey string
}

func (e *UnknownSiteError) Error() string {
	if e.DateKey == "" {
		return fmt.Sprintf("site %q is not configured", e.Site)
	}
	return fmt.Sprintf("no date section matching %q in site %q", e.DateKey, e.Site)
}
