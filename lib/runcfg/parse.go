package runcfg

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Load reads and parses the config file at path. Relative paths inside it
// resolve against the file's own directory.
func Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, oops.Wrapf(err, "resolving config path %s", path)
	}
	text, err := os.ReadFile(abs)
	if err != nil {
		return nil, oops.Wrapf(err, "reading config file %s", path)
	}
	doc, err := Parse(string(text), filepath.Dir(abs))
	if err != nil {
		return nil, oops.Wrapf(err, "parsing config file %s", path)
	}
	return doc, nil
}

type parser struct {
	doc   *Document
	depth int
	top   string
	site  *SiteConfig
	date  *DateConfig
	seen  map[string]bool
}

// Parse reads a config document from text. Sections nest by bracket
// count: [Run], [I2S] and [Sites] at the top, [[xx]] site sections inside
// [Sites] and [[[xxYYYYMMDD]]] date sections inside a site.
func Parse(text, baseDir string) (*Document, error) {
	p := &parser{doc: NewDocument(baseDir), seen: map[string]bool{}}
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var err error
		if strings.HasPrefix(line, "[") {
			err = p.section(line)
		} else {
			err = p.option(line)
		}
		if err != nil {
			var se *SyntaxError
			if errors.As(err, &se) {
				se.Line = lineNo
			}
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, oops.Wrapf(err, "scanning config text")
	}
	return p.doc, nil
}

func (p *parser) section(line string) error {
	open := len(line) - len(strings.TrimLeft(line, "["))
	body := strings.TrimSpace(stripComment(line[open:]))
	closeCount := len(body) - len(strings.TrimRight(body, "]"))
	if closeCount != open {
		return &SyntaxError{Msg: "unbalanced section brackets in " + strconv.Quote(line)}
	}
	name := strings.TrimSpace(body[:len(body)-closeCount])
	if name == "" {
		return &SyntaxError{Msg: "empty section name"}
	}
	if open > p.depth+1 {
		return &SyntaxError{Msg: "section " + strconv.Quote(name) + " is nested too deeply"}
	}
	p.seen = map[string]bool{}

	switch open {
	case 1:
		switch name {
		case SectionRun, SectionI2S, SectionSites:
		default:
			return &SyntaxError{Msg: "unknown top-level section " + strconv.Quote(name)}
		}
		p.top, p.site, p.date = name, nil, nil
	case 2:
		if p.top != SectionSites {
			return &SyntaxError{Msg: "site section " + strconv.Quote(name) + " outside [Sites]"}
		}
		site, err := p.doc.AddSite(name)
		if err != nil {
			return err
		}
		p.site, p.date = site, nil
	case 3:
		if p.site == nil {
			return &SyntaxError{Msg: "date section " + strconv.Quote(name) + " outside a site"}
		}
		key, err := ParseDateKey(name)
		if err != nil {
			return err
		}
		if key.Site != p.site.ID {
			return &SyntaxError{Msg: "date section " + strconv.Quote(name) + " does not belong to site " + strconv.Quote(p.site.ID)}
		}
		if _, dup := p.site.dateIndex[name]; dup {
			return &SyntaxError{Msg: "duplicate date section " + strconv.Quote(name)}
		}
		dc, err := p.site.AddDate(name)
		if err != nil {
			return err
		}
		p.date = dc
	default:
		return &SyntaxError{Msg: "sections may nest at most three levels"}
	}
	p.depth = open
	return nil
}

func (p *parser) option(line string) error {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return &SyntaxError{Msg: "expected key = value, got " + strconv.Quote(line)}
	}
	key := strings.TrimSpace(line[:eq])
	value, err := parseValue(strings.TrimSpace(line[eq+1:]))
	if err != nil {
		return err
	}
	if key == "" {
		return &SyntaxError{Msg: "missing option name"}
	}
	if p.seen[key] {
		return &SyntaxError{Msg: "duplicate option " + strconv.Quote(key)}
	}
	p.seen[key] = true

	switch {
	case p.date != nil:
		return setOption(p.date.Attributes, p.date.Key, key, value, dateOptionSet)
	case p.site != nil:
		return setOption(p.site.Attributes, p.site.ID, key, value, siteOptionSet)
	case p.top == SectionRun:
		return setOption(p.doc.RunOptions, SectionRun, key, value, runOptionSet)
	case p.top == SectionI2S:
		slot, err := strconv.Atoi(key)
		if err != nil || slot < 1 {
			return &UnknownOptionError{Section: SectionI2S, Option: key}
		}
		p.doc.I2SOverrides[slot] = unescapeBreaks(value)
		return nil
	case p.top == SectionSites:
		return &UnknownOptionError{Section: SectionSites, Option: key}
	}
	return &SyntaxError{Msg: "option " + strconv.Quote(key) + " outside any section"}
}

func setOption(dst map[string]string, section, key, value string, allowed map[string]bool) error {
	if !allowed[key] {
		return &UnknownOptionError{Section: section, Option: key}
	}
	if boolOptions[key] && value != "" {
		if _, err := parseBool(key, value); err != nil {
			return err
		}
	}
	dst[key] = value
	return nil
}

// parseValue handles quoted values and strips trailing comments from
// unquoted ones.
func parseValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if q := raw[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(raw[1:], q)
		if end < 0 {
			return "", &SyntaxError{Msg: "unterminated quoted value"}
		}
		rest := strings.TrimSpace(raw[end+2:])
		if rest != "" && !strings.HasPrefix(rest, "#") {
			return "", &SyntaxError{Msg: "unexpected text after quoted value"}
		}
		return raw[1 : end+1], nil
	}
	return strings.TrimSpace(stripComment(raw)), nil
}

// stripComment drops a '#' comment that starts the string or follows
// whitespace.
func stripComment(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t') {
			return s[:i]
		}
	}
	return s
}

func unescapeBreaks(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\r`, "\r").Replace(s)
}

func escapeBreaks(s string) string {
	return strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`).Replace(s)
}

func parseBool(key, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, &InvalidBooleanError{Attribute: key, Value: value}
}
