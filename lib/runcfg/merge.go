package runcfg

// Merge combines per-site documents into one multi-site document. Site
// ids must be disjoint. Run options and I2S overrides come from the
// first document that sets them; the result's BaseDir is the first
// document's.
//
// Paths inside each site are made absolute against their own document's
// BaseDir so that the merged document resolves them the same way.
func Merge(docs ...*Document) (*Document, error) {
	if len(docs) == 0 {
		return NewDocument(""), nil
	}
	out := NewDocument(docs[0].BaseDir)
	for _, d := range docs {
		for k, v := range d.RunOptions {
			if _, ok := out.RunOptions[k]; !ok {
				if pathOptions[k] && v != "" {
					v = d.resolvePath(v)
				}
				out.RunOptions[k] = v
			}
		}
		for k, v := range d.I2SOverrides {
			if _, ok := out.I2SOverrides[k]; !ok {
				out.I2SOverrides[k] = v
			}
		}
		for _, s := range d.sites {
			if _, dup := out.siteIndex[s.ID]; dup {
				return nil, &DuplicateSiteError{Site: s.ID}
			}
			c := s.clone()
			absolutize(d, c.Attributes)
			for _, dc := range c.dates {
				absolutize(d, dc.Attributes)
			}
			out.sites = append(out.sites, c)
			out.siteIndex[c.ID] = c
		}
	}
	return out, nil
}

func absolutize(d *Document, attrs map[string]string) {
	for k, v := range attrs {
		if pathOptions[k] && v != "" {
			attrs[k] = d.resolvePath(v)
		}
	}
}
