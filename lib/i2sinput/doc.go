// Package i2sinput reads and rewrites I2S input files.
//
// An input file is a header of numbered parameters followed by a catalog
// of the data to process. Parameters are identified only by their
// position among non-comment lines, and some take more than one line.
// Patching replaces parameter values while keeping every other byte of
// the file, so a patched file diffs cleanly against its source.
package i2sinput
