package i2sinput

import "fmt"

// MalformedInputFileError is returned when an input file cannot be mapped
// onto the fixed parameter layout.
type MalformedInputFileError struct {
	Reason string
	// DataLines and Required are set when the header block is truncated.
	DataLines int
	Required  int
}

func (e *MalformedInputFileError) Error() string {
	if e.Required > 0 {
		return fmt.Sprintf("malformed I2S input file: %s (%d parameter lines, need %d)", e.Reason, e.DataLines, e.Required)
	}
	return "malformed I2S input file: " + e.Reason
}

// InvalidOverrideError is returned by Patch for a slot that does not
// exist or a value with the wrong number of lines.
type InvalidOverrideError struct {
	Slot   int
	Reason string
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("parameter %d: %s", e.Slot, e.Reason)
}
