package util

import (
	"os"
)

// CheckFileExists reports whether fpath exists, following symlinks.
func CheckFileExists(fpath string) bool {
	_, e := os.Stat(fpath)
	return e == nil
}

// LinkExists reports whether fpath exists without following it, so a
// broken symlink still counts.
func LinkExists(fpath string) bool {
	_, e := os.Lstat(fpath)
	return e == nil
}

// IsBrokenLink reports whether fpath is a symlink whose target is missing.
func IsBrokenLink(fpath string) bool {
	fi, err := os.Lstat(fpath)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return false
	}
	_, err = os.Stat(fpath)
	return err != nil
}

// IsExecutable reports whether fpath is a regular file with an execute bit.
func IsExecutable(fpath string) bool {
	fi, err := os.Stat(fpath)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return fi.Mode().Perm()&0o111 != 0
}
