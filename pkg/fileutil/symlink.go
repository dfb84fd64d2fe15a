package fileutil

import (
	"os"
)

// IsSymbolicLink reports whether path is itself a
// symbolic link, without following it.
func IsSymbolicLink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true, nil
	}
	return false, nil
}
