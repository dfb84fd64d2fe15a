package fileutil

import (
	"fmt"

	"github.com/otiai10/copy"
)

// CopyFile copies the content, permissions and
// modification time of src to dst.
func CopyFile(src, dst string) error {
	if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true}); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return nil
}
