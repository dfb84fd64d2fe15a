package fileutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

// MaxPlaceholderSize is the largest file that is considered
// to be a symlink stored as text. Some archivers (notably on
// Windows) write the link target into a small regular file
// instead of creating a link.
const MaxPlaceholderSize = 64

// RepairTextSymlinks looks for placeholder files in the lib
// directory of root and replaces them with real symbolic
// links, or with a copy of the target where links cannot be
// created. Failures are logged and never returned. It
// returns the number of files that were repaired.
//
// A genuine file of MaxPlaceholderSize bytes or less whose
// content happens to name a sibling will also be replaced.
func RepairTextSymlinks(ctx context.Context, root string) int {
	log := logr.FromContextOrDiscard(ctx)
	libDir := filepath.Join(root, "lib")

	info, err := os.Stat(libDir)
	if err != nil || !info.IsDir() {
		log.V(5).Info("no library directory to repair", "path", libDir)
		return 0
	}

	entries, err := os.ReadDir(libDir)
	if err != nil {
		log.Error(err, "failed to list library directory", "path", libDir)
		return 0
	}

	var repaired int
	for _, e := range entries {
		ok, err := repairPlaceholder(ctx, libDir, e.Name())
		if err != nil {
			log.Error(err, "failed to repair placeholder", "path", filepath.Join(libDir, e.Name()))
			continue
		}
		if ok {
			repaired++
		}
	}
	if repaired > 0 {
		log.Info("repaired placeholder symlinks", "path", libDir, "count", repaired)
	}
	return repaired
}

var errNotPlaceholder = errors.New("not a placeholder")

// maxChain bounds how many placeholders are
// followed when a copy has to be made.
const maxChain = 40

// swapped out in tests to simulate filesystems
// without link support
var (
	symlink  = os.Symlink
	copyFile = CopyFile
)

// placeholderTarget returns the name a placeholder points
// at, or errNotPlaceholder if path doesn't look like one.
func placeholderTarget(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	// links (including ones we made on a previous run)
	// and directories are never placeholders
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", errNotPlaceholder
	}
	if info.Size() == 0 || info.Size() > MaxPlaceholderSize {
		return "", errNotPlaceholder
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	target := strings.TrimSpace(string(data))
	// only plain sibling names are considered
	if target == "" || target == name || target != filepath.Base(target) || strings.ContainsAny(target, `/\`) {
		return "", errNotPlaceholder
	}
	if _, err := os.Stat(filepath.Join(dir, target)); err != nil {
		return "", errNotPlaceholder
	}
	return target, nil
}

func repairPlaceholder(ctx context.Context, dir, name string) (bool, error) {
	log := logr.FromContextOrDiscard(ctx)

	target, err := placeholderTarget(dir, name)
	if errors.Is(err, errNotPlaceholder) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	path := filepath.Join(dir, name)
	original, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	log.V(1).Info("replacing placeholder with symlink", "path", path, "target", target)
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("removing placeholder: %w", err)
	}
	if err := symlink(target, path); err != nil {
		log.V(1).Info("unable to create symlink, copying instead", "path", path, "error", err.Error())
		if err := copyFile(filepath.Join(dir, resolvePlaceholder(dir, target)), path); err != nil {
			// put the placeholder back so a later run can retry
			_ = os.Remove(path)
			if rerr := os.WriteFile(path, original, 0644); rerr != nil {
				log.Error(rerr, "failed to restore placeholder", "path", path)
			}
			return false, fmt.Errorf("copying %s: %w", target, err)
		}
	}
	return true, nil
}

// resolvePlaceholder follows a chain of placeholders
// starting at name and returns the first real file.
func resolvePlaceholder(dir, name string) string {
	for i := 0; i < maxChain; i++ {
		next, err := placeholderTarget(dir, name)
		if err != nil {
			return name
		}
		name = next
	}
	return name
}
