package airutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drone/envsubst"
	"github.com/mitchellh/go-homedir"
)

// ExpandEnv substitutes ${VAR} style references
// using the process environment.
func ExpandEnv(s string) (string, error) {
	val, err := envsubst.EvalEnv(s)
	if err != nil {
		return "", fmt.Errorf("expanding environment in '%s': %w", s, err)
	}
	return val, nil
}

// ResolveTarget turns a catalog target into an absolute
// path. Relative targets that climb out of their directory
// (i.e. contain a ".." segment) are anchored to base rather
// than the working directory.
func ResolveTarget(target, base string) (string, error) {
	expanded, err := ExpandEnv(target)
	if err != nil {
		return "", err
	}
	// an empty target would silently become the working directory
	if strings.TrimSpace(expanded) == "" {
		return "", fmt.Errorf("target '%s' is empty after expansion", target)
	}
	target, err = homedir.Expand(expanded)
	if err != nil {
		return "", fmt.Errorf("expanding home directory in '%s': %w", target, err)
	}
	if base != "" && !filepath.IsAbs(target) && hasParentSegment(target) {
		target = filepath.Join(base, target)
	}
	return filepath.Abs(target)
}

func hasParentSegment(p string) bool {
	for _, s := range strings.FieldsFunc(filepath.ToSlash(p), func(r rune) bool { return r == '/' }) {
		if s == ".." {
			return true
		}
	}
	return false
}
