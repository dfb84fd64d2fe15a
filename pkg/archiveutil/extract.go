package archiveutil

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/LeeJB-48/embreex4/pkg/fileutil"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-logr/logr"
)

// Options controls how a Container is extracted.
type Options struct {
	// Target is the directory members are written into.
	Target string
	// StripComponents drops this many leading path
	// segments from every member name.
	StripComponents int
	// Skip holds glob patterns, matched against the
	// stripped name, of members to leave out.
	Skip []string
	// Only, when set, extracts the first member whose
	// base name equals it directly into Target and
	// then stops.
	Only string
	// Chmod, when set, is applied to every written file.
	Chmod *os.FileMode
}

// StripComponents removes the first n segments
// of a slash separated name.
func StripComponents(name string, n int) string {
	if n <= 0 {
		return name
	}
	parts := strings.Split(name, "/")
	if n >= len(parts) {
		return ""
	}
	return strings.Join(parts[n:], "/")
}

// Extract writes the members of c to disk according to opts.
func Extract(ctx context.Context, c Container, opts Options) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("target", opts.Target)

	patterns := make([]*Pattern, 0, len(opts.Skip))
	for _, s := range opts.Skip {
		p, err := CompilePattern(s)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExtraction, err)
		}
		patterns = append(patterns, p)
	}

	for _, m := range c.Members() {
		name := StripComponents(m.Name, opts.StripComponents)

		if p := firstMatch(patterns, name); p != nil {
			log.V(5).Info("skipping member", "name", name, "pattern", p.String())
			continue
		}

		if opts.Only == "" {
			if err := extractMember(ctx, c, m, opts.Target, name, opts.Chmod); err != nil {
				return err
			}
			continue
		}

		base := name[strings.LastIndex(name, "/")+1:]
		if base != opts.Only {
			continue
		}
		log.V(1).Info("found requested member", "name", m.Name)
		return extractMember(ctx, c, m, opts.Target, base, opts.Chmod)
	}
	if opts.Only != "" {
		log.Info("requested member was not found in the archive", "name", opts.Only)
	}
	return nil
}

func firstMatch(patterns []*Pattern, name string) *Pattern {
	for _, p := range patterns {
		if p.Match(name) {
			return p
		}
	}
	return nil
}

// extractMember writes a single member to target/name.
func extractMember(ctx context.Context, c Container, m Member, target, name string, chmod *os.FileMode) error {
	log := logr.FromContextOrDiscard(ctx)

	dst, err := memberPath(target, name)
	if err != nil {
		log.Error(err, "refusing to extract member", "name", m.Name)
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if dst == "" {
		log.V(5).Info("member has no name after stripping", "name", m.Name)
		return nil
	}

	// directories are created on demand for the files within
	// them, so existing ones are left untouched
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		log.V(5).Info("skipping existing directory", "path", dst)
		return nil
	}
	if m.Dir {
		return nil
	}

	data, err := c.Read(m)
	if err != nil {
		log.Error(err, "failed to read member", "name", m.Name)
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if len(data) == 0 {
		log.V(5).Info("skipping empty member", "name", m.Name)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		log.Error(err, "failed to create directory", "path", filepath.Dir(dst))
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	// never write through a link left behind by a previous run
	if link, err := fileutil.IsSymbolicLink(dst); err == nil && link {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("%w: %w", ErrExtraction, err)
		}
	}

	mode := m.Mode.Perm()
	if mode == 0 {
		mode = 0644
	}
	log.V(5).Info("creating file", "path", dst, "mode", mode)
	if err := os.WriteFile(dst, data, mode); err != nil {
		log.Error(err, "failed to extract file", "path", dst)
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	if chmod != nil {
		return Chmod(ctx, dst, *chmod)
	}
	return nil
}

// Chmod applies mode to file.
func Chmod(ctx context.Context, file string, mode os.FileMode) error {
	logr.FromContextOrDiscard(ctx).V(5).Info("updating file permissions", "path", file, "mode", mode)
	if err := os.Chmod(file, mode); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPermission, file, err)
	}
	return nil
}

// memberPath returns where name should be written inside
// target. Parent directories are resolved so that they
// cannot escape target, but the final element is kept
// as-is so that a link in its place is replaced rather
// than followed.
func memberPath(target, name string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		return "", nil
	}
	parent, err := securejoin.SecureJoin(target, filepath.FromSlash(path.Dir(clean)))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", name, err)
	}
	return filepath.Join(parent, path.Base(clean)), nil
}
