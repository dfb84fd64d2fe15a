package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LeeJB-48/embreex4/pkg/airutil"
	v1 "github.com/LeeJB-48/embreex4/pkg/api/v1"
	"github.com/LeeJB-48/embreex4/pkg/archiveutil"
	"github.com/LeeJB-48/embreex4/pkg/catalog"
	"github.com/LeeJB-48/embreex4/pkg/fileutil"
	"github.com/LeeJB-48/embreex4/pkg/platform"
	"github.com/go-logr/logr"
	"go.uber.org/multierr"
	"golang.org/x/exp/slices"
)

// Fetcher retrieves remote content that hashes
// to the given SHA256 digest.
type Fetcher interface {
	Fetch(ctx context.Context, src, sha256 string) ([]byte, error)
}

type Option func(i *Installer)

// WithBaseDir sets the directory that relative targets
// containing ".." are anchored to.
func WithBaseDir(dir string) Option {
	return func(i *Installer) {
		i.baseDir = dir
	}
}

// WithKeepGoing continues past failed packages and
// reports every failure once the catalog is exhausted.
// By default the first failure aborts the run.
func WithKeepGoing(keepGoing bool) Option {
	return func(i *Installer) {
		i.keepGoing = keepGoing
	}
}

func New(fetcher Fetcher, opts ...Option) *Installer {
	i := &Installer{fetcher: fetcher}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ParseNames splits comma or space separated package
// names and removes duplicates.
func ParseNames(values []string) []string {
	names := strings.Fields(strings.ReplaceAll(strings.Join(values, " "), ",", " "))
	slices.Sort(names)
	return slices.Compact(names)
}

// Select returns the packages that are named (or every
// package if names is empty) and target the current platform.
func Select(c v1.Catalog, names []string, current platform.Info) ([]v1.PackageSpec, error) {
	if err := platform.Validate(current); err != nil {
		return nil, err
	}
	var out []v1.PackageSpec
	for _, pkg := range c {
		if len(names) > 0 && !slices.Contains(names, pkg.Name) {
			continue
		}
		ok, err := platform.Matches(pkg, current)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, pkg)
		}
	}
	return out, nil
}

// Install fetches, verifies and extracts every requested
// package that targets the current platform. Packages
// whose target already exists are not downloaded again,
// but still have their symlinks repaired. Nothing is
// installed when names is empty.
func (i *Installer) Install(ctx context.Context, c v1.Catalog, names []string, current platform.Info) ([]Result, error) {
	log := logr.FromContextOrDiscard(ctx)

	if len(names) == 0 {
		log.Info("no packages requested")
		return nil, nil
	}

	// check the platform before anything touches the network
	packages, err := Select(c, names, current)
	if err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		log.Info("no packages matched the current platform", "names", names, "platform", current.String())
		return nil, nil
	}

	var results []Result
	var errs error
	for _, pkg := range packages {
		res, err := i.install(ctx, pkg)
		if err != nil {
			log.Error(err, "failed to install package", "name", pkg.Name, "url", pkg.URL)
			err = fmt.Errorf("installing %s: %w", pkg.Name, err)
			if !i.keepGoing {
				return results, err
			}
			errs = multierr.Append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

func (i *Installer) resolve(pkg v1.PackageSpec) (string, error) {
	target, err := airutil.ResolveTarget(pkg.Target, i.baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", catalog.ErrConfig, err)
	}
	return target, nil
}

func (i *Installer) install(ctx context.Context, pkg v1.PackageSpec) (Result, error) {
	target, err := i.resolve(pkg)
	if err != nil {
		return Result{}, err
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("name", pkg.Name, "target", target)
	ctx = logr.NewContext(ctx, log)

	res := Result{
		Name:   pkg.Name,
		Target: target,
	}

	if _, err := os.Stat(target); err == nil {
		log.V(1).Info("target exists, skipping download")
		res.Outcome = OutcomeExisting
		res.Repaired = fileutil.RepairTextSymlinks(ctx, target)
		return res, nil
	}

	src, err := airutil.ExpandEnv(pkg.URL)
	if err != nil {
		return res, fmt.Errorf("%w: %w", catalog.ErrConfig, err)
	}
	data, err := i.fetcher.Fetch(ctx, src, pkg.SHA256)
	if err != nil {
		return res, err
	}

	var chmod *os.FileMode
	if pkg.Chmod != nil {
		mode := pkg.Chmod.Perm()
		chmod = &mode
	}

	if archiveutil.IsArchive(src) {
		c, err := archiveutil.Open(data, src)
		if err != nil {
			return res, err
		}
		log.V(1).Info("extracting archive", "members", len(c.Members()))
		err = archiveutil.Extract(ctx, c, archiveutil.Options{
			Target:          target,
			StripComponents: pkg.StripComponents,
			Skip:            pkg.ExtractSkip,
			Only:            pkg.ExtractOnly,
			Chmod:           chmod,
		})
		if err != nil {
			return res, err
		}
	} else if err := writeFile(ctx, target, data, chmod); err != nil {
		return res, err
	}

	res.Outcome = OutcomeInstalled
	res.Repaired = fileutil.RepairTextSymlinks(ctx, target)
	return res, nil
}

// writeFile stores a non-archive download at target.
func writeFile(ctx context.Context, target string, data []byte, chmod *os.FileMode) error {
	log := logr.FromContextOrDiscard(ctx)
	log.V(1).Info("writing file", "bytes", len(data))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("%w: %w", archiveutil.ErrExtraction, err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", archiveutil.ErrExtraction, err)
	}
	if chmod != nil {
		return archiveutil.Chmod(ctx, target, *chmod)
	}
	return nil
}
