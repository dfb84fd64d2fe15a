package installer

import (
	"context"
	"fmt"
	"os"

	v1 "github.com/LeeJB-48/embreex4/pkg/api/v1"
	"github.com/LeeJB-48/embreex4/pkg/downloader"
	"github.com/LeeJB-48/embreex4/pkg/platform"
	"github.com/go-logr/logr"
	"github.com/gosimple/hashdir"
)

// Status reports whether each selected package is present
// on disk, along with a digest of what is there. It never
// touches the network.
func (i *Installer) Status(ctx context.Context, c v1.Catalog, names []string, current platform.Info) ([]Status, error) {
	log := logr.FromContextOrDiscard(ctx)

	packages, err := Select(c, names, current)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(packages))
	for _, pkg := range packages {
		target, err := i.resolve(pkg)
		if err != nil {
			return nil, err
		}
		s := Status{
			Name:     pkg.Name,
			Platform: pkg.Platform,
			Arch:     pkg.Arch,
			Target:   target,
		}
		info, err := os.Stat(target)
		if err == nil {
			s.Installed = true
			s.Digest, err = digest(target, info)
			if err != nil {
				log.Error(err, "failed to generate digest", "alg", "sha256", "path", target)
				return nil, err
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func digest(path string, info os.FileInfo) (string, error) {
	if info.IsDir() {
		d, err := hashdir.Make(path, "sha256")
		if err != nil {
			return "", fmt.Errorf("hashing directory %s: %w", path, err)
		}
		return "sha256:" + d, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return "sha256:" + downloader.Sum256(data), nil
}
