package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeeJB-48/embreex4/pkg/airutil"
	v1 "github.com/LeeJB-48/embreex4/pkg/api/v1"
	"github.com/LeeJB-48/embreex4/pkg/catalog"
	"github.com/LeeJB-48/embreex4/pkg/platform"
	"github.com/go-logr/logr"
)

// Digester retrieves remote content without verifying
// it and returns its hex encoded SHA256 digest.
type Digester interface {
	Digest(ctx context.Context, src string) (string, error)
}

// Lock recomputes the sha256 of every entry in c that
// targets current, or of every entry when current is nil.
// It returns an updated copy of c and the number of
// entries whose digest changed. Entries that are not
// re-hashed are copied unchanged.
func Lock(ctx context.Context, d Digester, c v1.Catalog, current *platform.Info) (v1.Catalog, int, error) {
	log := logr.FromContextOrDiscard(ctx)

	if current != nil {
		if err := platform.Validate(*current); err != nil {
			return nil, 0, err
		}
	}

	out := make(v1.Catalog, len(c))
	copy(out, c)

	var changed int
	for i, pkg := range out {
		if current != nil {
			ok, err := platform.Matches(pkg, *current)
			if err != nil {
				return nil, 0, err
			}
			if !ok {
				continue
			}
		}
		log.V(1).Info("generating checksum", "name", pkg.Name, "url", pkg.URL)
		src, err := airutil.ExpandEnv(pkg.URL)
		if err != nil {
			return nil, 0, fmt.Errorf("locking %s: %w: %w", pkg.Name, catalog.ErrConfig, err)
		}
		digest, err := d.Digest(ctx, src)
		if err != nil {
			return nil, 0, fmt.Errorf("locking %s: %w", pkg.Name, err)
		}
		if !strings.EqualFold(strings.TrimSpace(pkg.SHA256), digest) {
			log.Info("updating checksum", "name", pkg.Name, "platform", pkg.Platform, "old", pkg.SHA256, "new", digest)
			changed++
		}
		out[i].SHA256 = digest
	}
	return out, changed, nil
}
