package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	v1 "github.com/LeeJB-48/embreex4/pkg/api/v1"
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// DefaultName is the catalog file used when no
// path is given.
const DefaultName = "embree.json"

// ErrConfig is returned when the catalog cannot be
// read or does not describe a valid set of packages.
var ErrConfig = errors.New("invalid catalog")

// Read loads the catalog at path. An empty path
// falls back to DefaultName in the working directory.
func Read(ctx context.Context, path string) (v1.Catalog, error) {
	log := logr.FromContextOrDiscard(ctx)
	if path == "" {
		path = DefaultName
	}
	log.V(1).Info("reading catalog", "path", path)

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		log.Error(err, "failed to open catalog", "path", path)
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		log.Error(err, "failed to read catalog", "path", path)
		return nil, err
	}
	return c, nil
}

// Decode reads a JSON or YAML catalog from r and
// validates every entry.
func Decode(r io.Reader) (v1.Catalog, error) {
	var c v1.Catalog
	if err := yaml.NewYAMLOrJSONDecoder(r, 4096).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrConfig, err)
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every entry carries the
// fields needed to install it.
func Validate(c v1.Catalog) error {
	for i, p := range c {
		missing := ""
		switch {
		case p.Name == "":
			missing = "name"
		case p.Platform == "":
			missing = "platform"
		case p.URL == "":
			missing = "url"
		case p.SHA256 == "":
			missing = "sha256"
		case p.Target == "":
			missing = "target"
		}
		if missing != "" {
			return fmt.Errorf("%w: entry %d (%q) is missing required field '%s'", ErrConfig, i, p.Name, missing)
		}
		if p.StripComponents < 0 {
			return fmt.Errorf("%w: entry %d (%q) has negative strip_components", ErrConfig, i, p.Name)
		}
	}
	return nil
}
