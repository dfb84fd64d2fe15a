package archiveutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

var (
	// ErrExtraction is returned when an archive cannot be
	// read or one of its members cannot be written.
	ErrExtraction = errors.New("extracting archive")
	// ErrPermission is returned when the requested
	// permissions cannot be applied to an extracted file.
	ErrPermission = errors.New("applying permissions")
)

// Member is a single entry within a Container.
type Member struct {
	// Name is the slash separated path as stored
	// in the archive.
	Name string
	// Mode holds the declared permission bits,
	// or 0 if the archive doesn't record any.
	Mode os.FileMode
	// Dir is true for directory entries.
	Dir bool

	index int
}

// Container gives uniform access to the members of
// an archive regardless of its format.
type Container interface {
	// Members returns every entry in archive order.
	Members() []Member
	// Read returns the full content of a member.
	// Members without content (e.g. directories)
	// return an empty slice.
	Read(m Member) ([]byte, error)
}

// Format is the container and compression
// combination of an archive.
type Format string

const (
	FormatNone  Format = ""
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
	FormatTarBz Format = "tar.bz2"
	FormatZip   Format = "zip"
)

var suffixes = []Format{FormatTarGz, FormatTarXz, FormatTarBz, FormatZip}

// DetectFormat picks the archive format from the
// suffix of a URL. Anything unrecognised is FormatNone
// and should be treated as a single opaque file.
func DetectFormat(src string) Format {
	p := src
	if uri, err := url.Parse(src); err == nil && uri.Path != "" {
		p = uri.Path
	}
	p = strings.ToLower(p)
	for _, f := range suffixes {
		if strings.HasSuffix(p, "."+string(f)) {
			return f
		}
	}
	return FormatNone
}

// IsArchive returns true if src names an archive
// that Open can read.
func IsArchive(src string) bool {
	return DetectFormat(src) != FormatNone
}

// Open reads raw as the archive format implied by src.
func Open(raw []byte, src string) (Container, error) {
	var c Container
	var err error
	switch f := DetectFormat(src); f {
	case FormatTarGz, FormatTarXz, FormatTarBz:
		c, err = openTar(raw, f)
	case FormatZip:
		c, err = openZip(raw)
	default:
		return nil, fmt.Errorf("%w: %s is not a supported archive", ErrExtraction, src)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrExtraction, src, err)
	}
	return c, nil
}
