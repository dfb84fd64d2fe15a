package archiveutil

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/mholt/archives"
)

// maxLinkDepth bounds how many links we follow when
// resolving a link member to its content.
const maxLinkDepth = 40

type tarEntry struct {
	header  *tar.Header
	content []byte
}

// tarContainer holds a fully decoded tar stream. Tar
// can only be read front to back, so members are
// buffered on open to allow random access by Read.
type tarContainer struct {
	entries []tarEntry
	members []Member
	byName  map[string]int
}

func decompress(raw []byte, f Format) (io.ReadCloser, error) {
	var codec archives.Decompressor
	switch f {
	case FormatTarGz:
		codec = archives.Gz{}
	case FormatTarXz:
		codec = archives.Xz{}
	case FormatTarBz:
		codec = archives.Bz2{}
	default:
		return nil, fmt.Errorf("unknown tar compression: %s", f)
	}
	return codec.OpenReader(bytes.NewReader(raw))
}

func openTar(raw []byte, f Format) (*tarContainer, error) {
	r, err := decompress(raw, f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	tr := tar.NewReader(r)

	c := &tarContainer{
		byName: map[string]int{},
	}
	for {
		header, err := tr.Next()
		switch {
		case errors.Is(err, io.EOF):
			return c, nil
		case err != nil:
			return nil, fmt.Errorf("reading tar header: %w", err)
		case header == nil:
			continue
		}

		entry := tarEntry{header: header}
		if header.Typeflag == tar.TypeReg {
			entry.content, err = io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", header.Name, err)
			}
		}

		name := header.Name
		isDir := header.Typeflag == tar.TypeDir
		if isDir {
			name = strings.TrimSuffix(name, "/")
		}

		idx := len(c.entries)
		c.entries = append(c.entries, entry)
		c.byName[path.Clean(name)] = idx
		c.members = append(c.members, Member{
			Name:  name,
			Mode:  os.FileMode(header.Mode).Perm(),
			Dir:   isDir,
			index: idx,
		})
	}
}

func (c *tarContainer) Members() []Member {
	return c.members
}

// Read returns the content of a member. Link members
// resolve to the content of whatever they point at
// inside the archive.
func (c *tarContainer) Read(m Member) ([]byte, error) {
	if m.index < 0 || m.index >= len(c.entries) {
		return nil, fmt.Errorf("member %s does not belong to this archive", m.Name)
	}
	return c.read(m.index, 0)
}

func (c *tarContainer) read(idx, depth int) ([]byte, error) {
	header := c.entries[idx].header
	switch header.Typeflag {
	case tar.TypeReg:
		return c.entries[idx].content, nil
	case tar.TypeSymlink, tar.TypeLink:
		if depth >= maxLinkDepth {
			return nil, fmt.Errorf("too many levels of links resolving %s", header.Name)
		}
		// symlinks are relative to the directory holding
		// them, hard links to the root of the archive
		target := header.Linkname
		if header.Typeflag == tar.TypeSymlink {
			target = path.Join(path.Dir(header.Name), header.Linkname)
		}
		next, ok := c.byName[path.Clean(target)]
		if !ok {
			return nil, fmt.Errorf("link target %s of %s not found in archive", header.Linkname, header.Name)
		}
		return c.read(next, depth+1)
	default:
		return nil, nil
	}
}
