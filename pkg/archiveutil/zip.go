package archiveutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

type zipContainer struct {
	r       *zip.Reader
	members []Member
}

func openZip(raw []byte) (*zipContainer, error) {
	r, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}
	c := &zipContainer{r: r}
	for i, f := range r.File {
		m := Member{
			Name:  f.Name,
			Dir:   strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir(),
			index: i,
		}
		// only trust the mode of regular files, anything else
		// (e.g. a stored symlink) is written out as plain data
		if f.Mode().IsRegular() {
			m.Mode = f.Mode().Perm()
		}
		c.members = append(c.members, m)
	}
	return c, nil
}

func (c *zipContainer) Members() []Member {
	return c.members
}

func (c *zipContainer) Read(m Member) ([]byte, error) {
	if m.index < 0 || m.index >= len(c.r.File) {
		return nil, fmt.Errorf("member %s does not belong to this archive", m.Name)
	}
	if m.Dir {
		return nil, nil
	}
	rc, err := c.r.File[m.index].Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", m.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.Name, err)
	}
	return data, nil
}
