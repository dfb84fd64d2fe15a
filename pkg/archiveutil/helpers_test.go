package archiveutil

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type testMember struct {
	name     string
	content  string
	mode     int64
	dir      bool
	linkname string
}

func writeTar(t *testing.T, buf *bytes.Buffer, members []testMember) {
	t.Helper()
	tw := tar.NewWriter(buf)
	for _, m := range members {
		hdr := &tar.Header{
			Name: m.name,
			Mode: m.mode,
			Size: int64(len(m.content)),
		}
		switch {
		case m.dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		case m.linkname != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = m.linkname
			hdr.Size = 0
		default:
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(m.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
}

func newTarGz(t *testing.T, members []testMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	var tarBuf bytes.Buffer
	writeTar(t, &tarBuf, members)

	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func newTarXz(t *testing.T, members []testMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	var tarBuf bytes.Buffer
	writeTar(t, &tarBuf, members)

	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = xw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	return buf.Bytes()
}

func newZip(t *testing.T, members []testMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		name := m.name
		if m.dir && name[len(name)-1] != '/' {
			name += "/"
		}
		w, err := zw.Create(name)
		require.NoError(t, err)
		if !m.dir {
			_, err = w.Write([]byte(m.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
