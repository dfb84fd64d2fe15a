package archiveutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var embreeMembers = []testMember{
	{name: "embree-4.3.3/", dir: true},
	{name: "embree-4.3.3/lib/", dir: true},
	{name: "embree-4.3.3/lib/libembree4.so.4", content: "shared object", mode: 0755},
	{name: "embree-4.3.3/lib/libembree4.so", linkname: "libembree4.so.4"},
	{name: "embree-4.3.3/include/embree4/rtcore.h", content: "#pragma once\n"},
	{name: "embree-4.3.3/doc/README.md", content: "docs"},
	{name: "embree-4.3.3/bin/embree_verify.pdb", content: "symbols"},
	{name: "embree-4.3.3/empty.txt", content: ""},
}

func newContext(t *testing.T) context.Context {
	return logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestStripComponents(t *testing.T) {
	var cases = []struct {
		name string
		n    int
		out  string
	}{
		{"a/b/c", 0, "a/b/c"},
		{"a/b/c", 1, "b/c"},
		{"a/b/c", 2, "c"},
		{"a/b/c", 3, ""},
		{"a/b/c", 7, ""},
		{"a/b/", 1, "b/"},
		{"./a/b", 1, "a/b"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualValues(t, tt.out, StripComponents(tt.name, tt.n))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	var cases = []struct {
		src string
		f   Format
	}{
		{"https://example.com/embree.tar.gz", FormatTarGz},
		{"https://example.com/embree.tar.xz", FormatTarXz},
		{"https://example.com/embree.tar.bz2", FormatTarBz},
		{"https://example.com/embree.zip", FormatZip},
		{"https://example.com/EMBREE.ZIP", FormatZip},
		{"https://example.com/embree.zip?token=abc", FormatZip},
		{"/tmp/local.tar.gz", FormatTarGz},
		{"https://example.com/embree.tgz", FormatNone},
		{"https://example.com/tool", FormatNone},
		{"https://example.com/tool.exe", FormatNone},
	}
	for _, tt := range cases {
		t.Run(tt.src, func(t *testing.T) {
			assert.EqualValues(t, tt.f, DetectFormat(tt.src))
			assert.EqualValues(t, tt.f != FormatNone, IsArchive(tt.src))
		})
	}
}

func TestExtract_Formats(t *testing.T) {
	var cases = []struct {
		name string
		src  string
		raw  func(t *testing.T) []byte
	}{
		{"tar.gz", "embree.tar.gz", func(t *testing.T) []byte { return newTarGz(t, embreeMembers) }},
		{"tar.xz", "embree.tar.xz", func(t *testing.T) []byte { return newTarXz(t, embreeMembers) }},
		{"tar.bz2", "embree.tar.bz2", func(t *testing.T) []byte {
			data, err := os.ReadFile("./testdata/test.tar.bz2")
			require.NoError(t, err)
			return data
		}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newContext(t)
			target := t.TempDir()

			c, err := Open(tt.raw(t), tt.src)
			require.NoError(t, err)

			err = Extract(ctx, c, Options{Target: target, StripComponents: 1})
			require.NoError(t, err)

			assert.EqualValues(t, "#pragma once\n", readFile(t, filepath.Join(target, "include", "embree4", "rtcore.h")))

			// links inside a tarball are written as copies of their target
			lib := readFile(t, filepath.Join(target, "lib", "libembree4.so.4"))
			assert.EqualValues(t, lib, readFile(t, filepath.Join(target, "lib", "libembree4.so")))
			info, err := os.Lstat(filepath.Join(target, "lib", "libembree4.so"))
			require.NoError(t, err)
			assert.True(t, info.Mode().IsRegular())
		})
	}
}

func TestExtract_Zip(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()

	raw := newZip(t, []testMember{
		{name: "embree-4.3.3.x64.windows/", dir: true},
		{name: "embree-4.3.3.x64.windows/bin/embree4.dll", content: "dll"},
		{name: "embree-4.3.3.x64.windows/lib/embree4.lib", content: "import library"},
		{name: "embree-4.3.3.x64.windows/lib/libembree4.so", content: "libembree4.so.4"},
	})
	c, err := Open(raw, "https://example.com/embree-4.3.3.x64.windows.zip")
	require.NoError(t, err)
	assert.Len(t, c.Members(), 4)
	assert.True(t, c.Members()[0].Dir)

	err = Extract(ctx, c, Options{Target: target, StripComponents: 1})
	require.NoError(t, err)

	assert.EqualValues(t, "dll", readFile(t, filepath.Join(target, "bin", "embree4.dll")))
	// placeholder links come out as text and are left for repair
	assert.EqualValues(t, "libembree4.so.4", readFile(t, filepath.Join(target, "lib", "libembree4.so")))
}

func TestExtract_StripComponents(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, []testMember{{name: "a/b/c", content: "hello"}}), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target, StripComponents: 1}))

	assert.EqualValues(t, "hello", readFile(t, filepath.Join(target, "b", "c")))
	_, err = os.Stat(filepath.Join(target, "a"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_Skip(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, embreeMembers), "x.tar.gz")
	require.NoError(t, err)
	err = Extract(ctx, c, Options{
		Target:          target,
		StripComponents: 1,
		Skip:            []string{"doc/*", "*.pdb"},
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(target, "doc", "README.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(target, "bin", "embree_verify.pdb"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(target, "lib", "libembree4.so.4"))
	assert.NoError(t, err)
}

func TestExtract_SkipBeatsOnly(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, []testMember{
		{name: "a/foo.txt", content: "first"},
		{name: "b/foo.txt", content: "second"},
	}), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target, Only: "foo.txt", Skip: []string{"a/*"}}))

	assert.EqualValues(t, "second", readFile(t, filepath.Join(target, "foo.txt")))
}

func TestExtract_Only(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, []testMember{
		{name: "pkg/README", content: "readme"},
		{name: "pkg/a/foo.txt", content: "first"},
		{name: "pkg/b/foo.txt", content: "second"},
		// reading this would fail, so it must never be looked at
		{name: "pkg/c/foo.txt", linkname: "missing"},
	}), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target, Only: "foo.txt"}))

	assert.EqualValues(t, "first", readFile(t, filepath.Join(target, "foo.txt")))
	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExtract_OnlyMissing(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, embreeMembers), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target, Only: "nothing.dll"}))

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_Empty(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, embreeMembers), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target, StripComponents: 1}))

	_, err = os.Stat(filepath.Join(target, "empty.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_ExistingDirectory(t *testing.T) {
	ctx := newContext(t)
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, "lib", "thing"), 0755))

	// a file member colliding with an existing directory is left alone
	c, err := Open(newTarGz(t, []testMember{
		{name: "lib/", dir: true},
		{name: "lib/thing", content: "not a directory"},
		{name: "lib/other", content: "other"},
	}), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target}))

	info, err := os.Stat(filepath.Join(target, "lib", "thing"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.EqualValues(t, "other", readFile(t, filepath.Join(target, "lib", "other")))
}

func TestExtract_Chmod(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not supported on windows")
	}
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, []testMember{
		{name: "bin/tool", content: "#!/bin/sh\n", mode: 0600},
		{name: "lib/libfoo.so", content: "lib", mode: 0755},
	}), "x.tar.gz")
	require.NoError(t, err)

	mode := os.FileMode(0750)
	require.NoError(t, Extract(ctx, c, Options{Target: target, Chmod: &mode}))

	for _, name := range []string{"bin/tool", "lib/libfoo.so"} {
		info, err := os.Stat(filepath.Join(target, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.EqualValues(t, mode, info.Mode().Perm())
	}
}

func TestExtract_MemberMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not supported on windows")
	}
	ctx := newContext(t)
	target := t.TempDir()

	c, err := Open(newTarGz(t, []testMember{{name: "bin/tool", content: "#!/bin/sh\n", mode: 0755}}), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target}))

	info, err := os.Stat(filepath.Join(target, "bin", "tool"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0100)
}

func TestExtract_Traversal(t *testing.T) {
	ctx := newContext(t)
	root := t.TempDir()
	target := filepath.Join(root, "target")

	c, err := Open(newTarGz(t, []testMember{{name: "../../evil.txt", content: "evil"}}), "x.tar.gz")
	require.NoError(t, err)
	require.NoError(t, Extract(ctx, c, Options{Target: target}))

	_, err = os.Stat(filepath.Join(root, "evil.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.EqualValues(t, "evil", readFile(t, filepath.Join(target, "evil.txt")))
}

func TestExtract_BrokenLink(t *testing.T) {
	ctx := newContext(t)

	c, err := Open(newTarGz(t, []testMember{{name: "lib/libfoo.so", linkname: "libfoo.so.1"}}), "x.tar.gz")
	require.NoError(t, err)
	err = Extract(ctx, c, Options{Target: t.TempDir()})
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestOpen_Invalid(t *testing.T) {
	var cases = []string{
		"x.tar.gz",
		"x.tar.xz",
		"x.zip",
		"x.bin",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Open([]byte("definitely not an archive"), src)
			assert.ErrorIs(t, err, ErrExtraction)
		})
	}
}
