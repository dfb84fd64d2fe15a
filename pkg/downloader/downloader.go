package downloader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-getter"
)

type Option func(d *Downloader)

// WithProgress draws a progress bar for each
// download onto w.
func WithProgress(w io.Writer) Option {
	return func(d *Downloader) {
		if w != nil {
			d.progress = &progressTracker{out: w}
		}
	}
}

// WithScratchDir sets the directory that downloads are
// staged in before being read into memory. Defaults to the
// system temporary directory.
func WithScratchDir(dir string) Option {
	return func(d *Downloader) {
		d.scratchDir = dir
	}
}

func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch retrieves src and verifies that it hashes to
// the expected SHA256 digest. Nothing is returned unless
// verification succeeds.
func (d *Downloader) Fetch(ctx context.Context, src, sha256 string) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src)

	data, err := d.get(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := Verify(src, data, sha256); err != nil {
		log.Error(err, "failed to verify download")
		return nil, err
	}
	log.V(1).Info("verified download", "bytes", len(data))
	return data, nil
}

// Digest retrieves src without verifying it and returns
// the hex encoded SHA256 digest of its content.
func (d *Downloader) Digest(ctx context.Context, src string) (string, error) {
	data, err := d.get(ctx, src)
	if err != nil {
		return "", err
	}
	return Sum256(data), nil
}

func (d *Downloader) get(ctx context.Context, src string) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src)
	log.Info("downloading file")

	uri, err := url.Parse(src)
	if err != nil {
		log.Error(err, "failed to parse url")
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	// the body is staged on disk by the getter, but it is only
	// ever handed back in memory so we can throw it away as soon
	// as we've read it
	scratch, err := os.MkdirTemp(d.scratchDir, "embree-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("%w: preparing scratch directory: %w", ErrNetwork, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Error(err, "failed to remove scratch directory", "path", scratch)
		}
	}()

	name := path.Base(uri.Path)
	if name == "" || name == "." || name == "/" {
		name = "download"
	}
	dst := filepath.Join(scratch, name)
	log.V(1).Info("preparing to download file", "dst", dst)

	pwd, _ := os.Getwd()
	httpGetter := &getter.HttpGetter{
		DoNotCheckHeadFirst: true,
	}
	client := &getter.Client{
		Ctx:             ctx,
		Src:             src,
		Dst:             dst,
		Pwd:             pwd,
		Mode:            getter.ClientModeFile,
		DisableSymlinks: true,
		// archives are handled by us, never by the getter
		Decompressors: map[string]getter.Decompressor{},
		Getters: map[string]getter.Getter{
			"file":  &getter.FileGetter{Copy: true},
			"http":  httpGetter,
			"https": httpGetter,
		},
	}
	if d.progress != nil {
		client.ProgressListener = d.progress
	}
	if err := client.Get(); err != nil {
		log.Error(err, "failed to download file")
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, src, err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		log.Error(err, "failed to read downloaded file", "dst", dst)
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, src, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResponse, src)
	}
	return data, nil
}
