package downloader

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

type Downloader struct {
	scratchDir string
	progress   *progressTracker
}

// progressTracker satisfies getter.ProgressListener.
type progressTracker struct {
	out io.Writer
	mu  sync.Mutex
}

func (p *progressTracker) TrackProgress(src string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar := progressbar.NewOptions64(totalSize,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(src),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	if currentSize > 0 {
		_ = bar.Add(int(currentSize))
	}
	return &progressReader{ReadCloser: stream, bar: bar}
}

type progressReader struct {
	io.ReadCloser
	bar *progressbar.ProgressBar
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		_ = r.bar.Add(n)
	}
	return n, err
}

func (r *progressReader) Close() error {
	_ = r.bar.Finish()
	return r.ReadCloser.Close()
}
