package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"audiotome/internal/errdefs"
)

// fetchAudio streams the resource into memory, reporting monotonically
// non-decreasing progress. Progress never exceeds 99 until the payload is
// fully assembled; the caller emits the final 100 after both stores commit.
func (o *Orchestrator) fetchAudio(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	if onProgress == nil {
		onProgress = func(float64, string) {}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", errdefs.ErrFetchFailed, url, err)
	}
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", errdefs.ErrFetchFailed, resp.Status)
	}

	total := resp.ContentLength // -1 when the server sends no Content-Length
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	var received int64
	var last float64

	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			received += int64(n)
			if pct := downloadPercent(received, total); pct > last {
				last = pct
				onProgress(pct, fmt.Sprintf("Downloading... %d%%", int(pct)))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", errdefs.ErrFetchFailed, readErr)
		}
	}

	if total >= 0 && received < total {
		return nil, fmt.Errorf("%w: truncated body, got %d of %d bytes", errdefs.ErrFetchFailed, received, total)
	}
	return buf.Bytes(), nil
}

// downloadPercent maps received bytes to a percentage capped at 99. With a
// known Content-Length it is proportional; without one it ramps
// asymptotically so it stays monotonic for any payload size.
func downloadPercent(received, total int64) float64 {
	if total > 0 {
		pct := float64(received) / float64(total) * 100
		if pct > 99 {
			pct = 99
		}
		return pct
	}
	const scale = 4 << 20 // ~4 MiB reaches 50%
	return 99 * float64(received) / float64(received+scale)
}
