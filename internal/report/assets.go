package report

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// assetFetcher downloads the college logos once and caches them on disk.
// A failed fetch is downgraded to "render without the logo"; a report card
// never fails because the website was unreachable.
type assetFetcher struct {
	httpClient *http.Client
	cacheDir   string
	log        zerolog.Logger
}

func (f *assetFetcher) fetch(ctx context.Context, url, name string) string {
	if url == "" {
		return ""
	}
	local := filepath.Join(f.cacheDir, name)
	if _, err := os.Stat(local); err == nil {
		return local
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		f.log.Debug().Err(err).Msg("Logo cache dir unavailable")
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.log.Debug().Err(err).Str("url", url).Msg("Logo fetch failed, rendering without it")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		f.log.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("Logo fetch failed, rendering without it")
		return ""
	}

	out, err := os.Create(local)
	if err != nil {
		return ""
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(local)
		return ""
	}
	return local
}
