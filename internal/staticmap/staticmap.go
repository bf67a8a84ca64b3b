// Package staticmap downloads the map image behind the geographic panel.
// Each viewport is fetched once; nothing is cached or retried.
package staticmap

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/schollz/progressbar/v3"

	"gpx_triptych/internal/metrics"
	"gpx_triptych/internal/viewport"
)

const (
	userAgent        = "GpxTriptychGo/0.1"
	fetchConcurrency = 4
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and decodes the image for one request.
func (c *Client) Fetch(ctx context.Context, tr viewport.TileRequest) (image.Image, error) {
	url := tr.URL(c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.MapFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to download map %s: %w", tr.Center, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.MapFetches.WithLabelValues("status").Inc()
		return nil, fmt.Errorf("failed to download map %s: status %d", tr.Center, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		metrics.MapFetches.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("decode map %s: %w", tr.Center, err)
	}
	if b := img.Bounds(); b.Dx() != tr.Width || b.Dy() != tr.Height {
		slog.Warn("map image size differs from request",
			"want", fmt.Sprintf("%dx%d", tr.Width, tr.Height), "got", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
	}
	metrics.MapFetches.WithLabelValues("ok").Inc()
	return img, nil
}

// FetchMosaic downloads a grid built by viewport.Mosaic and stitches it into
// one image. Any failed piece fails the whole mosaic.
func (c *Client) FetchMosaic(ctx context.Context, reqs []viewport.TileRequest) (image.Image, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("empty mosaic")
	}
	rows, cols := 0, 0
	for _, r := range reqs {
		rows = max(rows, r.Row+1)
		cols = max(cols, r.Col+1)
	}
	w, h := reqs[0].Width, reqs[0].Height

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	images := make([]image.Image, len(reqs))
	errs := make([]error, len(reqs))
	bar := progressbar.Default(int64(len(reqs)), "Downloading map")
	var wg sync.WaitGroup
	limit := make(chan struct{}, fetchConcurrency)

	for i, tr := range reqs {
		wg.Add(1)
		limit <- struct{}{}
		go func(i int, tr viewport.TileRequest) {
			defer wg.Done()
			defer func() { <-limit }()
			images[i], errs[i] = c.Fetch(ctx, tr)
			if errs[i] != nil {
				cancel()
			}
			bar.Add(1)
		}(i, tr)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	dc := gg.NewContext(cols*w, rows*h)
	for i, tr := range reqs {
		dc.DrawImage(images[i], tr.Col*w, tr.Row*h)
	}
	return dc.Image(), nil
}
