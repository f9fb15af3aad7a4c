package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/models"
)

const maxBodyBytes = 4 << 20

// Fetch downloads pages over plain HTTP.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
	Client   *http.Client
}

func (f Fetch) Exec(ctx context.Context, url string) (models.Page, error) {
	if strings.TrimSpace(url) == "" {
		return models.Page{}, errors.New("invalid url")
	}
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Page{}, err
	}
	req.Header.Set("User-Agent", "medconsensus/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Page{URL: url, Status: 599, RenderMS: elapsedMS(t0)}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Page{URL: url, Status: resp.StatusCode, RenderMS: elapsedMS(t0)}, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Page{URL: url, Status: resp.StatusCode, RenderMS: elapsedMS(t0)}, fmt.Errorf("read %s: %w", url, err)
	}

	page, err := extract.Readable(url, string(body), f.MaxChars)
	page.Status = resp.StatusCode
	page.RenderMS = elapsedMS(t0)
	return page, err
}

func elapsedMS(t0 time.Time) int {
	return int(time.Since(t0) / time.Millisecond)
}
