// Package chromedp renders pages in headless Chrome for sites that build
// their content with JavaScript.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/models"
)

const userAgent = "medconsensus/1.0"

// renderFailed marks a page the browser could not load.
const renderFailed = 599

type Fetch struct {
	Timeout  time.Duration
	MaxChars int
}

func (f Fetch) Exec(ctx context.Context, url string) (models.Page, error) {
	if strings.TrimSpace(url) == "" {
		return models.Page{}, errors.New("invalid url")
	}
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	started := time.Now()
	doc, err := render(ctx, url)
	renderMS := int(time.Since(started).Milliseconds())
	if err != nil {
		return models.Page{URL: url, Status: renderFailed, RenderMS: renderMS}, fmt.Errorf("render %s: %w", url, err)
	}
	page, err := extract.Readable(url, doc, f.MaxChars)
	page.RenderMS = renderMS
	return page, err
}

// render loads url in a throwaway browser without images and returns the
// document HTML once the body is ready.
func render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var doc string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &doc, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return doc, nil
}
