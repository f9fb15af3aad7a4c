// Package extract turns raw HTML into a readable Page.
package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/medconsensus/internal/helpers"
	"github.com/mohammad-safakhou/medconsensus/tools/web_fetch/models"
)

// Readable runs readability over html and caps the text at maxChars runes.
func Readable(rawURL, html string, maxChars int) (models.Page, error) {
	sum := sha1.Sum([]byte(html))
	page := models.Page{URL: rawURL, HTMLHash: hex.EncodeToString(sum[:]), Status: 200}

	u, err := url.Parse(rawURL)
	if err != nil {
		return page, fmt.Errorf("parse url: %w", err)
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return page, fmt.Errorf("readability: %w", err)
	}
	page.Title = strings.TrimSpace(article.Title)
	page.Byline = strings.TrimSpace(article.Byline)
	page.SiteName = strings.TrimSpace(article.SiteName)
	text := helpers.PlainText(article.TextContent)
	if maxChars > 0 {
		text = helpers.Truncate(text, maxChars)
	}
	page.Text = text
	return page, nil
}
