package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/agukrapo/go-http-client/requests"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
)

// PageMeta is the Open Graph metadata of a Wikipedia page.
type PageMeta struct {
	Title string
	Image string
}

// FetchPageMeta reads og:title and og:image from page.
func (c *Client) FetchPageMeta(ctx context.Context, page string) (PageMeta, error) {
	req, err := requests.New(page).Build(ctx)
	if err != nil {
		return PageMeta{}, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return PageMeta{}, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return PageMeta{}, fmt.Errorf("%w: page returned status %d", shared.ErrAPIRequest, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to parse page: %w", err)
	}

	meta := PageMeta{
		Title: doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		Image: doc.Find(`meta[property="og:image"]`).AttrOr("content", ""),
	}
	if meta.Title == "" {
		meta.Title = doc.Find("title").First().Text()
	}
	meta.Title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(meta.Title), " - Wikipedia"))
	return meta, nil
}

// Lookup resolves page and fills a missing name or image from the page itself.
// A failed page fetch is logged and leaves the graph result as is.
func (c *Client) Lookup(ctx context.Context, page string) (models.Location, error) {
	loc, err := c.LocationOf(ctx, page)
	if err != nil {
		return loc, err
	}
	if loc.Name != "" && loc.Image != "" {
		return loc, nil
	}

	meta, err := c.FetchPageMeta(ctx, page)
	if err != nil {
		c.logger.Warn("page metadata unavailable", "page", page, "err", err)
		meta.Title = titleFromURL(page)
	}
	if loc.Name == "" {
		loc.Name = meta.Title
	}
	if loc.Image == "" {
		loc.Image = meta.Image
	}
	return loc, nil
}

// titleFromURL turns ".../wiki/New_York_City" into "New York City".
func titleFromURL(page string) string {
	u, err := url.Parse(page)
	if err != nil {
		return ""
	}
	title := path.Base(u.Path)
	if title == "." || title == "/" {
		return ""
	}
	return strings.ReplaceAll(title, "_", " ")
}
