// Package wikipedia resolves place names to Wikipedia summaries for
// flavor text in generated scripts.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"whodunnit/pkg/model"
	"whodunnit/pkg/request"
)

// ErrNoPage indicates there is no Wikipedia page for the requested title.
var ErrNoPage = errors.New("no wikipedia page")

// minExtractLength filters out stub and disambiguation extracts.
const minExtractLength = 12

// Summary is a condensed page summary from the Wikipedia REST API.
type Summary struct {
	Title        string `json:"title"`
	Extract      string `json:"extract"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	PageURL      string `json:"pageUrl,omitempty"`
	WikibaseItem string `json:"wikibaseItem,omitempty"`
}

// Usable reports whether the summary has enough prose to quote.
func (s *Summary) Usable() bool {
	return s != nil && len(s.Extract) > minExtractLength
}

// Client handles Wikipedia API interactions. Resolved summaries are
// cached in-process for a day.
type Client struct {
	request *request.Client
	baseURL string
	cache   *gocache.Cache
}

// NewClient creates a new Wikipedia client.
func NewClient(r *request.Client, baseURL string) *Client {
	return &Client{
		request: r,
		baseURL: baseURL,
		cache:   gocache.New(24*time.Hour, time.Hour),
	}
}

// GetSummary fetches the REST summary for an exact page title.
// Returns ErrNoPage when the title does not exist.
func (c *Client) GetSummary(ctx context.Context, title string) (*Summary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title required")
	}

	u := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(title)
	body, err := c.request.Get(ctx, u, "")
	if err != nil {
		var statusErr *request.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == 404 {
			return nil, fmt.Errorf("%w: %s", ErrNoPage, title)
		}
		return nil, fmt.Errorf("wikipedia summary fetch: %w", err)
	}

	var raw struct {
		Title       string `json:"title"`
		Extract     string `json:"extract"`
		ExtractHTML string `json:"extract_html"`
		Description string `json:"description"`
		Thumbnail   *struct {
			Source string `json:"source"`
		} `json:"thumbnail"`
		ContentURLs *struct {
			Desktop *struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
		WikibaseItem string `json:"wikibase_item"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	s := &Summary{
		Title:        raw.Title,
		Extract:      raw.Extract,
		Description:  raw.Description,
		WikibaseItem: raw.WikibaseItem,
	}
	if s.Extract == "" {
		s.Extract = raw.ExtractHTML
	}
	if raw.Thumbnail != nil {
		s.ThumbnailURL = raw.Thumbnail.Source
	}
	if raw.ContentURLs != nil && raw.ContentURLs.Desktop != nil {
		s.PageURL = raw.ContentURLs.Desktop.Page
	}
	return s, nil
}

// ResolveTown resolves a town name to the best available summary,
// trying the exact title, then full-text search, then a geosearch
// around the coordinates. Returns (nil, nil) when nothing usable is
// found; that outcome is cached too.
func (c *Client) ResolveTown(ctx context.Context, town string, coords *model.Coordinates) (*Summary, error) {
	key := strings.ToLower(town)
	if coords != nil {
		key = fmt.Sprintf("%s|%v|%v", key, coords.Lat, coords.Lon)
	} else {
		key += "||"
	}
	if cached, found := c.cache.Get(key); found {
		s, _ := cached.(*Summary)
		return s, nil
	}

	title := strings.Join(strings.Fields(town), " ")

	// 1) exact summary
	if s, err := c.GetSummary(ctx, title); err == nil && s.Usable() {
		c.cache.SetDefault(key, s)
		return s, nil
	} else if err != nil && !errors.Is(err, ErrNoPage) {
		slog.Debug("exact summary lookup failed", "title", title, "error", err)
	}

	// 2) full-text search
	if found := c.resolveViaSearch(ctx, title); found != nil {
		c.cache.SetDefault(key, found)
		return found, nil
	}

	// 3) geosearch near coords
	if coords != nil {
		if found := c.resolveViaGeosearch(ctx, *coords); found != nil {
			c.cache.SetDefault(key, found)
			return found, nil
		}
	}

	c.cache.SetDefault(key, (*Summary)(nil))
	return nil, nil
}

func (c *Client) resolveViaSearch(ctx context.Context, title string) *Summary {
	u, _ := url.Parse(c.baseURL + "/w/api.php")
	q := u.Query()
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", title)
	q.Set("srlimit", "6")
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		slog.Debug("wikipedia search failed", "query", title, "error", err)
		return nil
	}

	var resp struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Query.Search) == 0 {
		return nil
	}

	s, err := c.GetSummary(ctx, resp.Query.Search[0].Title)
	if err != nil || !s.Usable() {
		return nil
	}
	return s
}

func (c *Client) resolveViaGeosearch(ctx context.Context, coords model.Coordinates) *Summary {
	u, _ := url.Parse(c.baseURL + "/w/api.php")
	q := u.Query()
	q.Set("action", "query")
	q.Set("list", "geosearch")
	q.Set("gscoord", fmt.Sprintf("%v|%v", coords.Lat, coords.Lon))
	q.Set("gsradius", "10000")
	q.Set("gslimit", "10")
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		slog.Debug("wikipedia geosearch failed", "error", err)
		return nil
	}

	var resp struct {
		Query struct {
			Geosearch []struct {
				NS    int    `json:"ns"`
				Title string `json:"title"`
			} `json:"geosearch"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}

	// Only the first main-namespace candidate gets a shot
	for _, cand := range resp.Query.Geosearch {
		if cand.NS != 0 || cand.Title == "" {
			continue
		}
		s, err := c.GetSummary(ctx, cand.Title)
		if err != nil || !s.Usable() {
			return nil
		}
		return s
	}
	return nil
}
