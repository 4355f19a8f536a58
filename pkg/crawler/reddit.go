package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRedditBaseURL = "https://www.reddit.com"
	// Reddit caps a single listing request at 100 entries.
	redditPageLimit = 100

	maxListingBody = 10 * 1024 * 1024
)

// Reddit crawls hot listings from the public reddit JSON API.
type Reddit struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Logger    *zap.Logger
}

// NewReddit builds a reddit crawler with the given user agent and request
// timeout. A nil logger disables logging.
func NewReddit(userAgent string, timeout time.Duration, logger *zap.Logger) *Reddit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reddit{
		BaseURL:   defaultRedditBaseURL,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
		Logger:    logger,
	}
}

func (r *Reddit) Name() string { return "reddit" }

// redditListing mirrors the slice of the listing response we consume.
type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Title      string  `json:"title"`
				Author     string  `json:"author"`
				Subreddit  string  `json:"subreddit"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch pulls up to limit hot posts from r/<topic>, following the listing's
// after cursor across pages. Titles are lowercased here so every downstream
// consumer sees the same case-folded content.
func (r *Reddit) Fetch(ctx context.Context, topic string, limit int) ([]RawPost, error) {
	if limit <= 0 {
		return nil, nil
	}

	posts := make([]RawPost, 0, limit)
	after := ""
	for len(posts) < limit {
		page := limit - len(posts)
		if page > redditPageLimit {
			page = redditPageLimit
		}

		listing, err := r.fetchPage(ctx, topic, page, after)
		if err != nil {
			return nil, err
		}
		if len(listing.Data.Children) == 0 {
			break
		}

		for _, child := range listing.Data.Children {
			if len(posts) >= limit {
				break
			}
			d := child.Data
			author := d.Author
			// Deleted accounts show up as "[deleted]" in the JSON API.
			if author == "[deleted]" {
				author = ""
			}
			posts = append(posts, RawPost{
				ID:         d.ID,
				Title:      strings.ToLower(d.Title),
				Author:     author,
				Channel:    d.Subreddit,
				CreatedUTC: int64(d.CreatedUTC),
			})
		}

		after = listing.Data.After
		if after == "" {
			break
		}
	}

	r.Logger.Info("fetched listing",
		zap.String("source", r.Name()),
		zap.String("topic", topic),
		zap.Int("posts", len(posts)),
	)
	return posts, nil
}

func (r *Reddit) fetchPage(ctx context.Context, topic string, limit int, after string) (*redditListing, error) {
	u := fmt.Sprintf("%s/r/%s/hot.json?%s", r.BaseURL, url.PathEscape(topic), url.Values{
		"limit": {fmt.Sprint(limit)},
		"after": {after},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Source: r.Name(), Err: err}
	}
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: r.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: r.Name(), Err: fmt.Errorf("unexpected status %d for %s", resp.StatusCode, u)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBody))
	if err != nil {
		return nil, &FetchError{Source: r.Name(), Err: fmt.Errorf("read listing body: %w", err)}
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &FetchError{Source: r.Name(), Err: fmt.Errorf("decode listing: %w", err)}
	}
	return &listing, nil
}
