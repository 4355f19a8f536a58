// Package crawler fetches raw posts from social-media listing APIs. It is a
// pure producer: posts come out exactly as the remote reported them (titles
// lowercased, deleted authors blanked) and all indexing policy lives upstream.
package crawler

import (
	"context"
	"fmt"
)

// RawPost is one freshly-crawled post, before aggregation.
type RawPost struct {
	ID         string
	Title      string
	Author     string // empty when the account is deleted or absent
	Channel    string // subreddit, twitter channel, etc.
	CreatedUTC int64
}

// Source fetches up to limit posts for a topic (e.g. a subreddit name).
type Source interface {
	Fetch(ctx context.Context, topic string, limit int) ([]RawPost, error)
	Name() string
}

// Registry maps source names to crawlers. The command surface selects one by
// the first argument of crawl.
type Registry map[string]Source

// Add registers src under its own name.
func (r Registry) Add(src Source) {
	r[src.Name()] = src
}

// Lookup returns the source registered under name.
func (r Registry) Lookup(name string) (Source, bool) {
	src, ok := r[name]
	return src, ok
}

// FetchError wraps a network or API failure. A failed fetch never touches the
// index; the caller reports it and may re-crawl.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
