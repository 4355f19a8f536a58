// Package ingest turns batches of crawled posts into the derived tables the
// relational index persists: word counts, users, posts, subtype rows and the
// user/word and post/word association sets.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tedsta/CS421-reddit-twitter/pkg/crawler"
	"github.com/tedsta/CS421-reddit-twitter/pkg/db"
	"github.com/tedsta/CS421-reddit-twitter/pkg/tokenizer"
)

// CountMode selects what a word's use_count means.
type CountMode string

const (
	// CountOccurrences counts every occurrence: a word appearing twice in
	// one title increments its count twice.
	CountOccurrences CountMode = "occurrences"
	// CountDistinctPosts counts a word once per post that contains it,
	// which keeps use_count consistent with the association tables.
	CountDistinctPosts CountMode = "distinct-posts"
)

// ParseCountMode validates a configured count mode string.
func ParseCountMode(s string) (CountMode, error) {
	switch CountMode(s) {
	case CountOccurrences, CountDistinctPosts:
		return CountMode(s), nil
	case "":
		return CountOccurrences, nil
	}
	return "", fmt.Errorf("unknown count mode %q (want %q or %q)", s, CountOccurrences, CountDistinctPosts)
}

// UserWord marks that a user has used a word at least once.
type UserWord struct {
	User string
	Word string
}

// PostWord marks that a post contains a word at least once.
type PostWord struct {
	Post string
	Word string
}

// Batch holds the in-memory derived tables for one crawl run, ready to be
// reconciled against the persisted index.
type Batch struct {
	WordCounts   map[string]int
	Users        map[string]string // name -> site
	Posts        map[string]db.Post
	RedditPosts  map[string]db.RedditPost
	TwitterPosts map[string]db.TwitterPost
	UserWords    map[UserWord]struct{}
	PostWords    map[PostWord]struct{}
}

func newBatch() *Batch {
	return &Batch{
		WordCounts:   make(map[string]int),
		Users:        make(map[string]string),
		Posts:        make(map[string]db.Post),
		RedditPosts:  make(map[string]db.RedditPost),
		TwitterPosts: make(map[string]db.TwitterPost),
		UserWords:    make(map[UserWord]struct{}),
		PostWords:    make(map[PostWord]struct{}),
	}
}

// Empty reports whether the batch derived no rows at all.
func (b *Batch) Empty() bool {
	return len(b.Posts) == 0 && len(b.WordCounts) == 0 && len(b.Users) == 0
}

// Aggregator builds Batches from raw posts.
type Aggregator struct {
	Mode    CountMode
	Workers int
	Logger  *zap.Logger
}

// NewAggregator creates an Aggregator. A nil logger disables logging.
func NewAggregator(mode CountMode, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		Mode:    mode,
		Workers: 4,
		Logger:  logger,
	}
}

// Aggregate derives one Batch from raw posts fetched from the named source.
// Duplicate post ids within the batch are dropped (first one wins) so a
// re-fetched post can never double its words' counts, and posts without an
// attributable author are skipped entirely.
func (a *Aggregator) Aggregate(ctx context.Context, source db.Source, raw []crawler.RawPost) (*Batch, error) {
	if source != db.SourceReddit && source != db.SourceTwitter {
		return nil, fmt.Errorf("aggregate: unknown source %q", source)
	}

	kept := make([]crawler.RawPost, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, rp := range raw {
		if rp.Author == "" {
			a.Logger.Info("skipping post with no author",
				zap.String("id", rp.ID),
				zap.String("title", rp.Title),
			)
			continue
		}
		if _, dup := seen[rp.ID]; dup {
			a.Logger.Info("skipping duplicate post in batch", zap.String("id", rp.ID))
			continue
		}
		seen[rp.ID] = struct{}{}
		kept = append(kept, rp)
	}

	words, err := a.tokenizeAll(ctx, kept)
	if err != nil {
		return nil, err
	}

	batch := newBatch()
	for i, rp := range kept {
		batch.Users[rp.Author] = string(source)
		batch.Posts[rp.ID] = db.Post{
			ID:       rp.ID,
			Author:   rp.Author,
			Content:  rp.Title,
			Datetime: formatDatetime(rp.CreatedUTC),
			Source:   source,
		}
		switch source {
		case db.SourceReddit:
			batch.RedditPosts[rp.ID] = db.RedditPost{ID: rp.ID, Subreddit: rp.Channel}
		case db.SourceTwitter:
			batch.TwitterPosts[rp.ID] = db.TwitterPost{ID: rp.ID, Hashtags: hashtags(rp.Title)}
		}

		inPost := make(map[string]int)
		for _, w := range words[i] {
			inPost[w]++
		}
		for w, n := range inPost {
			if a.Mode == CountDistinctPosts {
				batch.WordCounts[w]++
			} else {
				batch.WordCounts[w] += n
			}
			batch.UserWords[UserWord{User: rp.Author, Word: w}] = struct{}{}
			batch.PostWords[PostWord{Post: rp.ID, Word: w}] = struct{}{}
		}
	}
	return batch, nil
}

// tokenizeAll runs the tokenizer over every kept post, fanning out across the
// worker pool when more than one worker is configured. Each job writes only
// its own slot, so the result order matches the input order.
func (a *Aggregator) tokenizeAll(ctx context.Context, posts []crawler.RawPost) ([][]string, error) {
	out := make([][]string, len(posts))
	if a.Workers <= 1 || len(posts) < 2 {
		for i, rp := range posts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = tokenizer.Fields(rp.Title)
		}
		return out, nil
	}

	pool := NewWorkerPool(a.Workers, a.Workers*2)
	pool.Start(ctx)
	defer pool.Close()

	for i, rp := range posts {
		i, rp := i, rp
		err := pool.Submit(ctx, func(context.Context) {
			out[i] = tokenizer.Fields(rp.Title)
		})
		if err != nil {
			return nil, err
		}
	}
	pool.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// hashtags extracts "#tag" tokens from a title, space-joined for the
// twitter_post hashtags column.
func hashtags(title string) string {
	var tags []string
	for _, f := range strings.Fields(title) {
		if len(f) > 1 && strings.HasPrefix(f, "#") {
			tags = append(tags, strings.Trim(f, "#.,!?:;"))
		}
	}
	return strings.Join(tags, " ")
}

// formatDatetime renders an epoch timestamp as MM-DD-YYYY-HH:MM in UTC, the
// format the index has always stored.
func formatDatetime(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("01-02-2006-15:04")
}
