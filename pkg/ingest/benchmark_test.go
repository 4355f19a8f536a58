package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/tedsta/CS421-reddit-twitter/pkg/crawler"
	"github.com/tedsta/CS421-reddit-twitter/pkg/db"
)

func benchPosts(n int) []crawler.RawPost {
	posts := make([]crawler.RawPost, n)
	for i := range posts {
		posts[i] = crawler.RawPost{
			ID:         fmt.Sprintf("p%d", i),
			Title:      "rust is fast, safe, and (mostly!) fun to write...",
			Author:     fmt.Sprintf("user%d", i%50),
			Channel:    "rust",
			CreatedUTC: 1453847100,
		}
	}
	return posts
}

func BenchmarkAggregateSequential(b *testing.B) {
	a := NewAggregator(CountOccurrences, nil)
	a.Workers = 1
	posts := benchPosts(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Aggregate(context.Background(), db.SourceReddit, posts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAggregateConcurrent(b *testing.B) {
	a := NewAggregator(CountOccurrences, nil)
	a.Workers = 4
	posts := benchPosts(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Aggregate(context.Background(), db.SourceReddit, posts); err != nil {
			b.Fatal(err)
		}
	}
}
