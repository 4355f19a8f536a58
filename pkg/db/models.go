package db

// Source discriminates which platform a post came from. Exactly one subtype
// table row exists per post, matching its source.
type Source string

const (
	SourceReddit  Source = "reddit"
	SourceTwitter Source = "twitter"
)

// Word is a canonical word entry with its accumulated usage count across
// every ingested batch.
type Word struct {
	Word     string
	UseCount int
}

// User is a post author. Identity is the name; site records which platform
// the name was first seen on and is never updated afterwards.
type User struct {
	Name string
	Site string
}

// Post is the base row shared by all sources. Content and author are
// immutable once stored.
type Post struct {
	ID       string
	Author   string
	Content  string
	Datetime string
	Source   Source
}

// RedditPost is the reddit subtype payload for a Post.
type RedditPost struct {
	ID        string
	Subreddit string
}

// TwitterPost is the twitter subtype payload for a Post.
type TwitterPost struct {
	ID       string
	Hashtags string
}
