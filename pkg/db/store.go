package db

import (
	"database/sql"
	"fmt"
)

// DBExecutor is an interface that allows store functions to accept either
// *sql.DB or *sql.Tx, so the same helpers serve queries and the batch
// transaction alike.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// AddWordCount inserts a word or, if it already exists, adds count to its
// use_count. Counts accumulate across crawl runs and are never reset.
func AddWordCount(db DBExecutor, word string, count int) error {
	if count < 0 {
		return fmt.Errorf("word %q: count must be non-negative, got %d", word, count)
	}
	_, err := db.Exec(`INSERT INTO word (word, use_count) VALUES (?, ?)
		ON CONFLICT(word) DO UPDATE SET use_count = word.use_count + excluded.use_count`,
		word, count)
	if err != nil {
		return fmt.Errorf("upsert word %q: %w", word, err)
	}
	return nil
}

// InsertUser inserts a user row unless the name already exists. First insert
// wins; site is not updated on conflict.
func InsertUser(db DBExecutor, u User) error {
	if _, err := db.Exec(`INSERT OR IGNORE INTO user (name, site) VALUES (?, ?)`, u.Name, u.Site); err != nil {
		return fmt.Errorf("insert user %q: %w", u.Name, err)
	}
	return nil
}

// InsertPost inserts a post row unless the id already exists. Content is
// immutable once observed, so re-ingesting the same id is a no-op.
func InsertPost(db DBExecutor, p Post) error {
	if _, err := db.Exec(`INSERT OR IGNORE INTO post (id, author, content, datetime) VALUES (?, ?, ?, ?)`,
		p.ID, p.Author, p.Content, p.Datetime); err != nil {
		return fmt.Errorf("insert post %q: %w", p.ID, err)
	}
	return nil
}

// InsertRedditPost inserts the reddit subtype row for a post.
func InsertRedditPost(db DBExecutor, rp RedditPost) error {
	if _, err := db.Exec(`INSERT OR IGNORE INTO reddit_post (id, subreddit) VALUES (?, ?)`,
		rp.ID, rp.Subreddit); err != nil {
		return fmt.Errorf("insert reddit_post %q: %w", rp.ID, err)
	}
	return nil
}

// InsertTwitterPost inserts the twitter subtype row for a post.
func InsertTwitterPost(db DBExecutor, tp TwitterPost) error {
	if _, err := db.Exec(`INSERT OR IGNORE INTO twitter_post (id, hashtags) VALUES (?, ?)`,
		tp.ID, tp.Hashtags); err != nil {
		return fmt.Errorf("insert twitter_post %q: %w", tp.ID, err)
	}
	return nil
}

// InsertUserWord records that user has used word at least once. Idempotent.
func InsertUserWord(db DBExecutor, user, word string) error {
	if _, err := db.Exec(`INSERT INTO user_word (user, word) VALUES (?, ?)
		ON CONFLICT(user, word) DO NOTHING`, user, word); err != nil {
		return fmt.Errorf("insert user_word (%q, %q): %w", user, word, err)
	}
	return nil
}

// InsertPostWord records that post contains word at least once. Idempotent.
func InsertPostWord(db DBExecutor, post, word string) error {
	if _, err := db.Exec(`INSERT INTO post_word (post, word) VALUES (?, ?)
		ON CONFLICT(post, word) DO NOTHING`, post, word); err != nil {
		return fmt.Errorf("insert post_word (%q, %q): %w", post, word, err)
	}
	return nil
}

// PostsByUser returns every post authored by name.
func PostsByUser(db DBExecutor, name string) ([]Post, error) {
	rows, err := db.Query(`SELECT id, author, content, datetime FROM post WHERE author = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("query posts by user %q: %w", name, err)
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		var p Post
		var author, content, datetime sql.NullString
		if err := rows.Scan(&p.ID, &author, &content, &datetime); err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		p.Author = author.String
		p.Content = content.String
		p.Datetime = datetime.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return out, nil
}

// UsersWhoUsed returns the distinct names of users who have used word.
func UsersWhoUsed(db DBExecutor, word string) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT user FROM user_word WHERE word = ?`, word)
	if err != nil {
		return nil, fmt.Errorf("query users who used %q: %w", word, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan user_word row: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user_word rows: %w", err)
	}
	return out, nil
}

// WordsUsedMoreThan returns every word whose use_count is strictly greater
// than n. Order is unspecified.
func WordsUsedMoreThan(db DBExecutor, n int) ([]Word, error) {
	rows, err := db.Query(`SELECT word, use_count FROM word WHERE use_count > ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query words used more than %d: %w", n, err)
	}
	defer rows.Close()
	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.Word, &w.UseCount); err != nil {
			return nil, fmt.Errorf("scan word row: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate word rows: %w", err)
	}
	return out, nil
}

// GetWordCount returns the stored use_count for word, or ok=false when the
// word has never been indexed.
func GetWordCount(db DBExecutor, word string) (count int, ok bool, err error) {
	err = db.QueryRow(`SELECT use_count FROM word WHERE word = ?`, word).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query word %q: %w", word, err)
	}
	return count, true, nil
}
