package db

import (
	"database/sql"
	"testing"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	conn.SetMaxOpenConns(1)
	if err := InitDB(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAddWordCountAccumulates(t *testing.T) {
	conn := setupTestDB(t)
	if err := AddWordCount(conn, "rust", 3); err != nil {
		t.Fatalf("insert word: %v", err)
	}
	if err := AddWordCount(conn, "rust", 2); err != nil {
		t.Fatalf("merge word: %v", err)
	}
	count, ok, err := GetWordCount(conn, "rust")
	if err != nil {
		t.Fatalf("get count: %v", err)
	}
	if !ok || count != 5 {
		t.Fatalf("expected use_count=5, got %d (ok=%v)", count, ok)
	}
}

func TestAddWordCountRejectsNegative(t *testing.T) {
	conn := setupTestDB(t)
	if err := AddWordCount(conn, "rust", -1); err == nil {
		t.Fatal("expected error for negative count")
	}
}

func TestInsertUserFirstWriteWins(t *testing.T) {
	conn := setupTestDB(t)
	if err := InsertUser(conn, User{Name: "alice", Site: "reddit"}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := InsertUser(conn, User{Name: "alice", Site: "twitter"}); err != nil {
		t.Fatalf("re-insert user: %v", err)
	}
	var site string
	if err := conn.QueryRow(`SELECT site FROM user WHERE name = ?`, "alice").Scan(&site); err != nil {
		t.Fatalf("query site: %v", err)
	}
	if site != "reddit" {
		t.Fatalf("expected first-write site reddit, got %q", site)
	}
}

func TestInsertPostIgnoresConflict(t *testing.T) {
	conn := setupTestDB(t)
	if err := InsertUser(conn, User{Name: "alice", Site: "reddit"}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := InsertPost(conn, Post{ID: "p1", Author: "alice", Content: "rust is fast", Datetime: "01-02-2016-10:30"}); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	if err := InsertPost(conn, Post{ID: "p1", Author: "alice", Content: "different content", Datetime: "01-02-2016-10:30"}); err != nil {
		t.Fatalf("re-insert post: %v", err)
	}
	var content string
	if err := conn.QueryRow(`SELECT content FROM post WHERE id = ?`, "p1").Scan(&content); err != nil {
		t.Fatalf("query content: %v", err)
	}
	if content != "rust is fast" {
		t.Fatalf("expected original content unchanged, got %q", content)
	}
}

func TestInsertUserWordIdempotent(t *testing.T) {
	conn := setupTestDB(t)
	if err := InsertUser(conn, User{Name: "alice", Site: "reddit"}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := AddWordCount(conn, "rust", 1); err != nil {
		t.Fatalf("insert word: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := InsertUserWord(conn, "alice", "rust"); err != nil {
			t.Fatalf("insert user_word (attempt %d): %v", i, err)
		}
	}
	var cnt int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM user_word`).Scan(&cnt); err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 user_word row, got %d", cnt)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	conn := setupTestDB(t)
	if err := AddWordCount(conn, "rust", 1); err != nil {
		t.Fatalf("insert word: %v", err)
	}
	// No such user; the association insert must be rejected.
	if err := InsertUserWord(conn, "ghost", "rust"); err == nil {
		t.Fatal("expected foreign key violation for unknown user")
	}
	if err := InsertPostWord(conn, "nope", "rust"); err == nil {
		t.Fatal("expected foreign key violation for unknown post")
	}
}

func TestQueries(t *testing.T) {
	conn := setupTestDB(t)
	if err := InsertUser(conn, User{Name: "alice", Site: "reddit"}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := InsertPost(conn, Post{ID: "p1", Author: "alice", Content: "rust is fast", Datetime: "x"}); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	if err := InsertPost(conn, Post{ID: "p2", Author: "alice", Content: "rust is safe", Datetime: "x"}); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	if err := AddWordCount(conn, "rust", 2); err != nil {
		t.Fatalf("insert word: %v", err)
	}
	if err := AddWordCount(conn, "fast", 1); err != nil {
		t.Fatalf("insert word: %v", err)
	}
	if err := InsertUserWord(conn, "alice", "rust"); err != nil {
		t.Fatalf("insert user_word: %v", err)
	}

	posts, err := PostsByUser(conn, "alice")
	if err != nil {
		t.Fatalf("posts by user: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	users, err := UsersWhoUsed(conn, "rust")
	if err != nil {
		t.Fatalf("users who used: %v", err)
	}
	if len(users) != 1 || users[0] != "alice" {
		t.Fatalf("expected [alice], got %v", users)
	}

	words, err := WordsUsedMoreThan(conn, 1)
	if err != nil {
		t.Fatalf("words used more than: %v", err)
	}
	if len(words) != 1 || words[0].Word != "rust" || words[0].UseCount != 2 {
		t.Fatalf("expected [{rust 2}], got %v", words)
	}

	// Unmatched queries return empty, not an error.
	none, err := PostsByUser(conn, "nobody")
	if err != nil {
		t.Fatalf("posts by unknown user: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no posts, got %v", none)
	}
}
