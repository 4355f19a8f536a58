package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS word(
	word TEXT PRIMARY KEY,
	use_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user(
	name TEXT PRIMARY KEY,
	site TEXT
);

CREATE TABLE IF NOT EXISTS post(
	id TEXT PRIMARY KEY,
	author TEXT,
	content TEXT,
	datetime TEXT,
	FOREIGN KEY(author) REFERENCES user(name)
);

CREATE TABLE IF NOT EXISTS reddit_post(
	id TEXT PRIMARY KEY,
	subreddit TEXT,
	FOREIGN KEY(id) REFERENCES post(id)
);

CREATE TABLE IF NOT EXISTS twitter_post(
	id TEXT PRIMARY KEY,
	hashtags TEXT,
	FOREIGN KEY(id) REFERENCES post(id)
);

CREATE TABLE IF NOT EXISTS user_word(
	user TEXT,
	word TEXT,
	PRIMARY KEY(user, word),
	FOREIGN KEY(user) REFERENCES user(name),
	FOREIGN KEY(word) REFERENCES word(word)
);

CREATE TABLE IF NOT EXISTS post_word(
	post TEXT,
	word TEXT,
	PRIMARY KEY(post, word),
	FOREIGN KEY(post) REFERENCES post(id),
	FOREIGN KEY(word) REFERENCES word(word)
)`

// Tables lists every index table, referenced tables first.
var Tables = []string{"word", "user", "post", "reddit_post", "twitter_post", "user_word", "post_word"}

// Open opens the SQLite database at path with foreign key enforcement on.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return conn, nil
}

// InitDB creates the index schema on the given connection. Safe to call on an
// already-initialized database.
func InitDB(db DBExecutor) error {
	stmts := strings.Split(schemaSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// DropAll removes every index table. Association tables are dropped first so
// foreign key references never dangle mid-drop.
func DropAll(db DBExecutor) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := db.Exec(`DROP TABLE IF EXISTS "` + Tables[i] + `"`); err != nil {
			return fmt.Errorf("drop table %s: %w", Tables[i], err)
		}
	}
	return nil
}
