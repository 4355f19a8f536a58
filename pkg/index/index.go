// Package index owns the persistent word index: the merge policies that
// reconcile a freshly aggregated batch with previously stored state, and the
// read-only queries over it.
package index

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tedsta/CS421-reddit-twitter/pkg/db"
	"github.com/tedsta/CS421-reddit-twitter/pkg/ingest"
)

// StorageError wraps a constraint violation or transaction failure. The
// batch it belonged to has been rolled back; the index is unchanged.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Index reconciles batches against the stored schema and serves queries.
// One writer at a time; each Upsert is a single transaction.
type Index struct {
	conn   *sql.DB
	logger *zap.Logger
}

// New wraps an open, migrated database connection. A nil logger disables
// logging.
func New(conn *sql.DB, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{conn: conn, logger: logger}
}

// Upsert merges a batch into the index inside one transaction. Word counts
// accumulate; every other table is insert-or-ignore. Referenced rows are
// written before the rows that reference them, so the foreign keys hold at
// every point inside the transaction. On any failure the transaction rolls
// back and the index is left exactly as it was.
func (ix *Index) Upsert(ctx context.Context, batch *ingest.Batch) error {
	if batch == nil || batch.Empty() {
		return nil
	}

	err := ix.inTx(ctx, "upsert batch", func(tx *sql.Tx) error {
		for word, count := range batch.WordCounts {
			if err := db.AddWordCount(tx, word, count); err != nil {
				return err
			}
		}
		for name, site := range batch.Users {
			if err := db.InsertUser(tx, db.User{Name: name, Site: site}); err != nil {
				return err
			}
		}
		for _, p := range batch.Posts {
			if err := db.InsertPost(tx, p); err != nil {
				return err
			}
		}
		for _, rp := range batch.RedditPosts {
			if err := db.InsertRedditPost(tx, rp); err != nil {
				return err
			}
		}
		for _, tp := range batch.TwitterPosts {
			if err := db.InsertTwitterPost(tx, tp); err != nil {
				return err
			}
		}
		for uw := range batch.UserWords {
			if err := db.InsertUserWord(tx, uw.User, uw.Word); err != nil {
				return err
			}
		}
		for pw := range batch.PostWords {
			if err := db.InsertPostWord(tx, pw.Post, pw.Word); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ix.logger.Info("batch committed",
		zap.Int("words", len(batch.WordCounts)),
		zap.Int("users", len(batch.Users)),
		zap.Int("posts", len(batch.Posts)),
	)
	return nil
}

// Reset drops every table and recreates the empty schema. Irreversible.
func (ix *Index) Reset(ctx context.Context) error {
	return ix.inTx(ctx, "reset schema", func(tx *sql.Tx) error {
		if err := db.DropAll(tx); err != nil {
			return err
		}
		return db.InitDB(tx)
	})
}

// inTx runs fn inside a transaction, rolling back on any error.
func (ix *Index) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := ix.conn.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: op, Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	if err := fn(tx); err != nil {
		return &StorageError{Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// PostsByUser returns every post authored by name.
func (ix *Index) PostsByUser(name string) ([]db.Post, error) {
	return db.PostsByUser(ix.conn, name)
}

// UsersWhoUsed returns the distinct users who ever used word.
func (ix *Index) UsersWhoUsed(word string) ([]string, error) {
	return db.UsersWhoUsed(ix.conn, word)
}

// WordsUsedMoreThan returns the words with use_count strictly above n.
func (ix *Index) WordsUsedMoreThan(n int) ([]db.Word, error) {
	return db.WordsUsedMoreThan(ix.conn, n)
}
