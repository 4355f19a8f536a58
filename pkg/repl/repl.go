// Package repl implements the interactive command surface: crawl, query and
// maintenance commands dispatched against the word index.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tedsta/CS421-reddit-twitter/pkg/crawler"
	"github.com/tedsta/CS421-reddit-twitter/pkg/db"
	"github.com/tedsta/CS421-reddit-twitter/pkg/index"
	"github.com/tedsta/CS421-reddit-twitter/pkg/ingest"
)

// REPL dispatches commands against the index. Unrecognized input is ignored
// silently; recognized commands with bad arguments report a message and run
// nothing.
type REPL struct {
	Sources    crawler.Registry
	Aggregator *ingest.Aggregator
	Index      *index.Index
	Out        io.Writer
	Logger     *zap.Logger
}

// New builds a REPL. A nil logger disables logging.
func New(sources crawler.Registry, agg *ingest.Aggregator, ix *index.Index, out io.Writer, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		Sources:    sources,
		Aggregator: agg,
		Index:      ix,
		Out:        out,
		Logger:     logger,
	}
}

// Run reads commands from in until exit or EOF.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(r.Out, "> ")
	for scanner.Scan() {
		if quit := r.Execute(ctx, scanner.Text()); quit {
			return nil
		}
		fmt.Fprint(r.Out, "> ")
	}
	return scanner.Err()
}

// Execute runs a single command line. It returns true when the loop should
// terminate.
func (r *REPL) Execute(ctx context.Context, line string) (quit bool) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "crawl":
		if len(args) == 4 {
			r.crawl(ctx, args[1], args[2], args[3])
		} else {
			fmt.Fprintln(r.Out, "usage: crawl <source> <topic> <n>")
		}
	case "posts_from_user":
		if len(args) == 2 {
			r.postsFromUser(args[1])
		} else {
			fmt.Fprintln(r.Out, "usage: posts_from_user <name>")
		}
	case "users_used_word":
		if len(args) == 2 {
			r.usersUsedWord(args[1])
		} else {
			fmt.Fprintln(r.Out, "usage: users_used_word <word>")
		}
	case "words_used_more_than":
		if len(args) == 2 {
			r.wordsUsedMoreThan(args[1])
		} else {
			fmt.Fprintln(r.Out, "usage: words_used_more_than <n>")
		}
	case "clear":
		if err := r.Index.Reset(ctx); err != nil {
			fmt.Fprintf(r.Out, "clear failed: %v\n", err)
			r.Logger.Error("reset failed", zap.Error(err))
			return false
		}
		fmt.Fprintln(r.Out, "index cleared")
	case "exit":
		return true
	default:
		// Unrecognized commands are ignored.
	}
	return false
}

func (r *REPL) crawl(ctx context.Context, source, topic, countArg string) {
	n, err := strconv.Atoi(countArg)
	if err != nil || n <= 0 {
		fmt.Fprintf(r.Out, "crawl: invalid count %q\n", countArg)
		return
	}
	src, ok := r.Sources.Lookup(source)
	if !ok {
		fmt.Fprintf(r.Out, "crawl: unknown source %q\n", source)
		return
	}

	// Fetch everything up front so a slow or failing fetch never holds a
	// storage transaction open.
	raw, err := src.Fetch(ctx, topic, n)
	if err != nil {
		fmt.Fprintf(r.Out, "crawl failed: %v\n", err)
		r.Logger.Error("fetch failed", zap.String("source", source), zap.String("topic", topic), zap.Error(err))
		return
	}

	batch, err := r.Aggregator.Aggregate(ctx, db.Source(src.Name()), raw)
	if err != nil {
		fmt.Fprintf(r.Out, "crawl failed: %v\n", err)
		r.Logger.Error("aggregation failed", zap.Error(err))
		return
	}
	if err := r.Index.Upsert(ctx, batch); err != nil {
		fmt.Fprintf(r.Out, "crawl failed: %v\n", err)
		r.Logger.Error("upsert failed", zap.Error(err))
		return
	}
	fmt.Fprintf(r.Out, "indexed %d posts (%d words)\n", len(batch.Posts), len(batch.WordCounts))
}

func (r *REPL) postsFromUser(name string) {
	posts, err := r.Index.PostsByUser(name)
	if err != nil {
		fmt.Fprintf(r.Out, "query failed: %v\n", err)
		return
	}
	for _, p := range posts {
		fmt.Fprintf(r.Out, "%s\t%s\t%s\n", p.ID, p.Content, p.Datetime)
	}
}

func (r *REPL) usersUsedWord(word string) {
	users, err := r.Index.UsersWhoUsed(word)
	if err != nil {
		fmt.Fprintf(r.Out, "query failed: %v\n", err)
		return
	}
	for _, u := range users {
		fmt.Fprintln(r.Out, u)
	}
}

func (r *REPL) wordsUsedMoreThan(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(r.Out, "words_used_more_than: invalid threshold %q\n", arg)
		return
	}
	words, err := r.Index.WordsUsedMoreThan(n)
	if err != nil {
		fmt.Fprintf(r.Out, "query failed: %v\n", err)
		return
	}
	for _, w := range words {
		fmt.Fprintf(r.Out, "%s\t%d\n", w.Word, w.UseCount)
	}
}
