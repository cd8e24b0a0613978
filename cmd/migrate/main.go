package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"what_bot/migrations"
)

const usage = `Usage: migrate [-db path] <command>

Commands:
  up        apply all pending migrations
  up-one    apply the next pending migration
  down      roll back the latest migration
  reset     roll back every migration
  status    list migrations and when they were applied
  version   print the current schema version
`

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/what.db"), "path to sqlite database")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := flag.Arg(0)

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(context.Background(), provider, cmd, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, p *goose.Provider, cmd string, w io.Writer) error {
	switch cmd {
	case "up":
		results, err := p.Up(ctx)
		printResults(w, results)
		if err == nil && len(results) == 0 {
			fmt.Fprintln(w, "no pending migrations")
		}
		return err
	case "up-one":
		res, err := p.UpByOne(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			fmt.Fprintln(w, "no pending migrations")
			return nil
		}
		printResults(w, []*goose.MigrationResult{res})
		return err
	case "down":
		res, err := p.Down(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			fmt.Fprintln(w, "nothing to roll back")
			return nil
		}
		printResults(w, []*goose.MigrationResult{res})
		return err
	case "reset":
		results, err := p.DownTo(ctx, 0)
		printResults(w, results)
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			applied := "-"
			if !st.AppliedAt.IsZero() {
				applied = st.AppliedAt.UTC().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%-8s %-20s %s\n", st.State, applied, st.Source.Path)
		}
		return nil
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "version %d\n", v)
		return nil
	default:
		return fmt.Errorf("unknown command, run with -h for the list")
	}
}

func printResults(w io.Writer, results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Fprintln(w, r)
	}
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
