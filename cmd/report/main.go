// Command report prints the campaign summary and leaderboards of a sessions
// export as terminal tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/config"
	"github.com/godilite/campaign-analyzer/internal/render"
	"github.com/godilite/campaign-analyzer/internal/service"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const usage = `usage: report [-min-sessions N] [-top N] [-engine memory|sqlite] FILE.csv

Reads a Shopify sessions export and prints the per-campaign summary
followed by the top campaigns for each metric. Use - to read stdin.
`

func main() {
	_ = godotenv.Load(".env")
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.LoadFromEnv()

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	minSessions := fs.Int64("min-sessions", cfg.MinSessions, "exclude campaigns with fewer sessions (0 keeps all)")
	top := fs.Int("top", cfg.LeaderboardSize, "leaderboard size")
	engine := fs.String("engine", cfg.AggregationEngine, "grouping engine: memory or sqlite")
	verbose := fs.Bool("v", false, "log pipeline details to stderr")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := config.NewLogger(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "logger: %v\n", err)
			return 1
		}
		logger = l
		defer logger.Sync()
	}

	in, closeIn, err := openInput(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeIn()

	grouper, db, err := service.NewGrouper(ctx, *engine, cfg.SQLiteDSN, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if db != nil {
		defer db.Close()
	}

	opts := campaign.Options{MinSessions: *minSessions, LeaderboardSize: *top}
	report, err := service.NewAnalyzerService(grouper, logger).Analyze(ctx, in, opts)
	if err != nil {
		fmt.Fprintln(stderr, service.UserMessage(err))
		return 1
	}

	if err := render.NewTerminal(stdout).WriteReport(report); err != nil {
		fmt.Fprintf(stderr, "write report: %v\n", err)
		return 1
	}
	return 0
}

func openInput(name string, stdin io.Reader) (io.Reader, func(), error) {
	if name == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}
