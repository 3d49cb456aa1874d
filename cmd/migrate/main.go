// Command migrate applies the versioned schema and seed migrations to the
// MySQL database configured through DB_* variables.
//
//	migrate [-no-seed] [-seed N] up
//	migrate status
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/iliyamo/film-catalog/internal/config"
	"github.com/iliyamo/film-catalog/internal/database"
	"github.com/iliyamo/film-catalog/internal/logging"
)

func main() {
	noSeed := flag.Bool("no-seed", false, "apply schema migrations only; leave seed steps pending")
	seed := flag.Uint64("seed", 0, "random seed for generated data (0 picks one)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] up|status\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	config.LoadDotEnv()
	logging.Init(logging.Config{Level: "info", Format: "console"})
	cfg := config.LoadDB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		logging.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	switch flag.Arg(0) {
	case "up", "":
		n, err := database.Migrate(ctx, db, database.Options{SkipSeed: *noSeed, Faker: gofakeit.New(int64(*seed))})
		if err != nil {
			logging.Fatal().Err(err).Int("applied", n).Msg("migration failed")
		}
		logging.Info().Int("applied", n).Msg("database up to date")
	case "status":
		st, err := database.Status(ctx, db)
		if err != nil {
			logging.Fatal().Err(err).Msg("status failed")
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
		for _, m := range st {
			applied := "pending"
			if m.AppliedAt != nil {
				applied = m.AppliedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, applied)
		}
		_ = tw.Flush()
	default:
		flag.Usage()
		os.Exit(2)
	}
}
