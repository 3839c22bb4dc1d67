// Command tx-cli replays a CSV stream of client financial events
// (deposits, withdrawals, disputes, resolves, chargebacks) into
// per-client account balances and prints the terminal state of every
// account as CSV.
//
// Usage:
//
//	tx-cli --input transactions.csv
//	tx-cli --config config.yaml
//
// Rows rejected by the account rules are logged and skipped; the run
// only aborts on unreadable input.
package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/flejz/tx-cli/config"
	"github.com/flejz/tx-cli/internal/domain"
	"github.com/flejz/tx-cli/internal/services/processor"
	"github.com/flejz/tx-cli/internal/storage/journal"
	"github.com/flejz/tx-cli/internal/stream"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	in, err := os.Open(cfg.Input)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer in.Close()

	var jrnl processor.Journal
	if cfg.JournalDir != "" {
		store, err := journal.NewStore(cfg.JournalDir)
		if err != nil {
			return errors.Wrap(err, "open journal")
		}
		defer store.Close()
		jrnl = store

		logger.Info("audit journal enabled",
			zap.String("dir", cfg.JournalDir),
			zap.String("run_id", store.RunID()))
	}

	proc := processor.New(logger, cfg.Workers, cfg.StrictDisputes, jrnl)

	events := make(chan domain.Event, 256)
	var readErr error
	go func() {
		defer close(events)
		reader := stream.NewReader(in)
		readErr = reader.ReadAll(
			func(e domain.Event) { events <- e },
			func(err error) { logger.Warn("skipping malformed row", zap.Error(err)) },
		)
	}()

	snapshots, stats := proc.Run(events)
	if readErr != nil {
		return errors.Wrap(readErr, "read event stream")
	}

	logger.Info("replay finished",
		zap.Uint64("accepted", stats.Accepted),
		zap.Uint64("rejected", stats.Rejected),
		zap.Int("accounts", len(snapshots)))

	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		out = f
	}

	return stream.Write(out, snapshots)
}
