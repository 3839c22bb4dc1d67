// Package processor replays the event stream into per-client balances,
// optionally partitioned by client across workers.
package processor

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/flejz/tx-cli/internal/domain"
	"github.com/flejz/tx-cli/internal/services/ledger"
)

const shardBuffer = 256

// Journal receives the outcome of every processed event. Implementations
// must be safe for concurrent use.
type Journal interface {
	RecordAccepted(e domain.Event) error
	RecordRejected(e domain.Event, cause error) error
}

// Stats counts processed events for the run summary.
type Stats struct {
	Accepted uint64
	Rejected uint64
}

// Processor fans the stream out to workers, each owning the full
// sub-stream of the clients hashed to it. Events of one client are
// always applied in arrival order by a single worker; independent
// clients may proceed concurrently.
type Processor struct {
	logger         *zap.Logger
	journal        Journal
	workers        int
	strictDisputes bool
}

// New creates a processor. journal may be nil to disable auditing.
func New(logger *zap.Logger, workers int, strictDisputes bool, journal Journal) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		logger:         logger,
		journal:        journal,
		workers:        workers,
		strictDisputes: strictDisputes,
	}
}

// Run consumes the stream until it closes and returns the terminal
// snapshot of every account, sorted by client id. Rule violations are
// logged and journaled; they never stop the run.
func (p *Processor) Run(events <-chan domain.Event) ([]domain.Snapshot, Stats) {
	shards := make([]chan domain.Event, p.workers)
	ledgers := make([]*ledger.Ledger, p.workers)

	var stats Stats
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan domain.Event, shardBuffer)
		ledgers[i] = ledger.New(p.strictDisputes)

		wg.Add(1)
		go func(shard <-chan domain.Event, led *ledger.Ledger) {
			defer wg.Done()
			for e := range shard {
				p.apply(led, e, &stats)
			}
		}(shards[i], ledgers[i])
	}

	// Account creation is owned by the worker the client hashes to,
	// so first-sight insertion needs no extra synchronization.
	for e := range events {
		shards[int(e.Client)%p.workers] <- e
	}
	for _, shard := range shards {
		close(shard)
	}
	wg.Wait()

	snapshots := make([]domain.Snapshot, 0)
	for _, led := range ledgers {
		snapshots = append(snapshots, led.Finalize()...)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Client < snapshots[j].Client
	})

	return snapshots, stats
}

func (p *Processor) apply(led *ledger.Ledger, e domain.Event, stats *Stats) {
	if err := led.Process(e); err != nil {
		atomic.AddUint64(&stats.Rejected, 1)
		p.logger.Warn("event rejected",
			zap.String("kind", e.Kind.String()),
			zap.Uint16("client", uint16(e.Client)),
			zap.Uint32("tx", uint32(e.Tx)),
			zap.Error(err))
		if p.journal != nil {
			if jerr := p.journal.RecordRejected(e, err); jerr != nil {
				p.logger.Error("journal write failed", zap.Error(jerr))
			}
		}
		return
	}

	atomic.AddUint64(&stats.Accepted, 1)
	if p.journal != nil {
		if jerr := p.journal.RecordAccepted(e); jerr != nil {
			p.logger.Error("journal write failed", zap.Error(jerr))
		}
	}
}
