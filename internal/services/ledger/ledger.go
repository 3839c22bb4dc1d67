// Package ledger owns the client-to-account mapping and the account
// state machine that replays financial events into balances.
package ledger

import (
	"sort"

	"github.com/flejz/tx-cli/internal/domain"
)

// Ledger routes each event to the account of its client, creating
// accounts lazily on first sight. Per-event rule violations are
// returned to the caller for logging and never abort the run.
//
// A Ledger is single-writer; the processor shards clients across
// ledgers when running partitioned.
type Ledger struct {
	accounts       map[domain.ClientID]*Account
	strictDisputes bool
}

// New creates an empty ledger.
func New(strictDisputes bool) *Ledger {
	return &Ledger{
		accounts:       make(map[domain.ClientID]*Account),
		strictDisputes: strictDisputes,
	}
}

// Process applies one event to the account of its client. The account
// is created zero-initialized on first reference, whatever the event
// kind; a dispute on a brand-new account fails validation, not
// creation.
func (l *Ledger) Process(e domain.Event) error {
	acc, ok := l.accounts[e.Client]
	if !ok {
		acc = NewAccount(e.Client, l.strictDisputes)
		l.accounts[e.Client] = acc
	}

	return acc.Apply(e)
}

// Account returns the account of the client, if it exists.
func (l *Ledger) Account(client domain.ClientID) (*Account, bool) {
	acc, ok := l.accounts[client]
	return acc, ok
}

// Finalize produces a snapshot of every account, sorted by client id
// for deterministic output.
func (l *Ledger) Finalize() []domain.Snapshot {
	snapshots := make([]domain.Snapshot, 0, len(l.accounts))
	for _, acc := range l.accounts {
		snapshots = append(snapshots, acc.Snapshot())
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Client < snapshots[j].Client
	})

	return snapshots
}
