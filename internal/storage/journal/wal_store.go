// Package journal persists the outcome of every processed event in an
// append-only WAL for post-run diagnostics. It records what happened to
// the stream, not account state; it is never read back to recover
// balances.
package journal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/flejz/tx-cli/internal/domain"
)

const (
	segmentLimit = 1000
	maxSegments  = 10

	statusAccepted = "accepted"
	statusRejected = "rejected"

	eventKeyPrefix = "event_"
)

// Entry is one journaled event outcome.
type Entry struct {
	RunID  string `json:"run_id"`
	Kind   string `json:"kind"`
	Client uint16 `json:"client"`
	Tx     uint32 `json:"tx"`
	Amount string `json:"amount,omitempty"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Store is a WAL-backed audit journal. Entries of one run share a run
// id so multiple runs over the same directory stay distinguishable.
type Store struct {
	wal   *gowal.Wal
	runID string
	mu    sync.Mutex
}

// NewStore opens (or creates) the journal in dir and starts a new run.
func NewStore(dir string) (*Store, error) {
	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init journal WAL")
	}

	return &Store{wal: wal, runID: uuid.NewString()}, nil
}

// RunID returns the id tagging entries of this run.
func (s *Store) RunID() string { return s.runID }

// RecordAccepted journals an applied event.
func (s *Store) RecordAccepted(e domain.Event) error {
	return s.record(e, statusAccepted, "")
}

// RecordRejected journals a dropped event together with the violation
// that rejected it.
func (s *Store) RecordRejected(e domain.Event, cause error) error {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	return s.record(e, statusRejected, reason)
}

func (s *Store) record(e domain.Event, status, reason string) error {
	entry := Entry{
		RunID:  s.runID,
		Kind:   e.Kind.String(),
		Client: uint16(e.Client),
		Tx:     uint32(e.Tx),
		Status: status,
		Reason: reason,
	}
	if e.Amount != nil {
		entry.Amount = e.Amount.String()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal journal entry")
	}

	key := fmt.Sprintf("%s%s", eventKeyPrefix, s.runID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Write(s.wal.CurrentIndex()+1, key, payload)
}

// Entries returns every journaled entry of the current run, in write
// order.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []Entry
	for msg := range s.wal.Iterator() {
		var entry Entry
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			return nil, errors.Wrap(err, "decode journal entry")
		}
		if entry.RunID != s.runID {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
