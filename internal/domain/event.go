package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClientID identifies a client account. The id space is opaque.
type ClientID uint16

// TxID identifies a deposit or withdrawal. The id space is global
// across all clients, not per-client.
type TxID uint32

// Kind is the type of a financial event.
type Kind int

const (
	KindDeposit Kind = iota
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

const (
	kindStringDeposit    = "deposit"
	kindStringWithdrawal = "withdrawal"
	kindStringDispute    = "dispute"
	kindStringResolve    = "resolve"
	kindStringChargeback = "chargeback"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return kindStringDeposit
	case KindWithdrawal:
		return kindStringWithdrawal
	case KindDispute:
		return kindStringDispute
	case KindResolve:
		return kindStringResolve
	case KindChargeback:
		return kindStringChargeback
	default:
		return "unknown"
	}
}

// ParseKind parses a kind from its string representation.
func ParseKind(s string) (Kind, error) {
	switch s {
	case kindStringDeposit:
		return KindDeposit, nil
	case kindStringWithdrawal:
		return KindWithdrawal, nil
	case kindStringDispute:
		return KindDispute, nil
	case kindStringResolve:
		return KindResolve, nil
	case kindStringChargeback:
		return KindChargeback, nil
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Monetary reports whether events of this kind carry an amount.
// Dispute, resolve and chargeback reference a prior deposit instead.
func (k Kind) Monetary() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Event is a single immutable record of the replayed stream.
type Event struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	// Amount is set for deposit and withdrawal, nil for the
	// referencing kinds.
	Amount *decimal.Decimal
}

// NewMonetaryEvent builds a deposit or withdrawal event.
func NewMonetaryEvent(kind Kind, client ClientID, tx TxID, amount decimal.Decimal) Event {
	return Event{Kind: kind, Client: client, Tx: tx, Amount: &amount}
}

// NewReferenceEvent builds a dispute, resolve or chargeback event.
func NewReferenceEvent(kind Kind, client ClientID, tx TxID) Event {
	return Event{Kind: kind, Client: client, Tx: tx}
}

// String returns a human-readable string representation.
func (e Event) String() string {
	if e.Amount != nil {
		return fmt.Sprintf("%s client: %d tx: %d amount: %s", e.Kind, e.Client, e.Tx, e.Amount.String())
	}
	return fmt.Sprintf("%s client: %d tx: %d", e.Kind, e.Client, e.Tx)
}
