package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Closed set of rule violations. Every rejected event maps to exactly
// one of these; matching is done with errors.Is through RuleError.
var (
	ErrAccountFrozen        = errors.New("account frozen")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrMissingAmount        = errors.New("amount required")
	ErrDepositNotFound      = errors.New("deposit not found")
	ErrTxNotUnderDispute    = errors.New("transaction not under dispute")
	ErrDuplicateDeposit     = errors.New("duplicate deposit id")
	ErrAlreadyDisputed      = errors.New("transaction already under dispute")
	ErrMismatchingAccounts  = errors.New("event routed to wrong account")
	ErrNegativeAmount       = errors.New("amount must not be negative")
)

// RuleError is a rule violation with the offending client and tx
// attached for diagnostics. The triggering event is discarded and the
// run continues; a RuleError is never fatal.
type RuleError struct {
	Client ClientID
	Tx     TxID
	Reason error
}

// NewRuleError wraps a rule violation with event context.
func NewRuleError(client ClientID, tx TxID, reason error) *RuleError {
	return &RuleError{Client: client, Tx: tx, Reason: reason}
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("client %d tx %d: %s", e.Client, e.Tx, e.Reason)
}

func (e *RuleError) Unwrap() error {
	return e.Reason
}
