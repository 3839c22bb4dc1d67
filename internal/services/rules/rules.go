// Package rules holds the pure validators that decide whether an event
// is legal given current account state. Validators never mutate; the
// account applies them as a chain and commits only when the whole chain
// passes.
package rules

import (
	"github.com/shopspring/decimal"

	"github.com/flejz/tx-cli/internal/domain"
)

// AccountView is the read-only view of account state the validators
// work against.
type AccountView interface {
	Frozen() bool
	Available() decimal.Decimal
	DepositAmount(tx domain.TxID) (decimal.Decimal, bool)
	UnderDispute(tx domain.TxID) bool
}

// Validator checks one rule for an event against an account view.
type Validator func(acc AccountView, e domain.Event) error

// Check runs the validator chain in order and returns the first
// violation. No validator observes a mutation of another; the chain is
// all-or-nothing by construction.
func Check(acc AccountView, e domain.Event, chain ...Validator) error {
	for _, v := range chain {
		if err := v(acc, e); err != nil {
			return err
		}
	}
	return nil
}

// NotFrozen rejects any event aimed at a sealed account. It runs first
// for every kind, so a frozen account answers AccountFrozen even when a
// later validator would also fail.
func NotFrozen(acc AccountView, e domain.Event) error {
	if acc.Frozen() {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrAccountFrozen)
	}
	return nil
}

// HasAmount requires a non-negative amount on the event.
func HasAmount(_ AccountView, e domain.Event) error {
	if e.Amount == nil {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrMissingAmount)
	}
	if e.Amount.IsNegative() {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrNegativeAmount)
	}
	return nil
}

// SufficientFunds requires available funds to cover the event amount.
func SufficientFunds(acc AccountView, e domain.Event) error {
	if e.Amount == nil {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrMissingAmount)
	}
	if acc.Available().LessThan(*e.Amount) {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrInsufficientFunds)
	}
	return nil
}

// DepositExists requires the referenced tx to be an accepted deposit of
// this account.
func DepositExists(acc AccountView, e domain.Event) error {
	if _, ok := acc.DepositAmount(e.Tx); !ok {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrDepositNotFound)
	}
	return nil
}

// FreshDepositID rejects a deposit reusing an already recorded tx id.
func FreshDepositID(acc AccountView, e domain.Event) error {
	if _, ok := acc.DepositAmount(e.Tx); ok {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrDuplicateDeposit)
	}
	return nil
}

// UnderDispute requires the referenced tx to be actively disputed.
func UnderDispute(acc AccountView, e domain.Event) error {
	if !acc.UnderDispute(e.Tx) {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrTxNotUnderDispute)
	}
	return nil
}

// NotDisputed requires the referenced tx to not be disputed yet. A
// deposit can only be disputed once at a time; after a resolve it is
// eligible again.
func NotDisputed(acc AccountView, e domain.Event) error {
	if acc.UnderDispute(e.Tx) {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrAlreadyDisputed)
	}
	return nil
}

// CoveredByAvailable requires available funds to cover the amount of
// the referenced deposit. Only used when disputes run in strict mode;
// the default bank-hold semantics let a dispute drive available
// negative.
func CoveredByAvailable(acc AccountView, e domain.Event) error {
	amount, ok := acc.DepositAmount(e.Tx)
	if !ok {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrDepositNotFound)
	}
	if acc.Available().LessThan(amount) {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrInsufficientFunds)
	}
	return nil
}
