package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/flejz/tx-cli/internal/domain"
	"github.com/flejz/tx-cli/internal/services/rules"
)

// Account is the per-client mutable state. Every operation runs its
// validator chain against the current state and mutates only when the
// whole chain passes, so a rejected event leaves the account untouched.
//
// An Account is owned by exactly one Ledger and is not safe for
// concurrent use; the processor guarantees single-owner access per
// client.
type Account struct {
	client    domain.ClientID
	available decimal.Decimal
	held      decimal.Decimal
	frozen    bool

	// deposits keeps the amount of every accepted deposit for the
	// lifetime of the account, so a later dispute can recover it.
	deposits map[domain.TxID]decimal.Decimal
	// disputes is the set of tx ids currently under active dispute.
	disputes map[domain.TxID]struct{}

	// strictDisputes makes a dispute fail with InsufficientFunds
	// when available does not cover the disputed amount, instead of
	// the default bank-hold semantics that let available go negative.
	strictDisputes bool
}

// NewAccount creates a zero-initialized account for the client.
func NewAccount(client domain.ClientID, strictDisputes bool) *Account {
	return &Account{
		client:         client,
		available:      decimal.Zero,
		held:           decimal.Zero,
		deposits:       make(map[domain.TxID]decimal.Decimal),
		disputes:       make(map[domain.TxID]struct{}),
		strictDisputes: strictDisputes,
	}
}

// Frozen reports whether the account is sealed.
func (a *Account) Frozen() bool { return a.frozen }

// Available returns the funds free to withdraw or dispute against.
func (a *Account) Available() decimal.Decimal { return a.available }

// Held returns the funds currently under dispute.
func (a *Account) Held() decimal.Decimal { return a.held }

// Total returns available plus held.
func (a *Account) Total() decimal.Decimal { return a.available.Add(a.held) }

// DepositAmount returns the amount of the accepted deposit with the
// given tx id, if any.
func (a *Account) DepositAmount(tx domain.TxID) (decimal.Decimal, bool) {
	amount, ok := a.deposits[tx]
	return amount, ok
}

// UnderDispute reports whether the tx is actively disputed.
func (a *Account) UnderDispute(tx domain.TxID) bool {
	_, ok := a.disputes[tx]
	return ok
}

// Apply routes the event to the matching operation. The kind set is
// closed; every kind has exactly one arm.
func (a *Account) Apply(e domain.Event) error {
	if e.Client != a.client {
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrMismatchingAccounts)
	}

	switch e.Kind {
	case domain.KindDeposit:
		return a.deposit(e)
	case domain.KindWithdrawal:
		return a.withdrawal(e)
	case domain.KindDispute:
		return a.dispute(e)
	case domain.KindResolve:
		return a.resolve(e)
	case domain.KindChargeback:
		return a.chargeback(e)
	default:
		return domain.NewRuleError(e.Client, e.Tx, domain.ErrMismatchingAccounts)
	}
}

func (a *Account) deposit(e domain.Event) error {
	if err := rules.Check(a, e, rules.NotFrozen, rules.HasAmount, rules.FreshDepositID); err != nil {
		return err
	}

	a.available = a.available.Add(*e.Amount)
	a.deposits[e.Tx] = *e.Amount
	return nil
}

func (a *Account) withdrawal(e domain.Event) error {
	if err := rules.Check(a, e, rules.NotFrozen, rules.HasAmount, rules.SufficientFunds); err != nil {
		return err
	}

	a.available = a.available.Sub(*e.Amount)
	return nil
}

func (a *Account) dispute(e domain.Event) error {
	chain := []rules.Validator{rules.NotFrozen, rules.DepositExists, rules.NotDisputed}
	if a.strictDisputes {
		chain = append(chain, rules.CoveredByAvailable)
	}
	if err := rules.Check(a, e, chain...); err != nil {
		return err
	}

	// Bank-hold semantics: the hold is trusted over the available
	// balance, so available may go negative here when funds were
	// already withdrawn.
	amount := a.deposits[e.Tx]
	a.available = a.available.Sub(amount)
	a.held = a.held.Add(amount)
	a.disputes[e.Tx] = struct{}{}
	return nil
}

func (a *Account) resolve(e domain.Event) error {
	if err := rules.Check(a, e, rules.NotFrozen, rules.DepositExists, rules.UnderDispute); err != nil {
		return err
	}

	amount := a.deposits[e.Tx]
	a.held = a.held.Sub(amount)
	a.available = a.available.Add(amount)
	delete(a.disputes, e.Tx)
	return nil
}

func (a *Account) chargeback(e domain.Event) error {
	if err := rules.Check(a, e, rules.NotFrozen, rules.DepositExists, rules.UnderDispute); err != nil {
		return err
	}

	// Chargeback is irreversible: the held amount leaves the account
	// and the account is sealed for the rest of the run.
	amount := a.deposits[e.Tx]
	a.held = a.held.Sub(amount)
	a.frozen = true
	delete(a.disputes, e.Tx)
	return nil
}

// Snapshot returns the terminal read-only state of the account.
func (a *Account) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Client:    a.client,
		Available: a.available,
		Held:      a.held,
		Total:     a.Total(),
		Locked:    a.frozen,
	}
}
