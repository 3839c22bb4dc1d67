package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/flejz/tx-cli/internal/domain"
)

func deposit(client domain.ClientID, tx domain.TxID, amount string) domain.Event {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return domain.NewMonetaryEvent(domain.KindDeposit, client, tx, d)
}

func withdrawal(client domain.ClientID, tx domain.TxID, amount string) domain.Event {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return domain.NewMonetaryEvent(domain.KindWithdrawal, client, tx, d)
}

func dispute(client domain.ClientID, tx domain.TxID) domain.Event {
	return domain.NewReferenceEvent(domain.KindDispute, client, tx)
}

func resolve(client domain.ClientID, tx domain.TxID) domain.Event {
	return domain.NewReferenceEvent(domain.KindResolve, client, tx)
}

func chargeback(client domain.ClientID, tx domain.TxID) domain.Event {
	return domain.NewReferenceEvent(domain.KindChargeback, client, tx)
}

// accountWithDeposit returns an account with one accepted deposit.
func accountWithDeposit(t *testing.T, client domain.ClientID, tx domain.TxID, amount string) *Account {
	t.Helper()
	acc := NewAccount(client, false)
	require.NoError(t, acc.Apply(deposit(client, tx, amount)))
	return acc
}

// accountWithDispute returns an account whose single deposit is
// actively disputed.
func accountWithDispute(t *testing.T, client domain.ClientID, tx domain.TxID, amount string) *Account {
	t.Helper()
	acc := accountWithDeposit(t, client, tx, amount)
	require.NoError(t, acc.Apply(dispute(client, tx)))
	return acc
}

func requireBalances(t *testing.T, acc *Account, available, held string) {
	t.Helper()
	require.True(t, acc.Available().Equal(decimal.RequireFromString(available)),
		"available mismatch: got %s, want %s", acc.Available(), available)
	require.True(t, acc.Held().Equal(decimal.RequireFromString(held)),
		"held mismatch: got %s, want %s", acc.Held(), held)
}

func TestDeposit_IncreasesAvailable(t *testing.T) {
	acc := NewAccount(1, false)
	require.NoError(t, acc.Apply(deposit(1, 1, "100")))
	requireBalances(t, acc, "100", "0")
	require.True(t, acc.Total().Equal(acc.Available()))
}

func TestDeposit_Accumulates(t *testing.T) {
	acc := NewAccount(1, false)
	require.NoError(t, acc.Apply(deposit(1, 1, "1")))
	require.NoError(t, acc.Apply(deposit(1, 2, "2")))
	require.NoError(t, acc.Apply(deposit(1, 3, "3")))
	requireBalances(t, acc, "6", "0")
}

func TestDeposit_DuplicateTxRejected(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")

	err := acc.Apply(deposit(1, 1, "50"))
	require.ErrorIs(t, err, domain.ErrDuplicateDeposit)

	// the first deposit must survive unchanged
	requireBalances(t, acc, "100", "0")
	amount, ok := acc.DepositAmount(1)
	require.True(t, ok)
	require.True(t, amount.Equal(decimal.NewFromInt(100)))
}

func TestDeposit_MissingAmountRejected(t *testing.T) {
	acc := NewAccount(1, false)
	err := acc.Apply(domain.NewReferenceEvent(domain.KindDeposit, 1, 1))
	require.ErrorIs(t, err, domain.ErrMissingAmount)
	requireBalances(t, acc, "0", "0")
}

func TestDeposit_NegativeAmountRejected(t *testing.T) {
	acc := NewAccount(1, false)
	err := acc.Apply(deposit(1, 1, "-5"))
	require.ErrorIs(t, err, domain.ErrNegativeAmount)
	requireBalances(t, acc, "0", "0")
}

func TestWithdrawal_DecreasesAvailable(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")
	require.NoError(t, acc.Apply(withdrawal(1, 2, "40")))
	requireBalances(t, acc, "60", "0")
}

func TestWithdrawal_ExactBalanceSucceeds(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "50")
	require.NoError(t, acc.Apply(withdrawal(1, 2, "50")))
	requireBalances(t, acc, "0", "0")
}

func TestWithdrawal_InsufficientFundsLeavesAccountUntouched(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "10")
	err := acc.Apply(withdrawal(1, 2, "20"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	requireBalances(t, acc, "10", "0")
}

func TestDispute_MovesAmountToHeld(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")
	totalBefore := acc.Total()

	require.NoError(t, acc.Apply(dispute(1, 1)))
	requireBalances(t, acc, "0", "100")
	require.True(t, acc.Total().Equal(totalBefore), "dispute must conserve total")
	require.True(t, acc.UnderDispute(1))
}

func TestDispute_UnknownTxRejected(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")
	err := acc.Apply(dispute(1, 99))
	require.ErrorIs(t, err, domain.ErrDepositNotFound)
	requireBalances(t, acc, "100", "0")
}

func TestDispute_WithdrawalTxCannotBeDisputed(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")
	require.NoError(t, acc.Apply(withdrawal(1, 2, "40")))

	// withdrawals are not ledgered as deposits, so tx 2 is not
	// disputable
	err := acc.Apply(dispute(1, 2))
	require.ErrorIs(t, err, domain.ErrDepositNotFound)
	requireBalances(t, acc, "60", "0")
}

func TestDispute_SecondDisputeOnSameTxRejected(t *testing.T) {
	acc := accountWithDispute(t, 1, 1, "100")
	err := acc.Apply(dispute(1, 1))
	require.ErrorIs(t, err, domain.ErrAlreadyDisputed)
	requireBalances(t, acc, "0", "100")
}

func TestDispute_AfterWithdrawalDrivesAvailableNegative(t *testing.T) {
	// Bank-hold semantics: the hold is applied even when the funds
	// were already withdrawn, pending resolution.
	acc := accountWithDeposit(t, 1, 1, "100")
	require.NoError(t, acc.Apply(withdrawal(1, 2, "80")))

	require.NoError(t, acc.Apply(dispute(1, 1)))
	requireBalances(t, acc, "-80", "100")
}

func TestDispute_StrictModeRejectsUncoveredDispute(t *testing.T) {
	acc := NewAccount(1, true)
	require.NoError(t, acc.Apply(deposit(1, 1, "100")))
	require.NoError(t, acc.Apply(withdrawal(1, 2, "80")))

	err := acc.Apply(dispute(1, 1))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	requireBalances(t, acc, "20", "0")
	require.False(t, acc.UnderDispute(1))
}

func TestDispute_StrictModeAcceptsCoveredDispute(t *testing.T) {
	acc := NewAccount(1, true)
	require.NoError(t, acc.Apply(deposit(1, 1, "100")))

	require.NoError(t, acc.Apply(dispute(1, 1)))
	requireBalances(t, acc, "0", "100")
}

func TestResolve_RestoresPreDisputeSplit(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")
	availableBefore := acc.Available()
	heldBefore := acc.Held()

	require.NoError(t, acc.Apply(dispute(1, 1)))
	require.NoError(t, acc.Apply(resolve(1, 1)))

	require.True(t, acc.Available().Equal(availableBefore))
	require.True(t, acc.Held().Equal(heldBefore))
	require.False(t, acc.UnderDispute(1))
}

func TestResolve_WithoutDisputeRejected(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")
	err := acc.Apply(resolve(1, 1))
	require.ErrorIs(t, err, domain.ErrTxNotUnderDispute)
	requireBalances(t, acc, "100", "0")
}

func TestResolve_UnknownTxRejected(t *testing.T) {
	acc := accountWithDispute(t, 1, 1, "100")
	err := acc.Apply(resolve(1, 99))
	require.ErrorIs(t, err, domain.ErrDepositNotFound)
	requireBalances(t, acc, "0", "100")
}

func TestDispute_EligibleAgainAfterResolve(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")

	require.NoError(t, acc.Apply(dispute(1, 1)))
	require.NoError(t, acc.Apply(resolve(1, 1)))
	require.NoError(t, acc.Apply(dispute(1, 1)))

	requireBalances(t, acc, "0", "100")
}

func TestChargeback_RemovesHeldAndFreezes(t *testing.T) {
	acc := accountWithDispute(t, 1, 1, "100")
	totalBefore := acc.Total()

	require.NoError(t, acc.Apply(chargeback(1, 1)))
	requireBalances(t, acc, "0", "0")
	require.True(t, acc.Total().Equal(totalBefore.Sub(decimal.NewFromInt(100))))
	require.True(t, acc.Frozen())
}

func TestChargeback_WithoutDisputeRejected(t *testing.T) {
	acc := accountWithDeposit(t, 1, 1, "100")
	err := acc.Apply(chargeback(1, 1))
	require.ErrorIs(t, err, domain.ErrTxNotUnderDispute)
	requireBalances(t, acc, "100", "0")
	require.False(t, acc.Frozen())
}

func TestChargeback_UnknownTxRejected(t *testing.T) {
	acc := accountWithDispute(t, 1, 1, "100")
	err := acc.Apply(chargeback(1, 99))
	require.ErrorIs(t, err, domain.ErrDepositNotFound)
	requireBalances(t, acc, "0", "100")
	require.False(t, acc.Frozen())
}

func TestFrozenAccount_RejectsEverything(t *testing.T) {
	acc := accountWithDispute(t, 1, 1, "100")
	require.NoError(t, acc.Apply(chargeback(1, 1)))
	require.True(t, acc.Frozen())

	// frozen wins over every other failure, including lookups that
	// would also fail
	events := []domain.Event{
		deposit(1, 2, "10"),
		withdrawal(1, 3, "10"),
		dispute(1, 99),
		resolve(1, 99),
		chargeback(1, 99),
	}
	for _, e := range events {
		err := acc.Apply(e)
		require.ErrorIs(t, err, domain.ErrAccountFrozen, "event %s", e)
	}

	requireBalances(t, acc, "0", "0")
}

func TestApply_MismatchingClientRejected(t *testing.T) {
	acc := NewAccount(1, false)
	err := acc.Apply(deposit(2, 1, "100"))
	require.ErrorIs(t, err, domain.ErrMismatchingAccounts)
	requireBalances(t, acc, "0", "0")
}

func TestRuleError_CarriesClientAndTx(t *testing.T) {
	acc := accountWithDeposit(t, 7, 1, "100")
	err := acc.Apply(dispute(7, 42))

	var ruleErr *domain.RuleError
	require.ErrorAs(t, err, &ruleErr)
	require.Equal(t, domain.ClientID(7), ruleErr.Client)
	require.Equal(t, domain.TxID(42), ruleErr.Tx)
}
