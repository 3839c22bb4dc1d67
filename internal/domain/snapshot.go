package domain

import "github.com/shopspring/decimal"

// Snapshot is the terminal read-only state of one account, produced
// once at the end of a run. Total is derived, never stored.
type Snapshot struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}
