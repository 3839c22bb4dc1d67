package stream

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/flejz/tx-cli/internal/domain"
)

// Write serializes the snapshots as CSV, one row per client, columns
// `client,available,held,total,locked`.
func Write(w io.Writer, snapshots []domain.Snapshot) error {
	out := csv.NewWriter(w)

	if err := out.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for _, s := range snapshots {
		record := []string{
			strconv.FormatUint(uint64(s.Client), 10),
			FormatAmount(s.Available),
			FormatAmount(s.Held),
			FormatAmount(s.Total),
			strconv.FormatBool(s.Locked),
		}
		if err := out.Write(record); err != nil {
			return errors.Wrapf(err, "write snapshot for client %d", s.Client)
		}
	}

	out.Flush()
	return errors.Wrap(out.Error(), "flush csv output")
}

// FormatAmount renders the amount normalized to 4 decimal places with
// trailing zeros trimmed, so 75.0000 prints as 75 and 1.5000 as 1.5.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(amountPlaces)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
