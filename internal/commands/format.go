package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

func money(n int64) string {
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

func odds(v float64) string {
	return fmt.Sprintf("%+.0f", v)
}

func record(a ledger.Account) string {
	return fmt.Sprintf("%dW - %dL", a.Wins, a.Losses)
}

func inventory(a ledger.Account) string {
	items := make([]string, 0, len(a.Inventory))
	for it, n := range a.Inventory {
		if n > 0 {
			items = append(items, fmt.Sprintf("%s x%d", it, n))
		}
	}
	if len(items) == 0 {
		return "none"
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}

func statusLabel(e ledger.Event) string {
	switch e.Status() {
	case ledger.StatusLocked:
		return "locked"
	case ledger.StatusResolved:
		return "final"
	default:
		return "open"
	}
}
