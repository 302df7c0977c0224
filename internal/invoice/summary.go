package invoice

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// AccountPending summarizes open invoices for one primary account.
type AccountPending struct {
	Account      model.AccountContext
	InvoiceCount int
	PendingTotal decimal.Decimal
}

// PendingByAccount rolls pending global invoices up by primary account,
// sorted by pending balance descending.
func PendingByAccount(invs []model.Invoice) []AccountPending {
	byCode := make(map[string]*AccountPending)
	for _, inv := range invs {
		if !inv.NetBalance.IsPositive() {
			continue
		}
		s, ok := byCode[inv.Primary.Code]
		if !ok {
			s = &AccountPending{Account: inv.Primary}
			byCode[inv.Primary.Code] = s
		}
		s.InvoiceCount++
		s.PendingTotal = s.PendingTotal.Add(inv.NetBalance)
	}

	out := make([]AccountPending, 0, len(byCode))
	for _, s := range byCode {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PendingTotal.Equal(out[j].PendingTotal) {
			return out[i].PendingTotal.GreaterThan(out[j].PendingTotal)
		}
		return out[i].Account.Code < out[j].Account.Code
	})
	return out
}
