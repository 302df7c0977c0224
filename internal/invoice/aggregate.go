// Package invoice reconstructs per-invoice balances from classified
// movements. Both views are pure reductions over whatever movement subset
// they are given, so re-filtering is just re-aggregation.
package invoice

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/refkey"
)

type globalAcc struct {
	inv      model.Invoice
	accounts map[string]model.AccountContext

	// primary-account selection state
	bestDebit   decimal.Decimal
	bestDebitAt model.AccountContext
	hasDebit    bool
	earliest    model.Movement
	hasEarliest bool
}

// Global aggregates valid movements by final join key across all
// accounts. Results are sorted by reference.
func Global(movs []model.Movement, r refkey.Resolver) []model.Invoice {
	groups := make(map[string]*globalAcc)

	for _, m := range movs {
		if !m.Valid() {
			continue
		}
		key := r.Resolve(m.Reference)
		g, ok := groups[key]
		if !ok {
			g = &globalAcc{
				inv:      model.Invoice{Reference: key},
				accounts: make(map[string]model.AccountContext),
			}
			groups[key] = g
		}

		g.inv.TotalDebit = g.inv.TotalDebit.Add(m.Debit)
		g.inv.TotalCredit = g.inv.TotalCredit.Add(m.Credit)
		g.accounts[m.Account.Code] = m.Account

		if !m.Date.IsZero() && (g.inv.FirstDate.IsZero() || m.Date.Before(g.inv.FirstDate)) {
			g.inv.FirstDate = m.Date
		}

		// Primary account: the largest single positive debit wins; equal
		// debits break on the smaller account code.
		if m.Debit.IsPositive() {
			switch {
			case !g.hasDebit,
				m.Debit.GreaterThan(g.bestDebit),
				m.Debit.Equal(g.bestDebit) && m.Account.Code < g.bestDebitAt.Code:
				g.bestDebit = m.Debit
				g.bestDebitAt = m.Account
				g.hasDebit = true
			}
		}
		// Fallback candidate: chronologically earliest movement.
		if !m.Date.IsZero() && (!g.hasEarliest || m.Date.Before(g.earliest.Date)) {
			g.earliest = m
			g.hasEarliest = true
		}
	}

	out := make([]model.Invoice, 0, len(groups))
	for _, g := range groups {
		inv := g.inv
		inv.NetBalance = inv.TotalDebit.Sub(inv.TotalCredit)
		inv.Accounts = sortedAccounts(g.accounts)
		inv.Primary = g.primary(inv.Accounts)
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out
}

// primary applies the selection rule: positive-debit account first, then
// the earliest movement's account, then the smallest account code.
func (g *globalAcc) primary(accounts []model.AccountContext) model.AccountContext {
	if g.hasDebit {
		return g.bestDebitAt
	}
	if g.hasEarliest {
		return g.earliest.Account
	}
	if len(accounts) > 0 {
		return accounts[0]
	}
	return model.AccountContext{}
}

type accountKey struct {
	code string
	ref  string
}

// PerAccount aggregates valid movements by (account, final join key),
// never crossing accounts. Results are sorted by account code, then
// reference.
func PerAccount(movs []model.Movement, r refkey.Resolver) []model.AccountInvoice {
	groups := make(map[accountKey]*model.AccountInvoice)

	for _, m := range movs {
		if !m.Valid() {
			continue
		}
		key := accountKey{code: m.Account.Code, ref: r.Resolve(m.Reference)}
		g, ok := groups[key]
		if !ok {
			g = &model.AccountInvoice{Account: m.Account, Reference: key.ref}
			groups[key] = g
		}
		g.TotalDebit = g.TotalDebit.Add(m.Debit)
		g.TotalCredit = g.TotalCredit.Add(m.Credit)
		if !m.Date.IsZero() && (g.FirstDate.IsZero() || m.Date.Before(g.FirstDate)) {
			g.FirstDate = m.Date
		}
	}

	out := make([]model.AccountInvoice, 0, len(groups))
	for _, g := range groups {
		g.NetBalance = g.TotalDebit.Sub(g.TotalCredit)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account.Code != out[j].Account.Code {
			return out[i].Account.Code < out[j].Account.Code
		}
		return out[i].Reference < out[j].Reference
	})
	return out
}

// Pending filters a global view down to open invoices (net > 0).
func Pending(invs []model.Invoice) []model.Invoice {
	var out []model.Invoice
	for _, inv := range invs {
		if inv.NetBalance.IsPositive() {
			out = append(out, inv)
		}
	}
	return out
}

// PendingPerAccount filters a per-account view down to open invoices.
func PendingPerAccount(invs []model.AccountInvoice) []model.AccountInvoice {
	var out []model.AccountInvoice
	for _, inv := range invs {
		if inv.NetBalance.IsPositive() {
			out = append(out, inv)
		}
	}
	return out
}

func sortedAccounts(set map[string]model.AccountContext) []model.AccountContext {
	out := make([]model.AccountContext, 0, len(set))
	for _, a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
