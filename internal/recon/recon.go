// Package recon compares the ledger's self-reported control totals with
// the invoice balances this system recomputes, and classifies every
// account's reconciliation state.
package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// DefaultTolerance is one unit of currency: deviations at or under it are
// treated as immaterial rounding.
var DefaultTolerance = decimal.NewFromInt(1)

// Reconcile classifies each account that has a control-total row. The
// invoice slice is the per-account view over the active filter window;
// control totals are the export's full-period snapshot and are never
// filtered. Accounts without a control row cannot be classified and do
// not appear.
func Reconcile(invs []model.AccountInvoice, totals []model.AccountTotal, tolerance decimal.Decimal) []model.ReconciliationRow {
	netByCode := make(map[string]decimal.Decimal)
	for _, inv := range invs {
		netByCode[inv.Account.Code] = netByCode[inv.Account.Code].Add(inv.NetBalance)
	}

	seen := make(map[string]bool, len(totals))
	rows := make([]model.ReconciliationRow, 0, len(totals))
	for _, t := range totals {
		if seen[t.Code] {
			continue // first control row wins for a duplicated account
		}
		seen[t.Code] = true

		net := netByCode[t.Code]
		diff := t.FinalBalance.Sub(net)
		rows = append(rows, model.ReconciliationRow{
			Code:           t.Code,
			Name:           t.Name,
			InvoiceNet:     net,
			ReportedFinal:  t.FinalBalance,
			Difference:     diff,
			Classification: classify(t, net, diff, tolerance),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}

// classify evaluates the rules in priority order; the first match wins.
func classify(t model.AccountTotal, net, diff, tolerance decimal.Decimal) model.Classification {
	// The export's own arithmetic must close before any difference against
	// recomputed figures means anything. Without a reported initial
	// balance the check cannot run and is skipped, never guessed.
	if t.HasInitial {
		expected := t.InitialBalance.Add(t.Debit).Sub(t.Credit)
		if expected.Sub(t.FinalBalance).Abs().GreaterThan(tolerance) {
			return model.ClassIntegrityError
		}
	}
	if diff.Abs().LessThanOrEqual(tolerance) {
		return model.ClassReconciled
	}
	if net.Abs().LessThanOrEqual(tolerance) {
		return model.ClassOpeningOnly
	}
	return model.ClassUnexplained
}

// Summarize mirrors the per-account reconciliation at portfolio scale.
// A nil global control total degrades the reported-side figures to
// unavailable; the recomputed side is always present.
func Summarize(rows []model.ReconciliationRow, global *model.GlobalTotal) model.GlobalSummary {
	var s model.GlobalSummary
	for _, r := range rows {
		s.RecomputedNet = s.RecomputedNet.Add(r.InvoiceNet)
		if r.Classification == model.ClassOpeningOnly {
			s.NonInvoiceBacked = s.NonInvoiceBacked.Add(r.ReportedFinal)
		}
	}
	if global != nil {
		s.ReportedFinal = global.FinalBalance
		s.Residual = global.FinalBalance.Sub(s.RecomputedNet)
		s.ReportedAvailable = true
	}
	return s
}
