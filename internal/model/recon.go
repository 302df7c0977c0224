package model

import "github.com/shopspring/decimal"

// Classification is the traffic-light outcome of reconciling one account.
type Classification string

const (
	// ClassIntegrityError marks an account whose own reported arithmetic
	// (initial + debit - credit vs final) does not close.
	ClassIntegrityError Classification = "integrity-error"
	// ClassReconciled marks an account whose recomputed invoice net matches
	// the reported final balance within tolerance.
	ClassReconciled Classification = "reconciled"
	// ClassOpeningOnly marks an account whose reported balance is not
	// explained by any invoice in range; it stems from a carried-forward
	// opening balance or reference-less entries.
	ClassOpeningOnly Classification = "opening-balance-only"
	// ClassUnexplained marks an account with a material difference that
	// needs manual review.
	ClassUnexplained Classification = "unexplained-difference"
)

// ReconciliationRow is the per-account reconciliation verdict.
type ReconciliationRow struct {
	Code           string
	Name           string
	InvoiceNet     decimal.Decimal // recomputed from per-account invoices in range
	ReportedFinal  decimal.Decimal // ledger control total, never filtered
	Difference     decimal.Decimal // ReportedFinal - InvoiceNet
	Classification Classification
}

// GlobalSummary mirrors the per-account reconciliation at portfolio scale.
// ReportedAvailable is false when the export had no global control row; the
// reported and residual figures are then meaningless and must be rendered
// as unavailable, not zero.
type GlobalSummary struct {
	RecomputedNet     decimal.Decimal
	NonInvoiceBacked  decimal.Decimal // reported balances of accounts with no invoice in range
	ReportedFinal     decimal.Decimal
	Residual          decimal.Decimal // ReportedFinal - RecomputedNet
	ReportedAvailable bool
}
