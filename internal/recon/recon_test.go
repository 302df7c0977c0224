package recon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciliar-dev/conciliar/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func acct(code string) model.AccountContext {
	return model.AccountContext{Code: code, Name: "CLIENTE " + code}
}

func inv(code, net string) model.AccountInvoice {
	return model.AccountInvoice{Account: acct(code), NetBalance: dec(net)}
}

func total(code, debit, credit, final, initial string) model.AccountTotal {
	return model.AccountTotal{
		Code:           code,
		Name:           "CLIENTE " + code,
		Debit:          dec(debit),
		Credit:         dec(credit),
		FinalBalance:   dec(final),
		InitialBalance: dec(initial),
		HasInitial:     true,
	}
}

func TestReconcileMatching(t *testing.T) {
	rows := Reconcile(
		[]model.AccountInvoice{inv("100-001-000-000", "500")},
		[]model.AccountTotal{total("100-001-000-000", "500", "0", "500", "0")},
		DefaultTolerance,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, model.ClassReconciled, rows[0].Classification)
	assert.True(t, rows[0].Difference.IsZero())
}

func TestReconcileWithinTolerance(t *testing.T) {
	rows := Reconcile(
		[]model.AccountInvoice{inv("100-001-000-000", "499.50")},
		[]model.AccountTotal{total("100-001-000-000", "499.50", "0", "500", "0.50")},
		DefaultTolerance,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, model.ClassReconciled, rows[0].Classification)
}

func TestReconcileOpeningBalanceOnly(t *testing.T) {
	// Reported balance 1000 with no invoice net in range.
	rows := Reconcile(
		nil,
		[]model.AccountTotal{total("100-001-000-000", "0", "0", "1000", "1000")},
		DefaultTolerance,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, model.ClassOpeningOnly, rows[0].Classification)
	assert.True(t, rows[0].InvoiceNet.IsZero())
	assert.True(t, rows[0].Difference.Equal(dec("1000")))
}

func TestReconcileUnexplained(t *testing.T) {
	rows := Reconcile(
		[]model.AccountInvoice{inv("100-001-000-000", "300")},
		[]model.AccountTotal{total("100-001-000-000", "500", "0", "500", "0")},
		DefaultTolerance,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, model.ClassUnexplained, rows[0].Classification)
	assert.True(t, rows[0].Difference.Equal(dec("200")))
}

func TestReconcileIntegrityError(t *testing.T) {
	// initial 0 + debit 500 - credit 0 = 500, but reported final is 550:
	// the export's own arithmetic is off by 50, beyond tolerance 1.
	rows := Reconcile(
		[]model.AccountInvoice{inv("100-001-000-000", "550")},
		[]model.AccountTotal{total("100-001-000-000", "500", "0", "550", "0")},
		DefaultTolerance,
	)

	require.Len(t, rows, 1)
	// Integrity beats every other rule, even though net matches final.
	assert.Equal(t, model.ClassIntegrityError, rows[0].Classification)
}

func TestReconcileIntegritySkippedWithoutInitial(t *testing.T) {
	tot := total("100-001-000-000", "500", "0", "550", "0")
	tot.HasInitial = false

	rows := Reconcile(
		[]model.AccountInvoice{inv("100-001-000-000", "550")},
		[]model.AccountTotal{tot},
		DefaultTolerance,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, model.ClassReconciled, rows[0].Classification)
}

func TestReconcileMissingControlRowExcludesAccount(t *testing.T) {
	rows := Reconcile(
		[]model.AccountInvoice{
			inv("100-001-000-000", "500"),
			inv("100-002-000-000", "300"),
		},
		[]model.AccountTotal{total("100-001-000-000", "500", "0", "500", "0")},
		DefaultTolerance,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, "100-001-000-000", rows[0].Code)
}

func TestReconcileEveryRowClassified(t *testing.T) {
	totals := []model.AccountTotal{
		total("100-001-000-000", "500", "0", "500", "0"),
		total("100-002-000-000", "0", "0", "1000", "1000"),
		total("100-003-000-000", "500", "0", "800", "0"),
		total("100-004-000-000", "10", "0", "400", "0"),
	}
	invs := []model.AccountInvoice{
		inv("100-001-000-000", "500"),
		inv("100-004-000-000", "10"),
	}

	rows := Reconcile(invs, totals, DefaultTolerance)
	require.Len(t, rows, 4)

	valid := map[model.Classification]bool{
		model.ClassIntegrityError: true,
		model.ClassReconciled:     true,
		model.ClassOpeningOnly:    true,
		model.ClassUnexplained:    true,
	}
	for _, r := range rows {
		assert.True(t, valid[r.Classification], "account %s has classification %q", r.Code, r.Classification)
	}
}

func TestReconcileCustomTolerance(t *testing.T) {
	rows := Reconcile(
		[]model.AccountInvoice{inv("100-001-000-000", "450")},
		[]model.AccountTotal{total("100-001-000-000", "450", "0", "500", "50")},
		dec("100"),
	)

	require.Len(t, rows, 1)
	assert.Equal(t, model.ClassReconciled, rows[0].Classification)
}

func TestSummarize(t *testing.T) {
	rows := []model.ReconciliationRow{
		{Code: "a", InvoiceNet: dec("500"), ReportedFinal: dec("500"), Classification: model.ClassReconciled},
		{Code: "b", InvoiceNet: decimal.Zero, ReportedFinal: dec("1000"), Classification: model.ClassOpeningOnly},
	}
	global := &model.GlobalTotal{Debit: dec("1500"), FinalBalance: dec("1500")}

	s := Summarize(rows, global)
	assert.True(t, s.RecomputedNet.Equal(dec("500")))
	assert.True(t, s.NonInvoiceBacked.Equal(dec("1000")))
	assert.True(t, s.ReportedAvailable)
	assert.True(t, s.ReportedFinal.Equal(dec("1500")))
	assert.True(t, s.Residual.Equal(dec("1000")))
}

func TestSummarizeMissingGlobalTotal(t *testing.T) {
	rows := []model.ReconciliationRow{
		{Code: "a", InvoiceNet: dec("500"), Classification: model.ClassReconciled},
	}

	s := Summarize(rows, nil)
	assert.False(t, s.ReportedAvailable)
	assert.True(t, s.RecomputedNet.Equal(dec("500")))
	assert.True(t, s.ReportedFinal.IsZero())
}
