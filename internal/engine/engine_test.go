package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciliar-dev/conciliar/internal/invoice"
	"github.com/conciliar-dev/conciliar/internal/ledger"
	"github.com/conciliar-dev/conciliar/internal/loader"
	"github.com/conciliar-dev/conciliar/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixture(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

// One account, one pending invoice, matching control totals.
var singleAccount = fixture(
	`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,0.00`,
	`01/Ene/2025,Ingreso,P-1,Venta,F-100,500.00,,500.00`,
	`,,,,Total:,500.00,0.00,500.00`,
	`Total Clientes :,500.00,0.00,500.00`,
)

func TestScenarioSingleReconciledAccount(t *testing.T) {
	sess, err := NewSession(singleAccount, Options{})
	require.NoError(t, err)

	res := sess.Results(invoice.Filter{})

	require.Len(t, res.GlobalInvoices, 1)
	inv := res.GlobalInvoices[0]
	assert.Equal(t, "100", inv.Reference)
	assert.True(t, inv.NetBalance.Equal(dec("500")))

	require.Len(t, res.Reconciliation, 1)
	row := res.Reconciliation[0]
	assert.Equal(t, "100-001-000-000", row.Code)
	assert.Equal(t, model.ClassReconciled, row.Classification)

	assert.True(t, res.Summary.ReportedAvailable)
	assert.True(t, res.Summary.RecomputedNet.Equal(dec("500")))
	assert.True(t, res.Summary.Residual.IsZero())
}

// Semicolon-delimited exports write decimal commas: "500,00" is five
// hundred, not fifty thousand.
func TestScenarioSemicolonDecimalComma(t *testing.T) {
	data := fixture(
		`100-001-000-000;CLIENTE UNO;;;;;Saldo inicial :;0,00`,
		`01/Ene/2025;Ingreso;P-1;Venta;F-100;500,00;;500,00`,
		`;;;;Total:;500,00;0,00;500,00`,
		`Total Clientes :;500,00;0,00;500,00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	res := sess.Results(invoice.Filter{})

	require.Len(t, res.GlobalInvoices, 1)
	inv := res.GlobalInvoices[0]
	assert.True(t, inv.TotalDebit.Equal(dec("500")), "got %s", inv.TotalDebit)
	assert.True(t, inv.NetBalance.Equal(dec("500")))

	require.Len(t, res.Reconciliation, 1)
	assert.Equal(t, model.ClassReconciled, res.Reconciliation[0].Classification)
	assert.True(t, res.Summary.RecomputedNet.Equal(dec("500")))
	assert.True(t, res.Summary.Residual.IsZero())
}

func TestScenarioCrossAccountPayment(t *testing.T) {
	data := fixture(
		`100-001-000-000,CLIENTE A,,,,,Saldo inicial :,0.00`,
		`01/Ene/2025,Ingreso,P-1,Venta,200,300.00,,300.00`,
		`,,,,Total:,300.00,0.00,300.00`,
		`100-002-000-000,CLIENTE B,,,,,Saldo inicial :,0.00`,
		`02/Ene/2025,Egreso,P-2,Pago,200,,300.00,-300.00`,
		`,,,,Total:,0.00,300.00,-300.00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	res := sess.Results(invoice.Filter{})

	require.Len(t, res.GlobalInvoices, 1)
	inv := res.GlobalInvoices[0]
	assert.Equal(t, "200", inv.Reference)
	assert.True(t, inv.NetBalance.IsZero())
	assert.Equal(t, 2, inv.AccountCount())

	require.Len(t, res.CrossAccount, 2)
	assert.Equal(t, "200", res.CrossAccount[0].Reference)
}

func TestScenarioOpeningBalanceOnly(t *testing.T) {
	// Reported final 1000, no movement with a valid reference.
	data := fixture(
		`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,1000.00`,
		`01/Ene/2025,Ingreso,P-1,Traspaso,,,,1000.00`,
		`,,,,Total:,0.00,0.00,1000.00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	res := sess.Results(invoice.Filter{})

	assert.Empty(t, res.GlobalInvoices)
	require.Len(t, res.Reconciliation, 1)
	row := res.Reconciliation[0]
	assert.Equal(t, model.ClassOpeningOnly, row.Classification)
	assert.True(t, row.InvoiceNet.IsZero())
	assert.True(t, res.Summary.NonInvoiceBacked.Equal(dec("1000")))
}

func TestScenarioIntegrityError(t *testing.T) {
	// initial 0 + 500 - 0 = 500, but the export claims 550.
	data := fixture(
		`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,0.00`,
		`01/Ene/2025,Ingreso,P-1,Venta,F-100,500.00,,500.00`,
		`,,,,Total:,500.00,0.00,550.00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	res := sess.Results(invoice.Filter{})

	require.Len(t, res.Reconciliation, 1)
	assert.Equal(t, model.ClassIntegrityError, res.Reconciliation[0].Classification)
}

func TestMissingGlobalTotalDegradesSummary(t *testing.T) {
	data := fixture(
		`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,0.00`,
		`01/Ene/2025,Ingreso,P-1,Venta,F-100,500.00,,500.00`,
		`,,,,Total:,500.00,0.00,500.00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	res := sess.Results(invoice.Filter{})

	assert.False(t, res.Summary.ReportedAvailable)
	// Per-account reconciliation proceeds unaffected.
	require.Len(t, res.Reconciliation, 1)
	assert.Equal(t, model.ClassReconciled, res.Reconciliation[0].Classification)
}

func TestAliasResolutionEndToEnd(t *testing.T) {
	data := fixture(
		`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,0.00`,
		`01/Ene/2025,Ingreso,P-1,Nota cargo,NCTA123,500.00,,500.00`,
		`05/Ene/2025,Egreso,P-2,Pago,123,,500.00,0.00`,
		`,,,,Total:,500.00,500.00,0.00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	res := sess.Results(invoice.Filter{})

	require.Len(t, res.GlobalInvoices, 1)
	assert.Equal(t, "NCTA123", res.GlobalInvoices[0].Reference)
	assert.True(t, res.GlobalInvoices[0].NetBalance.IsZero())
}

func TestResultsMemoized(t *testing.T) {
	sess, err := NewSession(singleAccount, Options{})
	require.NoError(t, err)

	f := invoice.Filter{From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	first := sess.Results(f)
	second := sess.Results(f)
	assert.Same(t, first, second)

	other := sess.Results(invoice.Filter{})
	assert.NotSame(t, first, other)
}

func TestFullRangeFilterMatchesUnfiltered(t *testing.T) {
	data := fixture(
		`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,0.00`,
		`01/Ene/2025,Ingreso,P-1,Venta,F-100,500.00,,500.00`,
		`15/Jun/2025,Ingreso,P-2,Venta,F-101,200.00,,700.00`,
		`31/Dic/2025,Egreso,P-3,Pago,F-100,,500.00,200.00`,
		`,,,,Total:,700.00,500.00,200.00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)

	min, max := sess.DateRange()
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), min)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), max)

	unfiltered := sess.Results(invoice.Filter{})
	full := sess.Results(invoice.Filter{From: min, To: max})

	require.Equal(t, len(unfiltered.GlobalInvoices), len(full.GlobalInvoices))
	for i := range unfiltered.GlobalInvoices {
		assert.Equal(t, unfiltered.GlobalInvoices[i].Reference, full.GlobalInvoices[i].Reference)
		assert.True(t, unfiltered.GlobalInvoices[i].NetBalance.Equal(full.GlobalInvoices[i].NetBalance))
	}
	require.Equal(t, len(unfiltered.Reconciliation), len(full.Reconciliation))
	for i := range unfiltered.Reconciliation {
		assert.Equal(t, unfiltered.Reconciliation[i].Classification, full.Reconciliation[i].Classification)
	}
}

func TestFilterChangesReconciliation(t *testing.T) {
	// Control totals stay unfiltered while invoice nets shrink with the
	// window, so a narrow filter turns the account unexplained.
	data := fixture(
		`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,0.00`,
		`01/Ene/2025,Ingreso,P-1,Venta,F-100,500.00,,500.00`,
		`15/Jun/2025,Ingreso,P-2,Venta,F-101,200.00,,700.00`,
		`,,,,Total:,700.00,0.00,700.00`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)

	early := sess.Results(invoice.Filter{To: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)})
	require.Len(t, early.Reconciliation, 1)
	assert.Equal(t, model.ClassUnexplained, early.Reconciliation[0].Classification)
	assert.True(t, early.Reconciliation[0].Difference.Equal(dec("200")))
}

func TestSessionAccessors(t *testing.T) {
	sess, err := NewSession(singleAccount, Options{})
	require.NoError(t, err)

	assert.Len(t, sess.SourceID(), 64)
	assert.Len(t, sess.Movements(), 1)
	require.Len(t, sess.Accounts(), 1)
	assert.Equal(t, "100-001-000-000", sess.Accounts()[0].Code)
	require.Len(t, sess.AccountTotals(), 1)
	require.NotNil(t, sess.GlobalTotal())
}

func TestStrictOptionsPropagate(t *testing.T) {
	data := fixture(
		`Total Clientes :,1,0,1`,
		`Total Clientes :,2,0,2`,
	)

	_, err := NewSession(data, Options{Parse: ledger.Options{StrictTotals: true}})
	require.Error(t, err)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Audit().ExtraGlobalRows)
}

func TestExplicitZeroTolerance(t *testing.T) {
	// Recomputed net 500, reported final 500.50: inside the default
	// tolerance but not an exact match.
	data := fixture(
		`100-001-000-000,CLIENTE UNO,,,,,Saldo inicial :,0.50`,
		`01/Ene/2025,Ingreso,P-1,Venta,F-100,500.00,,500.50`,
		`,,,,Total:,500.00,0.00,500.50`,
	)

	sess, err := NewSession(data, Options{})
	require.NoError(t, err)
	res := sess.Results(invoice.Filter{})
	require.Len(t, res.Reconciliation, 1)
	assert.Equal(t, model.ClassReconciled, res.Reconciliation[0].Classification)

	zero := decimal.Zero
	strict, err := NewSession(data, Options{Tolerance: &zero})
	require.NoError(t, err)
	res = strict.Results(invoice.Filter{})
	require.Len(t, res.Reconciliation, 1)
	assert.Equal(t, model.ClassUnexplained, res.Reconciliation[0].Classification)
	assert.True(t, res.Reconciliation[0].Difference.Equal(dec("0.50")))
}

func TestLoadErrorPropagates(t *testing.T) {
	_, err := NewSession(nil, Options{})
	require.Error(t, err)

	var le *loader.LoadError
	assert.ErrorAs(t, err, &le)
}
