// Package report serializes engine results into plain row/column tables
// and writes them as CSV or XLSX. Nothing in here computes; formatting is
// the only job.
package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/invoice"
	"github.com/conciliar-dev/conciliar/internal/ledger"
	"github.com/conciliar-dev/conciliar/internal/model"
)

// Table is one result table: a name, a header, and string rows.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

const dateFormat = "2006-01-02"

// Unavailable is rendered for metrics that cannot be computed because the
// export lacked the control row they depend on. A blank or zero would
// read as "no difference".
const Unavailable = "unavailable"

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func fmtAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// GlobalInvoices renders the per-reference view across all accounts.
func GlobalInvoices(invs []model.Invoice) Table {
	t := Table{
		Name: "invoices_global",
		Header: []string{
			"reference", "first_date", "total_debit", "total_credit", "net_balance",
			"primary_account_code", "primary_account_name", "account_count",
			"crosses_accounts", "involved_accounts",
		},
	}
	for _, inv := range invs {
		t.Rows = append(t.Rows, []string{
			inv.Reference,
			fmtDate(inv.FirstDate),
			fmtAmount(inv.TotalDebit),
			fmtAmount(inv.TotalCredit),
			fmtAmount(inv.NetBalance),
			inv.Primary.Code,
			inv.Primary.Name,
			strconv.Itoa(inv.AccountCount()),
			strconv.FormatBool(inv.CrossesAccounts()),
			inv.InvolvedAccounts(),
		})
	}
	return t
}

// AccountInvoices renders the per-(account, reference) view.
func AccountInvoices(invs []model.AccountInvoice) Table {
	t := Table{
		Name: "invoices_by_account",
		Header: []string{
			"account_code", "account_name", "reference", "first_date",
			"total_debit", "total_credit", "net_balance",
		},
	}
	for _, inv := range invs {
		t.Rows = append(t.Rows, []string{
			inv.Account.Code,
			inv.Account.Name,
			inv.Reference,
			fmtDate(inv.FirstDate),
			fmtAmount(inv.TotalDebit),
			fmtAmount(inv.TotalCredit),
			fmtAmount(inv.NetBalance),
		})
	}
	return t
}

// PendingByAccount renders the open-invoice rollup per primary account.
func PendingByAccount(sums []invoice.AccountPending) Table {
	t := Table{
		Name:   "pending_by_account",
		Header: []string{"account_code", "account_name", "pending_invoices", "pending_total"},
	}
	for _, s := range sums {
		t.Rows = append(t.Rows, []string{
			s.Account.Code,
			s.Account.Name,
			strconv.Itoa(s.InvoiceCount),
			fmtAmount(s.PendingTotal),
		})
	}
	return t
}

// Reconciliation renders the per-account classification table.
func Reconciliation(rows []model.ReconciliationRow) Table {
	t := Table{
		Name: "reconciliation",
		Header: []string{
			"account_code", "account_name", "invoice_net", "reported_final",
			"difference", "classification",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Code,
			r.Name,
			fmtAmount(r.InvoiceNet),
			fmtAmount(r.ReportedFinal),
			fmtAmount(r.Difference),
			string(r.Classification),
		})
	}
	return t
}

// CrossAccount renders the cross-account anomaly detail, one row per
// (reference, account) partition with the reference-level aggregate
// alongside.
func CrossAccount(entries []model.CrossAccountEntry) Table {
	t := Table{
		Name: "cross_account",
		Header: []string{
			"reference", "account_code", "account_name", "debit", "credit", "net",
			"ref_debit", "ref_credit", "ref_net", "account_count",
		},
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.Reference,
			e.Account.Code,
			e.Account.Name,
			fmtAmount(e.Debit),
			fmtAmount(e.Credit),
			fmtAmount(e.Net),
			fmtAmount(e.RefDebit),
			fmtAmount(e.RefCredit),
			fmtAmount(e.RefNet),
			strconv.Itoa(e.AccountCount),
		})
	}
	return t
}

// Summary renders the portfolio-level scalars. Reported-side metrics show
// Unavailable when the export had no global control row.
func Summary(s model.GlobalSummary) Table {
	reported := Unavailable
	residual := Unavailable
	if s.ReportedAvailable {
		reported = fmtAmount(s.ReportedFinal)
		residual = fmtAmount(s.Residual)
	}
	return Table{
		Name:   "summary",
		Header: []string{"metric", "value"},
		Rows: [][]string{
			{"recomputed_net", fmtAmount(s.RecomputedNet)},
			{"reported_final", reported},
			{"residual_difference", residual},
			{"non_invoice_backed_balance", fmtAmount(s.NonInvoiceBacked)},
		},
	}
}

// ParseAudit renders the row-level observations the lenient parse
// policies absorb, for audit visibility.
func ParseAudit(a ledger.Audit) Table {
	t := Table{
		Name:   "parse_audit",
		Header: []string{"item", "account_code", "count"},
	}
	for _, code := range sortedKeys(a.UnparsedAmounts) {
		t.Rows = append(t.Rows, []string{"unparsed_amount_cells", code, strconv.Itoa(a.UnparsedAmounts[code])})
	}
	t.Rows = append(t.Rows,
		[]string{"unclassified_rows", "", strconv.Itoa(a.UnclassifiedRows)},
		[]string{"orphan_movements", "", strconv.Itoa(a.OrphanMovements)},
		[]string{"extra_global_total_rows", "", strconv.Itoa(a.ExtraGlobalRows)},
	)
	return t
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
