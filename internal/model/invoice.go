package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a per-reference aggregate across all accounts.
// NetBalance > 0 means open/pending, == 0 settled, < 0 a credit balance in
// favor of the account holder.
type Invoice struct {
	Reference   string
	FirstDate   time.Time // zero when no movement of the reference had a parseable date
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	NetBalance  decimal.Decimal
	Primary     AccountContext
	Accounts    []AccountContext // sorted by code, unique
}

// AccountCount returns the number of distinct accounts the reference
// appears in.
func (inv Invoice) AccountCount() int {
	return len(inv.Accounts)
}

// CrossesAccounts reports whether the reference is spread over more than
// one account.
func (inv Invoice) CrossesAccounts() bool {
	return len(inv.Accounts) > 1
}

// InvolvedAccounts returns the sorted "code - name | code - name" listing.
func (inv Invoice) InvolvedAccounts() string {
	labels := make([]string, len(inv.Accounts))
	for i, a := range inv.Accounts {
		labels[i] = a.Label()
	}
	return strings.Join(labels, " | ")
}

// OtherAccounts returns the involved-accounts listing minus the primary.
func (inv Invoice) OtherAccounts() string {
	var labels []string
	for _, a := range inv.Accounts {
		if a.Code != inv.Primary.Code {
			labels = append(labels, a.Label())
		}
	}
	return strings.Join(labels, " | ")
}

// AccountInvoice is a per-(account, reference) aggregate. A single global
// invoice yields one AccountInvoice per account it touches.
type AccountInvoice struct {
	Account     AccountContext
	Reference   string
	FirstDate   time.Time
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	NetBalance  decimal.Decimal
}

// CrossAccountEntry is one (reference, account) partition of a reference
// flagged as a cross-account anomaly, annotated with the reference-level
// aggregate for side-by-side comparison.
type CrossAccountEntry struct {
	Reference    string
	Account      AccountContext
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Net          decimal.Decimal
	RefDebit     decimal.Decimal
	RefCredit    decimal.Decimal
	RefNet       decimal.Decimal
	AccountCount int
}
