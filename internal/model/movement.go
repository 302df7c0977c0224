package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountContext identifies the subledger account a movement belongs to.
// It is established by an account-header row and carried forward to every
// following row until the next header.
type AccountContext struct {
	Code           string // "NNN-NNN-NNN-NNN"
	Name           string
	InitialBalance decimal.Decimal
	HasInitial     bool // false when the header row carried no numeric balance
}

// Label returns the "code - name" form used in report listings.
func (a AccountContext) Label() string {
	return a.Code + " - " + a.Name
}

// Movement is one classified movement row from the subledger export.
// A zero Date means the row's date cell did not parse; such movements are
// kept but excluded from date-range calculations.
type Movement struct {
	Date           time.Time
	Type           string
	PolicyNumber   string
	Concept        string
	ReferenceRaw   string
	Reference      string // normalized join key, "" when the raw cell was empty/unparseable
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	RunningBalance decimal.Decimal
	Account        AccountContext
}

// Valid reports whether the movement carries a usable invoice reference and
// is therefore eligible for invoice aggregation.
func (m Movement) Valid() bool {
	return m.Reference != ""
}
