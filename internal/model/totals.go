package model

import "github.com/shopspring/decimal"

// AccountTotal is the ledger's self-reported "Total:" row for one account.
// These figures are the export's own control totals, never values this
// system computed.
type AccountTotal struct {
	Code           string
	Name           string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	FinalBalance   decimal.Decimal
	InitialBalance decimal.Decimal
	HasInitial     bool
}

// GlobalTotal is the single "Total Clientes :" portfolio-level control row.
type GlobalTotal struct {
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	FinalBalance decimal.Decimal
}
