package ledger

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/loader"
	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/refkey"
)

// Positional layout of the export. No header row; meaning depends on the
// row kind.
const (
	colDate    = 0 // account code on header rows
	colType    = 1 // account name on header rows
	colPolicy  = 2
	colConcept = 3
	colRef     = 4 // "Total:" marker on per-account total rows
	colDebit   = 5
	colCredit  = 6
	colBalance = 7 // initial balance on header rows, final on total rows

	// Global total row layout.
	globalTotalMarker = "Total Clientes :"
	colGlobalDebit    = 1
	colGlobalCredit   = 2
	colGlobalBalance  = 3

	accountTotalMarker = "Total:"
	headerPhrase       = "saldo inicial"
)

// Three groups of three digits, optionally a fourth.
var accountCodePattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{3}(-\d{3})?$`)

// Options tune the strictness of a parse. The zero value is the lenient
// default behavior.
type Options struct {
	// StrictTotals fails the parse when the export carries more than one
	// global total row instead of silently taking the first.
	StrictTotals bool
	// StrictAmounts fails the parse when any amount cell on a movement row
	// could not be read as a number, instead of coercing it to zero.
	StrictAmounts bool
}

// Audit collects row-level observations the lenient policies would
// otherwise hide. It is data for the report layer, not an error.
type Audit struct {
	UnparsedAmounts  map[string]int // account code -> unreadable amount cells
	UnclassifiedRows int            // blank separators, section banners
	OrphanMovements  int            // movement-shaped rows before any header
	ExtraGlobalRows  int            // global total rows beyond the first
}

// Result is everything one parse produces. All fields are immutable after
// Parse returns.
type Result struct {
	Movements     []model.Movement
	AccountTotals []model.AccountTotal
	GlobalTotal   *model.GlobalTotal
	Audit         Audit
}

// Parse classifies every grid row and folds account context forward over
// the row sequence. Rows matching no predicate are excluded, never an
// error: real exports contain blank separators and banner rows.
func Parse(grid loader.Grid, opts Options) (*Result, error) {
	res := &Result{
		Audit: Audit{UnparsedAmounts: make(map[string]int)},
	}

	var (
		ctx    model.AccountContext
		hasCtx bool
	)

	for i := range grid.Rows {
		first := grid.Cell(i, colDate)

		switch {
		case isAccountHeader(grid, i):
			ctx = model.AccountContext{
				Code: first,
				Name: grid.Cell(i, colType),
			}
			if bal, ok := headerInitialBalance(grid, i); ok {
				ctx.InitialBalance = bal
				ctx.HasInitial = true
			}
			hasCtx = true

		case looksLikeDate(first):
			if !hasCtx {
				res.Audit.OrphanMovements++
				continue
			}
			mov, unparsed := parseMovement(grid, i, ctx)
			if unparsed > 0 {
				res.Audit.UnparsedAmounts[ctx.Code] += unparsed
				if opts.StrictAmounts {
					return nil, fmt.Errorf("row %d: unreadable amount cell in account %s", i+1, ctx.Code)
				}
			}
			res.Movements = append(res.Movements, mov)

		case grid.Cell(i, colRef) == accountTotalMarker:
			if !hasCtx {
				res.Audit.UnclassifiedRows++
				continue
			}
			res.AccountTotals = append(res.AccountTotals, parseAccountTotal(grid, i, ctx))

		case first == globalTotalMarker:
			if res.GlobalTotal != nil {
				res.Audit.ExtraGlobalRows++
				if opts.StrictTotals {
					return nil, fmt.Errorf("row %d: duplicate %q row", i+1, globalTotalMarker)
				}
				continue // first wins
			}
			gt := parseGlobalTotal(grid, i)
			res.GlobalTotal = &gt

		default:
			res.Audit.UnclassifiedRows++
		}
	}

	return res, nil
}

// isAccountHeader requires a strict account code in column 0 plus the
// "Saldo inicial" phrase anywhere on the row.
func isAccountHeader(grid loader.Grid, row int) bool {
	if !accountCodePattern.MatchString(grid.Cell(row, colDate)) {
		return false
	}
	for col := 0; col < len(grid.Rows[row]); col++ {
		if strings.Contains(strings.ToLower(grid.Cell(row, col)), headerPhrase) {
			return true
		}
	}
	return false
}

// headerInitialBalance prefers the fixed balance column; when that cell is
// not numeric it takes the rightmost numeric cell instead. Absent any
// numeric cell the balance is unknown, never zero.
func headerInitialBalance(grid loader.Grid, row int) (decimal.Decimal, bool) {
	if d, ok := parseAmount(grid.Cell(row, colBalance), grid.DecimalComma); ok {
		return d, true
	}
	for col := len(grid.Rows[row]) - 1; col > colType; col-- {
		if d, ok := parseAmount(grid.Cell(row, col), grid.DecimalComma); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

// parseMovement reads a movement row positionally. Amount cells that fail
// to parse become zero and are counted; the export pads non-monetary rows
// with blanks, so a blank cell is not counted as unparsed.
func parseMovement(grid loader.Grid, row int, ctx model.AccountContext) (model.Movement, int) {
	unparsed := 0
	amount := func(col int) decimal.Decimal {
		cell := grid.Cell(row, col)
		d, ok := parseAmount(cell, grid.DecimalComma)
		if !ok && cell != "" {
			unparsed++
		}
		return d
	}

	raw := grid.Cell(row, colRef)
	return model.Movement{
		Date:           parseDate(grid.Cell(row, colDate)),
		Type:           grid.Cell(row, colType),
		PolicyNumber:   grid.Cell(row, colPolicy),
		Concept:        grid.Cell(row, colConcept),
		ReferenceRaw:   raw,
		Reference:      refkey.Normalize(raw),
		Debit:          amount(colDebit),
		Credit:         amount(colCredit),
		RunningBalance: amount(colBalance),
		Account:        ctx,
	}, unparsed
}

func parseAccountTotal(grid loader.Grid, row int, ctx model.AccountContext) model.AccountTotal {
	debit, _ := parseAmount(grid.Cell(row, colDebit), grid.DecimalComma)
	credit, _ := parseAmount(grid.Cell(row, colCredit), grid.DecimalComma)
	final, _ := parseAmount(grid.Cell(row, colBalance), grid.DecimalComma)
	return model.AccountTotal{
		Code:           ctx.Code,
		Name:           ctx.Name,
		Debit:          debit,
		Credit:         credit,
		FinalBalance:   final,
		InitialBalance: ctx.InitialBalance,
		HasInitial:     ctx.HasInitial,
	}
}

func parseGlobalTotal(grid loader.Grid, row int) model.GlobalTotal {
	debit, _ := parseAmount(grid.Cell(row, colGlobalDebit), grid.DecimalComma)
	credit, _ := parseAmount(grid.Cell(row, colGlobalCredit), grid.DecimalComma)
	final, _ := parseAmount(grid.Cell(row, colGlobalBalance), grid.DecimalComma)
	return model.GlobalTotal{Debit: debit, Credit: credit, FinalBalance: final}
}

// parseAmount reads a monetary cell, tolerating currency symbols and
// thousands separators. Under decimalComma the locale is inverted:
// "1.234,56" means 1234.56, so dot groups and comma is the point.
func parseAmount(s string, decimalComma bool) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	// Accounting-style negatives: (123.45)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}
