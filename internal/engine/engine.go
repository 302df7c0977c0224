// Package engine ties the pipeline together: one Session per uploaded
// export, holding the parsed movement set immutably, with filtered
// results recomputed (and memoized) on demand.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/crossref"
	"github.com/conciliar-dev/conciliar/internal/invoice"
	"github.com/conciliar-dev/conciliar/internal/ledger"
	"github.com/conciliar-dev/conciliar/internal/loader"
	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/recon"
	"github.com/conciliar-dev/conciliar/internal/refkey"
)

// Options configure a session.
type Options struct {
	Parse ledger.Options
	// Tolerance is a pointer so an explicit zero (exact matching) is
	// distinguishable from unset, which means recon.DefaultTolerance.
	Tolerance *decimal.Decimal
}

// Session is one fully-parsed export. All fields are immutable after
// NewSession; every recomputation is a pure function of them plus the
// filter, so results are memoized per filter.
type Session struct {
	sourceID  string
	movements []model.Movement
	totals    []model.AccountTotal
	global    *model.GlobalTotal
	audit     ledger.Audit
	resolver  refkey.Resolver
	tolerance decimal.Decimal

	cache map[string]*Results
}

// Results is everything the presentation layer consumes for one filter.
type Results struct {
	Filter          invoice.Filter
	Movements       []model.Movement
	GlobalInvoices  []model.Invoice
	AccountInvoices []model.AccountInvoice
	CrossAccount    []model.CrossAccountEntry
	Reconciliation  []model.ReconciliationRow
	Summary         model.GlobalSummary
}

// NewSession loads and parses an export. The only fatal error besides a
// strict-mode violation is the loader failing under every strategy.
func NewSession(data []byte, opts Options) (*Session, error) {
	grid, err := loader.Load(data)
	if err != nil {
		return nil, err
	}
	parsed, err := ledger.Parse(grid, opts.Parse)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}

	// Alias resolution is dataset-wide: the mapping is built once over
	// every distinct normalized reference and reused for every filter.
	keys := make([]string, 0, len(parsed.Movements))
	for _, m := range parsed.Movements {
		if m.Valid() {
			keys = append(keys, m.Reference)
		}
	}

	tolerance := recon.DefaultTolerance
	if opts.Tolerance != nil {
		tolerance = *opts.Tolerance
	}

	sum := sha256.Sum256(data)
	return &Session{
		sourceID:  hex.EncodeToString(sum[:]),
		movements: parsed.Movements,
		totals:    parsed.AccountTotals,
		global:    parsed.GlobalTotal,
		audit:     parsed.Audit,
		resolver:  refkey.BuildAliases(keys),
		tolerance: tolerance,
		cache:     make(map[string]*Results),
	}, nil
}

// Results recomputes aggregation and reconciliation over the filtered
// movement subset. Control totals are never filtered. Identical filters
// hit the memoization cache.
func (s *Session) Results(f invoice.Filter) *Results {
	key := filterKey(f)
	if r, ok := s.cache[key]; ok {
		return r
	}

	movs := f.Apply(s.movements)
	perAccount := invoice.PerAccount(movs, s.resolver)
	rows := recon.Reconcile(perAccount, s.totals, s.tolerance)

	r := &Results{
		Filter:          f,
		Movements:       movs,
		GlobalInvoices:  invoice.Global(movs, s.resolver),
		AccountInvoices: perAccount,
		CrossAccount:    crossref.Detect(movs, s.resolver),
		Reconciliation:  rows,
		Summary:         recon.Summarize(rows, s.global),
	}
	s.cache[key] = r
	return r
}

// SourceID identifies the loaded bytes (sha256).
func (s *Session) SourceID() string { return s.sourceID }

// Audit returns the parse-time observations.
func (s *Session) Audit() ledger.Audit { return s.audit }

// GlobalTotal returns the export's portfolio control row, nil when absent.
func (s *Session) GlobalTotal() *model.GlobalTotal { return s.global }

// AccountTotals returns the per-account control rows in file order.
func (s *Session) AccountTotals() []model.AccountTotal { return s.totals }

// Movements returns the full unfiltered movement set.
func (s *Session) Movements() []model.Movement { return s.movements }

// DateRange returns the earliest and latest parseable movement dates, or
// zero times when no movement carried a date.
func (s *Session) DateRange() (time.Time, time.Time) {
	var min, max time.Time
	for _, m := range s.movements {
		if m.Date.IsZero() {
			continue
		}
		if min.IsZero() || m.Date.Before(min) {
			min = m.Date
		}
		if max.IsZero() || m.Date.After(max) {
			max = m.Date
		}
	}
	return min, max
}

// Accounts returns the distinct account contexts seen on movements,
// sorted by code.
func (s *Session) Accounts() []model.AccountContext {
	set := make(map[string]model.AccountContext)
	for _, m := range s.movements {
		set[m.Account.Code] = m.Account
	}
	out := make([]model.AccountContext, 0, len(set))
	for _, a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func filterKey(f invoice.Filter) string {
	codes := append([]string(nil), f.Accounts...)
	sort.Strings(codes)
	return fmt.Sprintf("%s|%s|%s",
		f.From.Format(time.RFC3339),
		f.To.Format(time.RFC3339),
		strings.Join(codes, ","))
}
