package invoice

import (
	"time"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// Filter restricts the movement subset an aggregation runs over. Zero
// bounds are open-ended; an empty account list means all accounts.
type Filter struct {
	From     time.Time
	To       time.Time
	Accounts []string // account codes
}

// Match reports whether a movement falls inside the filter. Movements
// with no parseable date pass every date bound: a date filter can only
// exclude what it can place in time.
func (f Filter) Match(m model.Movement) bool {
	if len(f.Accounts) > 0 {
		found := false
		for _, code := range f.Accounts {
			if m.Account.Code == code {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if m.Date.IsZero() {
		return true
	}
	if !f.From.IsZero() && m.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && m.Date.After(f.To) {
		return false
	}
	return true
}

// Apply returns the movements matching the filter, in input order.
func (f Filter) Apply(movs []model.Movement) []model.Movement {
	if f.From.IsZero() && f.To.IsZero() && len(f.Accounts) == 0 {
		return movs
	}
	var out []model.Movement
	for _, m := range movs {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}
