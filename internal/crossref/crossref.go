// Package crossref finds invoice references whose debit and credit sides
// were recorded against different accounts, the signature of a payment
// applied to the wrong customer account.
package crossref

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/refkey"
)

type partition struct {
	account model.AccountContext
	debit   decimal.Decimal
	credit  decimal.Decimal
}

type refAcc struct {
	parts map[string]*partition
}

// Detect returns one entry per (reference, account) pair for every
// reference that spans more than one account with a net-positive debit in
// some account and a net-positive credit in some account. A reference
// split across accounts purely via debits does not qualify.
func Detect(movs []model.Movement, r refkey.Resolver) []model.CrossAccountEntry {
	refs := make(map[string]*refAcc)

	for _, m := range movs {
		if !m.Valid() {
			continue
		}
		key := r.Resolve(m.Reference)
		ra, ok := refs[key]
		if !ok {
			ra = &refAcc{parts: make(map[string]*partition)}
			refs[key] = ra
		}
		p, ok := ra.parts[m.Account.Code]
		if !ok {
			p = &partition{account: m.Account}
			ra.parts[m.Account.Code] = p
		}
		p.debit = p.debit.Add(m.Debit)
		p.credit = p.credit.Add(m.Credit)
	}

	var out []model.CrossAccountEntry
	for key, ra := range refs {
		if len(ra.parts) < 2 {
			continue
		}
		var refDebit, refCredit decimal.Decimal
		hasDebit, hasCredit := false, false
		for _, p := range ra.parts {
			refDebit = refDebit.Add(p.debit)
			refCredit = refCredit.Add(p.credit)
			if p.debit.IsPositive() {
				hasDebit = true
			}
			if p.credit.IsPositive() {
				hasCredit = true
			}
		}
		if !hasDebit || !hasCredit {
			continue
		}

		refNet := refDebit.Sub(refCredit)
		for _, p := range ra.parts {
			out = append(out, model.CrossAccountEntry{
				Reference:    key,
				Account:      p.account,
				Debit:        p.debit,
				Credit:       p.credit,
				Net:          p.debit.Sub(p.credit),
				RefDebit:     refDebit,
				RefCredit:    refCredit,
				RefNet:       refNet,
				AccountCount: len(ra.parts),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Reference != out[j].Reference {
			return out[i].Reference < out[j].Reference
		}
		return out[i].Account.Code < out[j].Account.Code
	})
	return out
}
