package refkey

import "sort"

// Note/credit prefixes tried when resolving a bare numeric reference to a
// prefixed document filed elsewhere in the same export. Order matters:
// the first existing candidate wins.
var aliasPrefixes = []string{"NCTA", "ANCT", "PNCT", "NC"}

// Resolver maps bare-numeric keys onto the prefixed counterpart they were
// paid against. Built once per dataset and applied as a lookup; the zero
// Resolver resolves every key to itself.
type Resolver struct {
	aliases map[string]string
}

// BuildAliases scans the distinct normalized keys of a dataset and pairs
// every purely numeric key with the first prefixed candidate that exists
// in the set. Resolution is one-directional: numeric to prefixed, never
// the reverse.
func BuildAliases(keys []string) Resolver {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = true
		}
	}

	// Deterministic scan order regardless of input order.
	distinct := make([]string, 0, len(set))
	for k := range set {
		distinct = append(distinct, k)
	}
	sort.Strings(distinct)

	aliases := make(map[string]string)
	for _, k := range distinct {
		if !isNumeric(k) {
			continue
		}
		for _, p := range aliasPrefixes {
			if set[p+k] {
				aliases[k] = p + k
				break
			}
		}
	}
	return Resolver{aliases: aliases}
}

// Resolve returns the final join key for a normalized reference.
func (r Resolver) Resolve(key string) string {
	if target, ok := r.aliases[key]; ok {
		return target
	}
	return key
}

// Len returns how many keys were aliased.
func (r Resolver) Len() int {
	return len(r.aliases)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
