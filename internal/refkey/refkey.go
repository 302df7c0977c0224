// Package refkey canonicalizes free-text invoice references into stable
// join keys. The export records the same document under many spellings
// ("F-100", "Factura 100", "100.0"); aggregation only works once all of
// them collapse to one key.
package refkey

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Label prefixes the export's capture screens prepend to references.
// Longest first so FACTURA wins over F.
var labelPrefixes = []string{
	"FACTURA",
	"REFERENCIA",
	"DEPOSITO",
	"RECIBO",
	"FOLIO",
	"ABONO",
	"PAGO",
	"NOTA",
	"NC",
}

var trailingDecimal = regexp.MustCompile(`\.0+$`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize maps a raw reference cell to its canonical join key, or ""
// when the cell is empty or carries no usable identifier. Normalize is
// idempotent: a canonical key maps to itself.
func Normalize(raw string) string {
	s := normalizeOnce(raw)
	// Stripping a label can expose another ("NOTA NC 455"); iterate until
	// the key is a fixed point so canonical values map to themselves.
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeOnce(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	s = strings.ToUpper(s)
	s = trailingDecimal.ReplaceAllString(s, "")

	s = stripLabel(s)
	s = stripBareF(s)

	s = strings.Join(strings.Fields(s), " ")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '/':
			return -1
		}
		return r
	}, s)

	return s
}

// stripLabel removes one leading label prefix. The prefix only counts as a
// label when a separator follows it or the remainder starts with a digit;
// "NCTA123" stays whole while "NC 123" and "FACTURA123" lose their label.
func stripLabel(s string) string {
	for _, p := range labelPrefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		rest := s[len(p):]
		trimmed := strings.TrimLeft(rest, ":- \t")
		if len(trimmed) < len(rest) || trimmed == "" || unicode.IsDigit(rune(trimmed[0])) {
			return trimmed
		}
	}
	return s
}

// stripBareF removes a lone "F" folio marker ("F-100", "F100").
func stripBareF(s string) string {
	if !strings.HasPrefix(s, "F") {
		return s
	}
	rest := s[1:]
	trimmed := strings.TrimLeft(rest, ":- \t")
	if len(trimmed) < len(rest) || trimmed == "" || unicode.IsDigit(rune(trimmed[0])) {
		return trimmed
	}
	return s
}
