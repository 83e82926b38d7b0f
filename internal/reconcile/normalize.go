package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks strips combining marks so "AÇÚCAR" compares as "ACUCAR".
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CanonicalDescription uppercases, folds accents, drops punctuation and
// collapses whitespace.
func CanonicalDescription(text string) string {
	folded, _, err := transform.String(foldMarks, strings.ToUpper(text))
	if err != nil {
		folded = strings.ToUpper(text)
	}
	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalAmount rounds to the cent and renders two fixed decimals.
func CanonicalAmount(amount decimal.Decimal) string {
	return amount.Round(2).StringFixed(2)
}

// ExactKey is the canonical description joined with the canonical amount.
func ExactKey(description string, amount decimal.Decimal) string {
	return CanonicalDescription(description) + "_" + CanonicalAmount(amount)
}

// PartialKey keeps only the first prefix runes of the canonical description.
func PartialKey(description string, amount decimal.Decimal, prefix int) string {
	desc := []rune(CanonicalDescription(description))
	if prefix >= 0 && len(desc) > prefix {
		desc = desc[:prefix]
	}
	return string(desc) + "_" + CanonicalAmount(amount)
}

var installmentSuffix = regexp.MustCompile(`(\s*\(?\d+\s*/?\s*\d+\)?\s*)$`)

// ExtractPattern removes a trailing installment or period counter such as
// "(1/3)" or "09/25" so the remainder can seed a pattern rule.
func ExtractPattern(text string) string {
	return strings.TrimSpace(installmentSuffix.ReplaceAllString(text, ""))
}
