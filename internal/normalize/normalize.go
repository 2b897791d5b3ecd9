// Package normalize turns raw contact field values into comparable canonical forms.
//
// All functions are pure and total: missing or malformed input degrades to an
// empty string or a zero score, never an error.
package normalize

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Score returned by CompareNames when one name contains the other.
const SubstringNameScore = 0.9

// MinPhoneDigits is the shortest normalized phone considered identifying.
const MinPhoneDigits = 8

// genericRunLength is the number of identical consecutive digits that marks a
// placeholder or shared phone number.
const genericRunLength = 5

var dice = metrics.NewSorensenDice()

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Email canonicalizes an email address.
//
// Addresses without exactly one '@' are only lower-cased and trimmed. Otherwise
// the local part is lower-cased, stripped of dots and truncated at the first '+'
// (provider plus-addressing), and the domain is lower-cased.
func Email(raw string) string {
	if raw == "" {
		return ""
	}

	parts := strings.Split(raw, "@")
	if len(parts) != 2 {
		return strings.TrimSpace(strings.ToLower(raw))
	}

	local := strings.ToLower(parts[0])
	local = strings.ReplaceAll(local, ".", "")
	if plus := strings.IndexByte(local, '+'); plus >= 0 {
		local = local[:plus]
	}
	domain := strings.ToLower(parts[1])

	return strings.TrimSpace(local + "@" + domain)
}

// Phone reduces a phone number to a bare digit string.
// A leading "33" country code becomes "0" and any run of leading zeros is
// collapsed to a single one.
func Phone(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "33") {
		digits = "0" + digits[2:]
	}
	if strings.HasPrefix(digits, "0") {
		digits = "0" + strings.TrimLeft(digits, "0")
	}
	return digits
}

// IsGenericPhone reports whether a phone looks like a placeholder or shared line:
// at least MinPhoneDigits digits with a run of five identical digits.
// Accepts raw or already-normalized input.
func IsGenericPhone(phone string) bool {
	normalized := Phone(phone)
	if len(normalized) < MinPhoneDigits {
		return false
	}

	run := 1
	for i := 1; i < len(normalized); i++ {
		if normalized[i] == normalized[i-1] {
			run++
			if run >= genericRunLength {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// CompareNames scores two name values in [0,1].
// Either side empty scores 0; one name containing the other scores
// SubstringNameScore; otherwise the bigram similarity is returned.
func CompareNames(a, b string) float64 {
	na := name(a)
	nb := name(b)
	if na == "" || nb == "" {
		return 0
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return SubstringNameScore
	}
	return Similarity(na, nb)
}

// Similarity is the Sørensen–Dice bigram coefficient of a and b, computed on
// the strings with whitespace removed. It is symmetric, bounded to [0,1] and
// returns 1 only when the compared strings are identical.
func Similarity(a, b string) float64 {
	a = stripSpace(a)
	b = stripSpace(b)
	if a == b {
		return 1
	}
	if len([]rune(a)) < 2 || len([]rune(b)) < 2 {
		return 0
	}

	score := strutil.Similarity(a, b, dice)
	switch {
	case score < 0:
		return 0
	case score >= 1:
		// Distinct strings can share an identical bigram multiset.
		return 0.99
	}
	return score
}

// FoldHeader folds a column header for alias lookup: byte order mark removed,
// accents stripped, lower-cased and whitespace collapsed.
// "Téléphone" and " telephone" fold to the same key.
func FoldHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	folded, _, err := transform.String(stripAccents, strings.ToLower(h))
	if err != nil {
		folded = strings.ToLower(h)
	}
	return strings.Join(strings.Fields(folded), " ")
}

func name(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
