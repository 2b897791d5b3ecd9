// Package match scores a pair of contact records for duplication.
package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
	"github.com/raphaelgruber/contact-dedupe/internal/normalize"
)

// Decision thresholds. Fixed by design; not configurable.
const (
	EmailThreshold = 0.9
	NameThreshold  = 0.85
)

// PhoneSet answers membership for normalized phone numbers the operator has
// declared non-discriminating.
type PhoneSet interface {
	Contains(normalized string) bool
}

type emptySet struct{}

func (emptySet) Contains(string) bool { return false }

// Verdict is the outcome of comparing two records.
type Verdict struct {
	IsDuplicate  bool
	IsEmailMatch bool
	IsPhoneMatch bool
	IsNameMatch  bool

	EmailScore     float64
	NameScore      float64
	GivenNameScore float64

	// Normalized phones and their generic flags, kept for the resolution step.
	PhoneA   string
	PhoneB   string
	GenericA bool
	GenericB bool

	// Reason is a human-readable summary of the signals that fired.
	Reason string
}

// HasGenericPhone reports whether either side carries a placeholder phone.
func (v Verdict) HasGenericPhone() bool {
	return v.GenericA || v.GenericB
}

// Matcher evaluates record pairs using the resolved columns of a dataset.
type Matcher struct {
	Columns models.Columns
}

// New returns a Matcher reading the given columns.
func New(cols models.Columns) *Matcher {
	return &Matcher{Columns: cols}
}

// Evaluate compares a and b. Missing fields score zero; it never fails.
// ignored may be nil.
func (m *Matcher) Evaluate(a, b models.Record, ignored PhoneSet) Verdict {
	if ignored == nil {
		ignored = emptySet{}
	}
	cols := m.Columns
	var v Verdict

	// Email: exact after normalization, else bigram similarity
	emailA := normalize.Email(a.Get(cols.Email))
	emailB := normalize.Email(b.Get(cols.Email))
	if emailA != "" && emailB != "" {
		if emailA == emailB {
			v.EmailScore = 1
		} else {
			v.EmailScore = normalize.Similarity(emailA, emailB)
		}
	}
	v.IsEmailMatch = v.EmailScore > EmailThreshold

	// Phone: generic numbers never count as evidence
	rawPhoneA := a.Get(cols.Phone)
	rawPhoneB := b.Get(cols.Phone)
	v.PhoneA = normalize.Phone(rawPhoneA)
	v.PhoneB = normalize.Phone(rawPhoneB)
	v.GenericA = normalize.IsGenericPhone(rawPhoneA)
	v.GenericB = normalize.IsGenericPhone(rawPhoneB)
	v.IsPhoneMatch = !v.HasGenericPhone() && PhonesEqual(rawPhoneA, rawPhoneB, ignored)

	// Names: both family and given name must agree
	v.NameScore = normalize.CompareNames(a.Get(cols.FamilyName), b.Get(cols.FamilyName))
	v.GivenNameScore = normalize.CompareNames(a.Get(cols.GivenName), b.Get(cols.GivenName))
	v.IsNameMatch = v.NameScore > NameThreshold && v.GivenNameScore > NameThreshold

	v.IsDuplicate = v.IsEmailMatch || v.IsPhoneMatch || v.IsNameMatch
	v.Reason = reason(v)
	return v
}

// PhonesEqual reports whether two raw phone values identify the same line.
// Empty, ignored or too-short numbers never match; otherwise the last
// MinPhoneDigits digits are compared so country-code variants agree.
func PhonesEqual(rawA, rawB string, ignored PhoneSet) bool {
	if rawA == "" || rawB == "" {
		return false
	}
	if ignored == nil {
		ignored = emptySet{}
	}

	normA := normalize.Phone(rawA)
	normB := normalize.Phone(rawB)
	if ignored.Contains(normA) || ignored.Contains(normB) {
		return false
	}
	if len(normA) < normalize.MinPhoneDigits || len(normB) < normalize.MinPhoneDigits {
		return false
	}

	n := normalize.MinPhoneDigits
	return normA[len(normA)-n:] == normB[len(normB)-n:]
}

func reason(v Verdict) string {
	var parts []string
	if v.IsEmailMatch {
		if v.EmailScore == 1 {
			parts = append(parts, "email identical after normalization")
		} else {
			parts = append(parts, fmt.Sprintf("similar email (%d%%)", percent(v.EmailScore)))
		}
	}
	if v.IsPhoneMatch {
		parts = append(parts, "identical phone")
	}
	if v.IsNameMatch {
		parts = append(parts, fmt.Sprintf("similar name (%d%%/%d%%)", percent(v.NameScore), percent(v.GivenNameScore)))
	}
	return strings.Join(parts, " + ")
}

func percent(score float64) int {
	return int(math.Round(score * 100))
}
