package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

var cols = models.Columns{FamilyName: "Nom", GivenName: "Prénom", Email: "Email", Phone: "Tel"}

type phones map[string]bool

func (p phones) Contains(n string) bool { return p[n] }

func contact(family, given, email, phone string) models.Record {
	return models.Record{"Nom": family, "Prénom": given, "Email": email, "Tel": phone}
}

func TestEvaluate_EmailAndPhone(t *testing.T) {
	a := contact("Martin", "Jean", "jean.martin@mail.com", "0601020304")
	b := contact("Martin", "Jean", "jeanmartin+work@mail.com", "0601020304")

	v := New(cols).Evaluate(a, b, nil)

	assert.True(t, v.IsDuplicate)
	assert.True(t, v.IsEmailMatch)
	assert.Equal(t, 1.0, v.EmailScore)
	assert.True(t, v.IsPhoneMatch)
	assert.True(t, v.IsNameMatch)
	assert.Equal(t, "email identical after normalization + identical phone + similar name (90%/90%)", v.Reason)
}

func TestEvaluate_NameNeedsBothFields(t *testing.T) {
	m := New(cols)

	// Family name identical, given name unrelated
	v := m.Evaluate(contact("Martin", "Jean", "", ""), contact("Martin", "Paul", "", ""), nil)
	assert.Equal(t, 0.9, v.NameScore)
	assert.Less(t, v.GivenNameScore, NameThreshold)
	assert.False(t, v.IsNameMatch)
	assert.False(t, v.IsDuplicate)

	v = m.Evaluate(contact("Martin", "Jean", "", ""), contact("MARTIN", "jean", "", ""), nil)
	assert.True(t, v.IsNameMatch)
	assert.True(t, v.IsDuplicate)
	assert.Equal(t, "similar name (90%/90%)", v.Reason)
}

func TestEvaluate_SimilarEmailThreshold(t *testing.T) {
	m := New(cols)

	v := m.Evaluate(contact("", "", "jean@mail.com", ""), contact("", "", "paul@mail.com", ""), nil)
	assert.Greater(t, v.EmailScore, 0.0)
	assert.False(t, v.IsEmailMatch)

	v = m.Evaluate(contact("", "", "christophe.durandal@example.com", ""), contact("", "", "christophedurandel@example.com", ""), nil)
	assert.Greater(t, v.EmailScore, EmailThreshold)
	assert.Less(t, v.EmailScore, 1.0)
	assert.True(t, v.IsEmailMatch)
	assert.Contains(t, v.Reason, "similar email (")
}

func TestEvaluate_GenericPhoneNeverMatches(t *testing.T) {
	v := New(cols).Evaluate(contact("A", "B", "", "0600000000"), contact("C", "D", "", "0600000000"), nil)

	assert.False(t, v.IsPhoneMatch)
	assert.False(t, v.IsDuplicate)
	assert.True(t, v.GenericA)
	assert.True(t, v.GenericB)
	assert.Equal(t, "0600000000", v.PhoneA)
}

func TestEvaluate_IgnoredPhoneNeverMatches(t *testing.T) {
	ignored := phones{"0612345678": true}
	v := New(cols).Evaluate(contact("A", "B", "", "06 12 34 56 78"), contact("C", "D", "", "+33612345678"), ignored)

	assert.False(t, v.IsPhoneMatch)
	assert.False(t, v.IsDuplicate)
}

func TestEvaluate_MissingColumns(t *testing.T) {
	m := New(models.Columns{Email: "Email"})
	v := m.Evaluate(models.Record{}, models.Record{"Email": "x@y.z"}, nil)

	assert.False(t, v.IsDuplicate)
	assert.Zero(t, v.EmailScore)
	assert.Zero(t, v.NameScore)
	assert.Empty(t, v.Reason)
}

func TestPhonesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "same number", a: "0612345678", b: "06 12 34 56 78", want: true},
		{name: "country code", a: "+33 6 12 34 56 78", b: "0612345678", want: true},
		{name: "different", a: "0612345678", b: "0612345679", want: false},
		{name: "empty side", a: "", b: "0612345678", want: false},
		{name: "too short", a: "1234567", b: "1234567", want: false},
		{name: "last eight digits", a: "+1 555 12345678", b: "0012345678", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhonesEqual(tt.a, tt.b, nil))
			assert.Equal(t, PhonesEqual(tt.a, tt.b, nil), PhonesEqual(tt.b, tt.a, nil), "must be symmetric")
		})
	}

	ignored := phones{"0612345678": true}
	assert.False(t, PhonesEqual("0612345678", "0612345678", ignored))
	assert.False(t, PhonesEqual("0612345678", "+33612345678", ignored))
}
