package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "dots removed", raw: "jean.martin@mail.com", want: "jeanmartin@mail.com"},
		{name: "plus addressing truncated", raw: "jeanmartin+work@mail.com", want: "jeanmartin@mail.com"},
		{name: "case folded", raw: "Jean.Martin@Mail.COM", want: "jeanmartin@mail.com"},
		{name: "plus before dots", raw: "a.b+c.d@x.org", want: "ab@x.org"},
		{name: "surrounding whitespace", raw: "  Jean@Mail.com  ", want: "jean@mail.com"},
		{name: "no at sign", raw: "  Not An Email ", want: "not an email"},
		{name: "two at signs kept verbatim", raw: "a.b@c@D.com", want: "a.b@c@d.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.raw))
		})
	}
}

func TestEmail_Idempotent(t *testing.T) {
	inputs := []string{
		"jean.martin+news@Mail.com",
		" Foo.Bar@Example.ORG ",
		"plain",
		"a@b@c",
		"",
	}
	for _, in := range inputs {
		once := Email(in)
		assert.Equal(t, once, Email(once), "Email(%q) is not a fixed point", in)
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "06 12 34 56 78", want: "0612345678"},
		{raw: "+33 6 12-34-56-78", want: "0612345678"},
		{raw: "0033612345678", want: "033612345678"},
		{raw: "000612345678", want: "0612345678"},
		{raw: "(555) 010-9999", want: "5550109999"},
		{raw: "n/a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.raw))
		})
	}

	assert.Equal(t, Phone("0612345678"), Phone("+33 6 12-34-56-78"))
}

func TestIsGenericPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{phone: "0611111111", want: true},
		{phone: "0600000000", want: true},
		{phone: "+33 6 00 00 00 00", want: true},
		{phone: "0612345678", want: false},
		{phone: "1234567", want: false},
		{phone: "1111111", want: false},
		{phone: "0612222278", want: true},
		{phone: "0612222378", want: false},
		{phone: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGenericPhone(tt.phone))
		})
	}
}

func TestCompareNames(t *testing.T) {
	assert.Equal(t, 0.0, CompareNames("", "Martin"))
	assert.Equal(t, 0.0, CompareNames("Martin", "   "))
	assert.Equal(t, SubstringNameScore, CompareNames("Martin", "  MARTIN "))
	assert.Equal(t, SubstringNameScore, CompareNames("Jean", "Jean-Pierre"))
	assert.Equal(t, 0.0, CompareNames("abc", "xyz"))

	score := CompareNames("Martin", "Martine")
	assert.Equal(t, SubstringNameScore, score)

	score = CompareNames("Dupont", "Dupond")
	assert.Greater(t, score, 0.5)
	assert.Less(t, score, 0.9)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("night", "night"))
	assert.Equal(t, 0.0, Similarity("a", "b"))
	assert.Equal(t, 0.0, Similarity("abcd", "wxyz"))

	pairs := [][2]string{
		{"jeanmartin@mail.com", "jmartin@mail.com"},
		{"night", "nacht"},
		{"dupont", "dupond"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		assert.InDelta(t, ab, ba, 1e-9, "similarity must be symmetric for %v", p)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.Less(t, ab, 1.0)
	}
}

func TestFoldHeader(t *testing.T) {
	assert.Equal(t, "telephone", FoldHeader("Téléphone"))
	assert.Equal(t, "prenom", FoldHeader(" PRÉNOM "))
	assert.Equal(t, "nom de famille", FoldHeader("Nom  de\tfamille"))
	assert.Equal(t, "email", FoldHeader("\uFEFFEmail"))
}
