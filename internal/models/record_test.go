package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestColumnAliases_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   Columns
	}{
		{
			name:   "french export",
			header: []string{"Nom de famille", "Prénom", "Email", "Téléphone", "Société"},
			want:   Columns{FamilyName: "Nom de famille", GivenName: "Prénom", Email: "Email", Phone: "Téléphone"},
		},
		{
			name:   "short french headers without accents",
			header: []string{"Nom", "Prenom", "Email", "Tel"},
			want:   Columns{FamilyName: "Nom", GivenName: "Prenom", Email: "Email", Phone: "Tel"},
		},
		{
			name:   "english headers with odd casing",
			header: []string{"LAST NAME", "first name", "E-Mail", "Mobile"},
			want:   Columns{FamilyName: "LAST NAME", GivenName: "first name", Email: "E-Mail", Phone: "Mobile"},
		},
		{
			name:   "most specific alias wins",
			header: []string{"Nom", "Nom de famille", "Email"},
			want:   Columns{FamilyName: "Nom de famille", Email: "Email"},
		},
		{
			name:   "nothing recognised",
			header: []string{"a", "b"},
			want:   Columns{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultColumnAliases().Resolve(tt.header))
		})
	}
}

func TestColumns_Checks(t *testing.T) {
	assert.False(t, Columns{FamilyName: "Nom"}.HasContactColumn())
	assert.True(t, Columns{Phone: "Tel"}.HasContactColumn())
	assert.True(t, Columns{Email: "Email"}.HasContactColumn())

	assert.Equal(t, []Role{RoleFamilyName, RoleGivenName}, Columns{Email: "Email"}.MissingNames())
	assert.Empty(t, Columns{FamilyName: "Nom", GivenName: "Prénom"}.MissingNames())
}

func TestRecord_Get(t *testing.T) {
	r := Record{"Email": "a@b.c"}
	assert.Equal(t, "a@b.c", r.Get("Email"))
	assert.Equal(t, "", r.Get(""))
	assert.Equal(t, "", r.Get("Phone"))

	var nilRecord Record
	assert.Equal(t, "", nilRecord.Get("Email"))

	clone := r.Clone()
	clone["Email"] = "x@y.z"
	assert.Equal(t, "a@b.c", r["Email"])
}

func TestRecordIDString(t *testing.T) {
	id, err := RecordIDString(surrealmodels.RecordID{Table: "removal", ID: "abc123"})
	assert.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = RecordIDString(surrealmodels.RecordID{Table: "removal", ID: 42})
	assert.Error(t, err)
}
