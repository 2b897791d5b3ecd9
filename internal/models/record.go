package models

import "github.com/raphaelgruber/contact-dedupe/internal/normalize"

// Record is one contact row keyed by header name.
// Fields outside the resolved Columns are opaque and passed through unchanged.
type Record map[string]string

// Get returns the value of column, or "" when the column is unset or unresolved.
func (r Record) Get(column string) string {
	if column == "" || r == nil {
		return ""
	}
	return r[column]
}

// Clone returns a shallow copy safe to hand to persistence collaborators.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is a loaded contact file: its header in original order, the rows in
// load order and the columns resolved for matching.
//
// Records are the keyed view the matcher reads. Rows keep the cells exactly as
// read, including cells past the header and values under a repeated header
// name, and are what gets written back.
type Dataset struct {
	Source  string
	Header  []string
	Records []Record
	Rows    [][]string
	Columns Columns
}

// Row returns the cells of record i. Without raw rows the record is projected
// through Header.
func (d *Dataset) Row(i int) []string {
	if i < len(d.Rows) {
		return d.Rows[i]
	}
	row := make([]string, len(d.Header))
	for c, h := range d.Header {
		row[c] = d.Records[i][h]
	}
	return row
}

// Width is the cell count of the widest of the header and every row.
func (d *Dataset) Width() int {
	w := len(d.Header)
	for _, row := range d.Rows {
		w = max(w, len(row))
	}
	return w
}

// WideHeader returns Header padded with blank names up to Width.
func (d *Dataset) WideHeader() []string {
	return PadRow(d.Header, d.Width())
}

// PadRow returns row extended with empty cells to at least width cells.
func PadRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// Role names a field the matcher reads.
type Role string

const (
	RoleFamilyName Role = "family_name"
	RoleGivenName  Role = "given_name"
	RoleEmail      Role = "email"
	RolePhone      Role = "phone"
)

// Columns holds the header names resolved for each matching role.
// An empty name means the role is absent from the file.
type Columns struct {
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// HasContactColumn reports whether at least one of email or phone was resolved.
func (c Columns) HasContactColumn() bool {
	return c.Email != "" || c.Phone != ""
}

// MissingNames lists name roles that could not be resolved.
func (c Columns) MissingNames() []Role {
	var missing []Role
	if c.FamilyName == "" {
		missing = append(missing, RoleFamilyName)
	}
	if c.GivenName == "" {
		missing = append(missing, RoleGivenName)
	}
	return missing
}

// ColumnAliases lists accepted header spellings per role.
// Matching is accent, case and whitespace insensitive (see normalize.FoldHeader).
type ColumnAliases struct {
	FamilyName []string `yaml:"family_name" toml:"family_name"`
	GivenName  []string `yaml:"given_name" toml:"given_name"`
	Email      []string `yaml:"email" toml:"email"`
	Phone      []string `yaml:"phone" toml:"phone"`
}

// DefaultColumnAliases covers the French export format the tool was first used
// with plus common English headers.
func DefaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		FamilyName: []string{"Nom de famille", "Nom", "Last name", "Family name", "Surname", "Lastname"},
		GivenName:  []string{"Prénom", "First name", "Given name", "Firstname"},
		Email:      []string{"Email", "E-mail", "Mail", "Courriel", "Email address", "Adresse email"},
		Phone:      []string{"Téléphone", "Tel", "Tél", "Phone", "Phone number", "Mobile", "Portable"},
	}
}

// Resolve picks, for every role, the first alias present in header.
// Aliases are tried in order so the most specific spelling wins.
func (a ColumnAliases) Resolve(header []string) Columns {
	folded := make(map[string]string, len(header))
	for _, h := range header {
		key := normalize.FoldHeader(h)
		if _, seen := folded[key]; !seen {
			folded[key] = h
		}
	}

	pick := func(aliases []string) string {
		for _, alias := range aliases {
			if h, ok := folded[normalize.FoldHeader(alias)]; ok {
				return h
			}
		}
		return ""
	}

	return Columns{
		FamilyName: pick(a.FamilyName),
		GivenName:  pick(a.GivenName),
		Email:      pick(a.Email),
		Phone:      pick(a.Phone),
	}
}
