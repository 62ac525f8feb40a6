package member

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// Editable field names, as used by edit drafts and the JSON API.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldRole  = "role"
)

// Domain errors
var (
	ErrFieldsRequired = errors.New("All fields are required.")
	ErrNotFound       = errors.New("member not found")
)

// Member is one record of the admin table.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Fields holds the mutable part of a Member.
type Fields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Fields returns the current mutable values of the member.
// INVARIANT: Member is not mutated
func (m Member) Fields() Fields {
	return Fields{Name: m.Name, Email: m.Email, Role: m.Role}
}

// WithFields returns a copy of the member carrying the given field values.
// POST: ID is preserved
func (m Member) WithFields(f Fields) Member {
	m.Name = f.Name
	m.Email = f.Email
	m.Role = f.Role
	return m
}

// Validate checks that every field is present.
// PRE: none
// POST: Returns ErrFieldsRequired if any field is blank after trimming whitespace
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" ||
		strings.TrimSpace(f.Email) == "" ||
		strings.TrimSpace(f.Role) == "" {
		return ErrFieldsRequired
	}
	return nil
}

// Matches reports whether name, email or role contains query, ignoring case.
// PRE: none
// POST: Returns true for an empty query
// INVARIANT: Member is not mutated
func (m Member) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := fold(query)
	return strings.Contains(fold(m.Name), q) ||
		strings.Contains(fold(m.Email), q) ||
		strings.Contains(fold(m.Role), q)
}

// folder is stateless and safe for concurrent use.
var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}
