package edit

import (
	"errors"

	"memberadmin/internal/domain/member"
)

// Domain errors
var (
	ErrAnotherRowEditing = errors.New("another row is being edited")
	ErrNotEditing        = errors.New("no row is being edited")
	ErrUnknownField      = errors.New("unknown field")
)

// Session is the inline-edit state of the member table.
// The zero value is idle. When active it holds exactly one target id and its drafts.
type Session struct {
	targetID string
	drafts   member.Fields
	active   bool
}

// Active returns the id of the record being edited.
// POST: ok is false when idle
// INVARIANT: Session is not mutated
func (s *Session) Active() (id string, ok bool) {
	return s.targetID, s.active
}

// IsEditing reports whether the given record is the active target.
func (s *Session) IsEditing(id string) bool {
	return s.active && s.targetID == id
}

// Drafts returns the in-progress field values. Zero when idle.
func (s *Session) Drafts() member.Fields {
	return s.drafts
}

// Begin starts editing m, capturing its current fields as drafts.
// PRE: none
// POST: m is the active target; beginning the active target again keeps its drafts
// INVARIANT: at most one record is edited at a time
func (s *Session) Begin(m member.Member) error {
	if s.active {
		if s.targetID == m.ID {
			return nil
		}
		return ErrAnotherRowEditing
	}
	s.targetID = m.ID
	s.drafts = m.Fields()
	s.active = true
	return nil
}

// SetField replaces one draft value. No validation happens here.
// PRE: session is active; field is one of name, email, role
// POST: the draft for field holds value
func (s *Session) SetField(field, value string) error {
	if !s.active {
		return ErrNotEditing
	}
	switch field {
	case member.FieldName:
		s.drafts.Name = value
	case member.FieldEmail:
		s.drafts.Email = value
	case member.FieldRole:
		s.drafts.Role = value
	default:
		return ErrUnknownField
	}
	return nil
}

// Prepare validates the drafts and returns the target id and values to apply.
// PRE: session is active
// POST: session is unchanged whether or not validation passes
func (s *Session) Prepare() (string, member.Fields, error) {
	if !s.active {
		return "", member.Fields{}, ErrNotEditing
	}
	if err := s.drafts.Validate(); err != nil {
		return "", member.Fields{}, err
	}
	return s.targetID, s.drafts, nil
}

// Clear ends the session after its drafts were applied.
// POST: session is idle
func (s *Session) Clear() {
	*s = Session{}
}

// Cancel abandons the session and reports which record was being edited.
// POST: session is idle; ok is false when it already was
func (s *Session) Cancel() (id string, ok bool) {
	id, ok = s.targetID, s.active
	*s = Session{}
	return id, ok
}
