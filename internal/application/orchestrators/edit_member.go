package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"memberadmin/internal/adapters/metrics"
	"memberadmin/internal/application/workspace"
	domain "memberadmin/internal/domain/member"
)

// ErrMemberIDRequired is returned when an operation needs a member id and got none.
var ErrMemberIDRequired = errors.New("member ID is required")

// BeginEditInput carries input for the begin-edit orchestrator.
type BeginEditInput struct {
	MemberID string
}

// BeginEditDeps holds dependencies for BeginEdit.
type BeginEditDeps struct {
	Workspace *workspace.Workspace
}

// ExecuteBeginEdit puts a row into edit mode.
// PRE: caller holds the workspace lock; MemberID must exist in the store
// POST: The session targets MemberID with drafts equal to the stored fields.
//
//	Re-beginning the active row keeps its drafts; any other row fails with edit.ErrAnotherRowEditing.
func ExecuteBeginEdit(ctx context.Context, input BeginEditInput, deps BeginEditDeps) error {
	if input.MemberID == "" {
		return ErrMemberIDRequired
	}
	ws := deps.Workspace

	m, err := ws.Members.GetByID(ctx, input.MemberID)
	if err != nil {
		return err
	}
	wasEditing := ws.Edit.IsEditing(m.ID)
	if err := ws.Edit.Begin(m); err != nil {
		return err
	}
	if !wasEditing {
		ws.Error = ""
		slog.InfoContext(ctx, "member_event", "event", "edit_started", "workspace_id", ws.ID, "member_id", m.ID)
	}
	return nil
}

// SetDraftFieldInput carries input for the set-draft orchestrator.
type SetDraftFieldInput struct {
	Field string
	Value string
}

// SetDraftFieldDeps holds dependencies for SetDraftField.
type SetDraftFieldDeps struct {
	Workspace *workspace.Workspace
}

// ExecuteSetDraftField updates one draft value of the active edit.
// PRE: caller holds the workspace lock
// POST: The draft is replaced without validation; the store is untouched
func ExecuteSetDraftField(_ context.Context, input SetDraftFieldInput, deps SetDraftFieldDeps) error {
	return deps.Workspace.Edit.SetField(input.Field, input.Value)
}

// CommitEditInput carries input for the commit orchestrator.
type CommitEditInput struct {
	// Drafts, when set, replace all three drafts before validating.
	Drafts *domain.Fields
}

// CommitEditDeps holds dependencies for CommitEdit.
type CommitEditDeps struct {
	Workspace *workspace.Workspace
	Metrics   MutationRecorder // optional
}

// ExecuteCommitEdit validates the drafts and writes them to the store.
// PRE: caller holds the workspace lock; an edit session is active
// POST: On success the record is updated in place, the session is idle and the message is cleared.
//
//	On validation failure the message "All fields are required." is stored, the session stays
//	active and the store is untouched.
//
// INVARIANT: Record order and id never change
func ExecuteCommitEdit(ctx context.Context, input CommitEditInput, deps CommitEditDeps) error {
	ws := deps.Workspace

	if input.Drafts != nil {
		for field, value := range map[string]string{
			domain.FieldName:  input.Drafts.Name,
			domain.FieldEmail: input.Drafts.Email,
			domain.FieldRole:  input.Drafts.Role,
		} {
			if err := ws.Edit.SetField(field, value); err != nil {
				return err
			}
		}
	}

	id, fields, err := ws.Edit.Prepare()
	if err != nil {
		if errors.Is(err, domain.ErrFieldsRequired) {
			ws.Error = err.Error()
		}
		return err
	}

	if err := ws.Members.Update(ctx, id, fields); err != nil {
		return err
	}
	ws.Edit.Clear()
	ws.Error = ""
	if err := ws.ClampPage(ctx); err != nil {
		return err
	}
	if deps.Metrics != nil {
		deps.Metrics.RecordMutation(metrics.ActionUpdate, 0)
	}

	slog.InfoContext(ctx, "member_event", "event", "member_updated", "workspace_id", ws.ID, "member_id", id)
	return nil
}

// CancelEditInput carries input for the cancel orchestrator.
type CancelEditInput struct{}

// CancelEditDeps holds dependencies for CancelEdit.
type CancelEditDeps struct {
	Workspace *workspace.Workspace
}

// ExecuteCancelEdit discards the active edit.
// PRE: caller holds the workspace lock
// POST: Session is idle, drafts and message are discarded; idle sessions are a no-op
func ExecuteCancelEdit(ctx context.Context, _ CancelEditInput, deps CancelEditDeps) error {
	ws := deps.Workspace
	if id, ok := ws.Edit.Cancel(); ok {
		slog.InfoContext(ctx, "member_event", "event", "edit_cancelled", "workspace_id", ws.ID, "member_id", id)
	}
	ws.Error = ""
	return nil
}
