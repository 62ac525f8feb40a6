package orchestrators

import (
	"context"
	"log/slog"

	"memberadmin/internal/adapters/metrics"
	"memberadmin/internal/application/workspace"
	"memberadmin/internal/domain/edit"
)

// DeleteMemberInput carries input for the delete orchestrator.
type DeleteMemberInput struct {
	MemberID string
}

// DeleteMemberDeps holds dependencies for DeleteMember.
type DeleteMemberDeps struct {
	Workspace *workspace.Workspace
	Metrics   MutationRecorder // optional
}

// ExecuteDeleteMember removes one record.
// PRE: caller holds the workspace lock; no edit session is active
// POST: The record is gone from the store and the selection; the page is re-clamped.
//
//	Unknown ids are a no-op.
func ExecuteDeleteMember(ctx context.Context, input DeleteMemberInput, deps DeleteMemberDeps) error {
	if input.MemberID == "" {
		return ErrMemberIDRequired
	}
	ws := deps.Workspace
	if err := refuseWhileEditing(ws, deps.Metrics); err != nil {
		return err
	}

	if err := ws.Members.Delete(ctx, input.MemberID); err != nil {
		return err
	}
	ws.Selection.Remove(input.MemberID)
	if err := ws.ClampPage(ctx); err != nil {
		return err
	}
	if deps.Metrics != nil {
		deps.Metrics.RecordMutation(metrics.ActionDelete, 1)
	}

	slog.InfoContext(ctx, "member_event", "event", "member_deleted", "workspace_id", ws.ID, "member_id", input.MemberID)
	return nil
}

// refuseWhileEditing blocks deletes while a row is in edit mode.
func refuseWhileEditing(ws *workspace.Workspace, rec MutationRecorder) error {
	if _, editing := ws.Edit.Active(); !editing {
		return nil
	}
	if rec != nil {
		rec.RecordMutation(metrics.ActionRefused, 0)
	}
	return edit.ErrAnotherRowEditing
}
