package orchestrators

import (
	"context"
	"log/slog"

	"memberadmin/internal/adapters/metrics"
	"memberadmin/internal/application/workspace"
)

// SetSelectionInput carries input for the set-selection orchestrator.
type SetSelectionInput struct {
	IDs []string
}

// SetSelectionDeps holds dependencies for SetSelection.
type SetSelectionDeps struct {
	Workspace *workspace.Workspace
}

// ExecuteSetSelection replaces the selection wholesale.
// PRE: caller holds the workspace lock
// POST: Selection holds the requested ids that are on the visible page, without duplicates
func ExecuteSetSelection(ctx context.Context, input SetSelectionInput, deps SetSelectionDeps) error {
	ws := deps.Workspace
	visible, _, err := ws.Visible(ctx)
	if err != nil {
		return err
	}
	onPage := make(map[string]bool, len(visible))
	for _, m := range visible {
		onPage[m.ID] = true
	}
	ids := make([]string, 0, len(input.IDs))
	for _, id := range input.IDs {
		if onPage[id] {
			ids = append(ids, id)
		}
	}
	ws.Selection.Replace(ids)
	return nil
}

// DeleteSelectedInput carries input for the bulk delete orchestrator.
type DeleteSelectedInput struct{}

// DeleteSelectedDeps holds dependencies for DeleteSelected.
type DeleteSelectedDeps struct {
	Workspace *workspace.Workspace
	Metrics   MutationRecorder // optional
}

// ExecuteDeleteSelected removes every selected record in one store operation.
// PRE: caller holds the workspace lock; no edit session is active
// POST: Selected records are gone, the selection is empty and the page is re-clamped.
//
//	An empty selection is a no-op. Returns the number of ids removed.
func ExecuteDeleteSelected(ctx context.Context, _ DeleteSelectedInput, deps DeleteSelectedDeps) (int, error) {
	ws := deps.Workspace
	if ws.Selection.IsEmpty() {
		return 0, nil
	}
	if err := refuseWhileEditing(ws, deps.Metrics); err != nil {
		return 0, err
	}

	ids := ws.Selection.IDs()
	if err := ws.Members.DeleteMany(ctx, ids); err != nil {
		return 0, err
	}
	ws.Selection.Clear()
	if err := ws.ClampPage(ctx); err != nil {
		return 0, err
	}
	if deps.Metrics != nil {
		deps.Metrics.RecordMutation(metrics.ActionBulkDelete, len(ids))
	}

	slog.InfoContext(ctx, "member_event", "event", "members_deleted", "workspace_id", ws.ID, "count", len(ids))
	return len(ids), nil
}
