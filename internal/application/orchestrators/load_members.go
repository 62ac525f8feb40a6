package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"memberadmin/internal/application/workspace"
)

// ErrLoadFailed is returned when the member list could not be fetched.
var ErrLoadFailed = errors.New("could not load members")

// LoadMembersInput carries input for the load orchestrator.
type LoadMembersInput struct {
	// Reload resets the view state before fetching.
	Reload bool
}

// LoadMembersDeps holds dependencies for LoadMembers.
type LoadMembersDeps struct {
	Workspace *workspace.Workspace
	Source    MemberSource
	Metrics   FetchRecorder // optional
	Alerts    *FetchAlerter // optional
	Now       func() time.Time
}

// ExecuteLoadMembers fetches the member list and loads it into the workspace store.
// PRE: caller holds the workspace lock
// POST: A reload bypasses any cache the source keeps.
//
//	On success the store holds the fetched records in response order and LoadFailed is false.
//
//	On failure the store is left as it was, LoadFailed is set, the failure is logged and
//	the operator is alerted.
//
// INVARIANT: The store is never partially replaced
func ExecuteLoadMembers(ctx context.Context, input LoadMembersInput, deps LoadMembersDeps) (int, error) {
	ws := deps.Workspace
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if input.Reload {
		ws.Reset()
	}

	fetch := deps.Source.Fetch
	if r, ok := deps.Source.(MemberRefresher); ok && input.Reload {
		fetch = r.Refresh
	}

	start := now()
	records, err := fetch(ctx)
	if err == nil {
		err = ws.Members.Load(ctx, records)
	}
	elapsed := now().Sub(start)

	if err != nil {
		ws.LoadFailed = true
		if deps.Metrics != nil {
			deps.Metrics.ObserveFetch(false, 0, elapsed)
		}
		slog.ErrorContext(ctx, "member_event", "event", "members_load_failed",
			"workspace_id", ws.ID, "reload", input.Reload, "error", err)
		if deps.Alerts != nil {
			if alertErr := deps.Alerts.Notify(ctx, ws.ID, err, start); alertErr != nil {
				slog.WarnContext(ctx, "member_event", "event", "load_alert_failed", "workspace_id", ws.ID, "error", alertErr)
			}
		}
		return 0, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	ws.LoadFailed = false
	n, err := ws.Members.Count(ctx)
	if err != nil {
		return 0, err
	}
	if deps.Metrics != nil {
		deps.Metrics.ObserveFetch(true, n, elapsed)
	}
	slog.InfoContext(ctx, "member_event", "event", "members_loaded",
		"workspace_id", ws.ID, "count", n, "reload", input.Reload, "duration_ms", elapsed.Milliseconds())
	return n, nil
}
