// Package workspace holds the per-browser state of the member table: the
// record store plus the edit session, selection, search query and page that
// the table is currently showing. Nothing here is persisted.
package workspace

import (
	"context"
	"sync"
	"time"

	memberStore "memberadmin/internal/adapters/storage/member"
	"memberadmin/internal/application/listutil"
	"memberadmin/internal/domain/edit"
	"memberadmin/internal/domain/member"
	"memberadmin/internal/domain/selection"
)

// Workspace is the in-memory state behind one admin table.
// Callers must hold the lock for the duration of an action so each action
// completes (store update, filter, pagination) before the next one starts.
type Workspace struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	Members   memberStore.Store

	Edit      edit.Session
	Selection selection.Set
	Query     string
	Page      int

	// Error is the user-visible message from the last failed commit.
	Error string
	// LoadFailed is set when the initial fetch did not populate the store.
	LoadFailed bool
}

// New creates a workspace on page 1 with an empty query.
// PRE: store is empty or about to be loaded
// POST: no edit session, no selection, no error
func New(id string, store memberStore.Store, now time.Time) *Workspace {
	return &Workspace{
		ID:        id,
		CreatedAt: now,
		Members:   store,
		Page:      1,
	}
}

// Lock acquires exclusive access to the workspace.
func (w *Workspace) Lock() { w.mu.Lock() }

// Unlock releases exclusive access.
func (w *Workspace) Unlock() { w.mu.Unlock() }

// Reset returns the view state to its initial values. The store is untouched.
// POST: page 1, empty query, idle edit session, empty selection, no messages
func (w *Workspace) Reset() {
	w.Edit.Clear()
	w.Selection.Clear()
	w.Query = ""
	w.Page = 1
	w.Error = ""
	w.LoadFailed = false
}

// Filtered returns the store contents matching the current query, in store order.
// PRE: caller holds the lock
func (w *Workspace) Filtered(ctx context.Context) ([]member.Member, error) {
	all, err := w.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	return listutil.Filter(all, w.Query), nil
}

// Visible returns the rows of the current page and its pagination metadata.
// PRE: caller holds the lock
// POST: w.Page is unchanged; the returned PageInfo carries the clamped page
func (w *Workspace) Visible(ctx context.Context) ([]member.Member, listutil.PageInfo, error) {
	filtered, err := w.Filtered(ctx)
	if err != nil {
		return nil, listutil.PageInfo{}, err
	}
	info := listutil.NewPageInfo(w.Page, len(filtered))
	return listutil.Slice(filtered, info.Page), info, nil
}

// ClampPage moves the stored page back into range after the filtered set shrank.
// PRE: caller holds the lock
// POST: 1 <= w.Page <= TotalPages(len(filtered))
func (w *Workspace) ClampPage(ctx context.Context) error {
	filtered, err := w.Filtered(ctx)
	if err != nil {
		return err
	}
	w.Page = listutil.ClampPage(w.Page, len(filtered))
	return nil
}
