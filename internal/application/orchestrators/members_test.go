package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	emailAdapter "memberadmin/internal/adapters/email"
	memberStore "memberadmin/internal/adapters/storage/member"
	"memberadmin/internal/application/workspace"
	"memberadmin/internal/domain/edit"
	domain "memberadmin/internal/domain/member"
)

type fakeSource struct {
	records []domain.Member
	err     error
	calls   int
}

// Fetch returns the seeded records or error.
func (f *fakeSource) Fetch(_ context.Context) ([]domain.Member, error) {
	f.calls++
	return f.records, f.err
}

type recorder struct {
	fetches   []bool
	mutations []string
	deleted   int
}

// ObserveFetch records the fetch outcome.
func (r *recorder) ObserveFetch(ok bool, _ int, _ time.Duration) { r.fetches = append(r.fetches, ok) }

// RecordMutation records the action and deleted count.
func (r *recorder) RecordMutation(action string, deleted int) {
	r.mutations = append(r.mutations, action)
	r.deleted += deleted
}

func members(n int) []domain.Member {
	out := make([]domain.Member, n)
	for i := range out {
		id := fmt.Sprintf("%d", i+1)
		role := "member"
		if (i+1)%4 == 0 {
			role = "admin"
		}
		out[i] = domain.Member{ID: id, Name: "Member " + id, Email: "m" + id + "@example.com", Role: role}
	}
	return out
}

func newWorkspace(t *testing.T, n int) *workspace.Workspace {
	t.Helper()
	ws := workspace.New("ws-test", memberStore.NewMemoryStore(), time.Now())
	if n > 0 {
		if err := ws.Members.Load(context.Background(), members(n)); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	return ws
}

func storedIDs(t *testing.T, ws *workspace.Workspace) []string {
	t.Helper()
	all, err := ws.Members.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := make([]string, len(all))
	for i, m := range all {
		ids[i] = m.ID
	}
	return ids
}

// --- Load ---

// TestExecuteLoadMembers_Success verifies the store holds the fetched records in order.
func TestExecuteLoadMembers_Success(t *testing.T) {
	ws := newWorkspace(t, 0)
	rec := &recorder{}
	src := &fakeSource{records: members(46)}

	n, err := ExecuteLoadMembers(context.Background(), LoadMembersInput{}, LoadMembersDeps{Workspace: ws, Source: src, Metrics: rec})
	if err != nil {
		t.Fatalf("ExecuteLoadMembers: %v", err)
	}
	if n != 46 || ws.LoadFailed {
		t.Errorf("n = %d LoadFailed = %v", n, ws.LoadFailed)
	}
	if ids := storedIDs(t, ws); ids[0] != "1" || ids[45] != "46" {
		t.Errorf("order not preserved: %v", ids)
	}
	if !reflect.DeepEqual(rec.fetches, []bool{true}) {
		t.Errorf("fetches = %v", rec.fetches)
	}
}

// TestExecuteLoadMembers_FailureAlerts verifies a failed fetch leaves the store empty,
// sets the notice and emails the operator.
func TestExecuteLoadMembers_FailureAlerts(t *testing.T) {
	ws := newWorkspace(t, 0)
	sender := emailAdapter.NewLogSender()
	deps := LoadMembersDeps{
		Workspace: ws,
		Source:    &fakeSource{err: errors.New("dial tcp: connection refused")},
		Alerts:    &FetchAlerter{Sender: sender, From: "alerts@example.com", To: []string{"ops@example.com"}, SourceURL: "https://example.com/members.json"},
	}

	_, err := ExecuteLoadMembers(context.Background(), LoadMembersInput{}, deps)
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("err = %v, want ErrLoadFailed", err)
	}
	if !ws.LoadFailed {
		t.Error("LoadFailed not set")
	}
	if n, _ := ws.Members.Count(context.Background()); n != 0 {
		t.Errorf("store has %d records after failed load", n)
	}
	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("alerts sent = %d, want 1", len(sent))
	}
	if !strings.Contains(sent[0].HTML, "<h2>Member list unavailable</h2>") || !strings.Contains(sent[0].HTML, "connection refused") {
		t.Errorf("alert HTML = %q", sent[0].HTML)
	}
	if sent[0].Tags["kind"] != "fetch_failed" || !strings.Contains(sent[0].Text, "## Member list unavailable") {
		t.Errorf("alert = %+v", sent[0])
	}
}

// TestExecuteLoadMembers_ReloadResetsView verifies reload clears view state and replaces records.
func TestExecuteLoadMembers_ReloadResetsView(t *testing.T) {
	ws := newWorkspace(t, 30)
	ws.Query, ws.Page = "admin", 2
	ws.Selection.Replace([]string{"4"})
	m, _ := ws.Members.GetByID(context.Background(), "1")
	ws.Edit.Begin(m)

	src := &fakeSource{records: members(5)}
	if _, err := ExecuteLoadMembers(context.Background(), LoadMembersInput{Reload: true}, LoadMembersDeps{Workspace: ws, Source: src}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if ws.Query != "" || ws.Page != 1 || !ws.Selection.IsEmpty() {
		t.Errorf("view not reset: query=%q page=%d", ws.Query, ws.Page)
	}
	if _, editing := ws.Edit.Active(); editing {
		t.Error("edit survived reload")
	}
	if len(storedIDs(t, ws)) != 5 {
		t.Errorf("records = %v", storedIDs(t, ws))
	}
}

// TestExecuteLoadMembers_FailedReloadKeepsRecords verifies a failed reload keeps what was loaded.
func TestExecuteLoadMembers_FailedReloadKeepsRecords(t *testing.T) {
	ws := newWorkspace(t, 12)
	src := &fakeSource{err: errors.New("status 500")}

	ExecuteLoadMembers(context.Background(), LoadMembersInput{Reload: true}, LoadMembersDeps{Workspace: ws, Source: src})
	if !ws.LoadFailed || len(storedIDs(t, ws)) != 12 {
		t.Errorf("LoadFailed = %v records = %d", ws.LoadFailed, len(storedIDs(t, ws)))
	}
}

type refreshingSource struct {
	fakeSource
	refreshes int
}

// Refresh counts the call and returns the seeded records.
func (f *refreshingSource) Refresh(_ context.Context) ([]domain.Member, error) {
	f.refreshes++
	return f.records, f.err
}

// TestExecuteLoadMembers_ReloadRefreshesCachedSource verifies only a reload skips the source cache.
func TestExecuteLoadMembers_ReloadRefreshesCachedSource(t *testing.T) {
	ws := newWorkspace(t, 0)
	src := &refreshingSource{fakeSource: fakeSource{records: members(3)}}
	deps := LoadMembersDeps{Workspace: ws, Source: src}

	ExecuteLoadMembers(context.Background(), LoadMembersInput{}, deps)
	ExecuteLoadMembers(context.Background(), LoadMembersInput{Reload: true}, deps)
	if src.calls != 1 || src.refreshes != 1 {
		t.Errorf("calls = %d refreshes = %d, want 1 and 1", src.calls, src.refreshes)
	}
}

// TestExecuteLoadMembers_AlertsThrottled verifies an outage seen by many workspaces
// sends one alert per limiter interval.
func TestExecuteLoadMembers_AlertsThrottled(t *testing.T) {
	sender := emailAdapter.NewLogSender()
	alerts := &FetchAlerter{
		Sender:  sender,
		From:    "alerts@example.com",
		To:      []string{"ops@example.com"},
		Limiter: NewAlertLimiter(time.Hour),
	}
	src := &fakeSource{err: errors.New("status 503")}

	for i := 0; i < 50; i++ {
		ws := newWorkspace(t, 0)
		ExecuteLoadMembers(context.Background(), LoadMembersInput{}, LoadMembersDeps{Workspace: ws, Source: src, Alerts: alerts})
		if !ws.LoadFailed {
			t.Fatalf("workspace %d: LoadFailed not set", i)
		}
	}
	if n := len(sender.Sent()); n != 1 {
		t.Errorf("alerts sent = %d, want 1", n)
	}
}

// TestFetchAlerter_LimiterRefills verifies a new alert goes out once the interval has passed.
func TestFetchAlerter_LimiterRefills(t *testing.T) {
	sender := emailAdapter.NewLogSender()
	a := &FetchAlerter{Sender: sender, From: "alerts@example.com", To: []string{"ops@example.com"}, Limiter: NewAlertLimiter(20 * time.Millisecond)}
	ctx := context.Background()

	a.Notify(ctx, "ws-1", errors.New("x"), time.Now())
	a.Notify(ctx, "ws-2", errors.New("x"), time.Now())
	if n := len(sender.Sent()); n != 1 {
		t.Fatalf("alerts sent = %d, want 1 within the interval", n)
	}
	time.Sleep(30 * time.Millisecond)
	a.Notify(ctx, "ws-3", errors.New("x"), time.Now())
	if n := len(sender.Sent()); n != 2 {
		t.Errorf("alerts sent = %d, want 2 after the interval", n)
	}
}

// TestFetchAlerter_NoRecipients verifies alerts are skipped without recipients.
func TestFetchAlerter_NoRecipients(t *testing.T) {
	sender := emailAdapter.NewLogSender()
	a := &FetchAlerter{Sender: sender}
	if err := a.Notify(context.Background(), "ws", errors.New("x"), time.Now()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	var nilAlerter *FetchAlerter
	nilAlerter.Notify(context.Background(), "ws", errors.New("x"), time.Now())
	if len(sender.Sent()) != 0 {
		t.Error("alert sent without recipients")
	}
}

// --- Search and pagination ---

// TestExecuteSearch_ResetsPageAndSelection verifies a search always returns to page 1.
func TestExecuteSearch_ResetsPageAndSelection(t *testing.T) {
	ws := newWorkspace(t, 30)
	ctx := context.Background()
	deps := SearchDeps{Workspace: ws}

	ExecuteSearch(ctx, SearchInput{Query: "member"}, deps)
	ws.Page = 3
	ws.Selection.Replace([]string{"21"})

	ExecuteSearch(ctx, SearchInput{Query: "member"}, deps)
	if ws.Page != 1 {
		t.Errorf("Page = %d after repeating the same query, want 1", ws.Page)
	}
	if !ws.Selection.IsEmpty() {
		t.Error("selection survived search")
	}
	if ws.Query != "member" {
		t.Errorf("Query = %q", ws.Query)
	}
}

// TestExecuteSearch_FiltersFullStore verifies results come from the whole store, not the previous result.
func TestExecuteSearch_FiltersFullStore(t *testing.T) {
	ws := newWorkspace(t, 20)
	ctx := context.Background()
	deps := SearchDeps{Workspace: ws}

	ExecuteSearch(ctx, SearchInput{Query: "admin"}, deps)
	ExecuteSearch(ctx, SearchInput{Query: "Member 1"}, deps)

	filtered, _ := ws.Filtered(ctx)
	// Member 1 and Member 10..19.
	if len(filtered) != 11 {
		t.Errorf("filtered = %d, want 11", len(filtered))
	}
}

// TestExecuteGoToPage verifies navigation and selection clearing.
func TestExecuteGoToPage(t *testing.T) {
	ws := newWorkspace(t, 30)
	ctx := context.Background()
	ws.Selection.Replace([]string{"1"})

	ExecuteGoToPage(ctx, GoToPageInput{Page: 1}, GoToPageDeps{Workspace: ws})
	if ws.Selection.IsEmpty() {
		t.Error("selection cleared when page did not change")
	}
	ExecuteGoToPage(ctx, GoToPageInput{Page: 3}, GoToPageDeps{Workspace: ws})
	if ws.Page != 3 || !ws.Selection.IsEmpty() {
		t.Errorf("Page = %d selection = %v", ws.Page, ws.Selection.IDs())
	}
	rows, _, _ := ws.Visible(ctx)
	if len(rows) != 10 || rows[0].ID != "21" {
		t.Errorf("page 3 starts at %s", rows[0].ID)
	}
}

// --- Edit ---

// TestEdit_CommitUpdatesInPlace verifies a valid commit writes the drafts without reordering.
func TestEdit_CommitUpdatesInPlace(t *testing.T) {
	ws := newWorkspace(t, 3)
	ctx := context.Background()
	rec := &recorder{}

	if err := ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "2"}, BeginEditDeps{Workspace: ws}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	ExecuteSetDraftField(ctx, SetDraftFieldInput{Field: "name", Value: "Renamed"}, SetDraftFieldDeps{Workspace: ws})

	stored, _ := ws.Members.GetByID(ctx, "2")
	if stored.Name != "Member 2" {
		t.Fatal("draft leaked into the store before commit")
	}

	if err := ExecuteCommitEdit(ctx, CommitEditInput{}, CommitEditDeps{Workspace: ws, Metrics: rec}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	stored, _ = ws.Members.GetByID(ctx, "2")
	if stored.Name != "Renamed" || stored.Email != "m2@example.com" {
		t.Errorf("stored = %+v", stored)
	}
	if !reflect.DeepEqual(storedIDs(t, ws), []string{"1", "2", "3"}) {
		t.Errorf("order changed: %v", storedIDs(t, ws))
	}
	if _, editing := ws.Edit.Active(); editing {
		t.Error("session still active after commit")
	}
	if !reflect.DeepEqual(rec.mutations, []string{"update"}) {
		t.Errorf("mutations = %v", rec.mutations)
	}
}

// TestEdit_CommitRejectsEmptyField verifies validation keeps the session and the store.
func TestEdit_CommitRejectsEmptyField(t *testing.T) {
	ws := newWorkspace(t, 3)
	ctx := context.Background()
	ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "1"}, BeginEditDeps{Workspace: ws})

	drafts := domain.Fields{Name: "New", Email: "  ", Role: "admin"}
	err := ExecuteCommitEdit(ctx, CommitEditInput{Drafts: &drafts}, CommitEditDeps{Workspace: ws})
	if !errors.Is(err, domain.ErrFieldsRequired) {
		t.Fatalf("err = %v, want ErrFieldsRequired", err)
	}
	if ws.Error != "All fields are required." {
		t.Errorf("Error = %q", ws.Error)
	}
	if !ws.Edit.IsEditing("1") || ws.Edit.Drafts().Name != "New" {
		t.Error("session or drafts lost on validation failure")
	}
	stored, _ := ws.Members.GetByID(ctx, "1")
	if stored.Name != "Member 1" {
		t.Errorf("store mutated: %+v", stored)
	}

	ExecuteCancelEdit(ctx, CancelEditInput{}, CancelEditDeps{Workspace: ws})
	if ws.Error != "" || ws.Edit.IsEditing("1") {
		t.Error("cancel did not clear the message and session")
	}
}

// TestEdit_CancelLeavesStoreUnchanged verifies drafts discarded by cancel never reach the store.
func TestEdit_CancelLeavesStoreUnchanged(t *testing.T) {
	ws := newWorkspace(t, 12)
	ctx := context.Background()
	before, _ := ws.Members.List(ctx)

	if err := ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "4"}, BeginEditDeps{Workspace: ws}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	deps := SetDraftFieldDeps{Workspace: ws}
	ExecuteSetDraftField(ctx, SetDraftFieldInput{Field: "name", Value: "Renamed"}, deps)
	ExecuteSetDraftField(ctx, SetDraftFieldInput{Field: "email", Value: "renamed@example.com"}, deps)
	ExecuteSetDraftField(ctx, SetDraftFieldInput{Field: "role", Value: "owner"}, deps)
	if err := ExecuteCancelEdit(ctx, CancelEditInput{}, CancelEditDeps{Workspace: ws}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	after, _ := ws.Members.List(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("store changed by a cancelled edit:\nbefore %+v\nafter  %+v", before, after)
	}
	if _, editing := ws.Edit.Active(); editing {
		t.Error("edit still active after cancel")
	}
}

// TestEdit_OneRowAtATime verifies a second row cannot enter edit mode.
func TestEdit_OneRowAtATime(t *testing.T) {
	ws := newWorkspace(t, 3)
	ctx := context.Background()
	deps := BeginEditDeps{Workspace: ws}

	ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "1"}, deps)
	ExecuteSetDraftField(ctx, SetDraftFieldInput{Field: "role", Value: "owner"}, SetDraftFieldDeps{Workspace: ws})

	if err := ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "2"}, deps); !errors.Is(err, edit.ErrAnotherRowEditing) {
		t.Errorf("begin second row = %v, want ErrAnotherRowEditing", err)
	}
	if err := ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "1"}, deps); err != nil {
		t.Errorf("re-begin same row = %v", err)
	}
	if ws.Edit.Drafts().Role != "owner" {
		t.Error("re-begin discarded drafts")
	}
}

// TestEdit_BeginUnknown verifies missing ids are rejected.
func TestEdit_BeginUnknown(t *testing.T) {
	ws := newWorkspace(t, 1)
	deps := BeginEditDeps{Workspace: ws}
	if err := ExecuteBeginEdit(context.Background(), BeginEditInput{MemberID: "404"}, deps); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := ExecuteBeginEdit(context.Background(), BeginEditInput{}, deps); !errors.Is(err, ErrMemberIDRequired) {
		t.Errorf("err = %v, want ErrMemberIDRequired", err)
	}
}

// TestEdit_CommitWithoutSession verifies commit needs an active edit.
func TestEdit_CommitWithoutSession(t *testing.T) {
	ws := newWorkspace(t, 1)
	if err := ExecuteCommitEdit(context.Background(), CommitEditInput{}, CommitEditDeps{Workspace: ws}); !errors.Is(err, edit.ErrNotEditing) {
		t.Errorf("err = %v, want ErrNotEditing", err)
	}
}

// TestEdit_CommitReclampsPage verifies an edit that drops the last filtered row on a page moves back.
func TestEdit_CommitReclampsPage(t *testing.T) {
	ws := newWorkspace(t, 11)
	ctx := context.Background()
	ExecuteSearch(ctx, SearchInput{Query: "member"}, SearchDeps{Workspace: ws})
	ws.Page = 2

	ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "11"}, BeginEditDeps{Workspace: ws})
	drafts := domain.Fields{Name: "Zed", Email: "zed@example.com", Role: "owner"}
	if err := ExecuteCommitEdit(ctx, CommitEditInput{Drafts: &drafts}, CommitEditDeps{Workspace: ws}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ws.Page != 1 {
		t.Errorf("Page = %d, want 1", ws.Page)
	}
}

// --- Delete ---

// TestExecuteDeleteMember verifies removal, selection pruning and page clamping.
func TestExecuteDeleteMember(t *testing.T) {
	ws := newWorkspace(t, 11)
	ctx := context.Background()
	rec := &recorder{}
	ws.Page = 2
	ws.Selection.Replace([]string{"11"})

	if err := ExecuteDeleteMember(ctx, DeleteMemberInput{MemberID: "11"}, DeleteMemberDeps{Workspace: ws, Metrics: rec}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(storedIDs(t, ws)) != 10 {
		t.Errorf("records = %d, want 10", len(storedIDs(t, ws)))
	}
	if !ws.Selection.IsEmpty() {
		t.Error("deleted id still selected")
	}
	if ws.Page != 1 {
		t.Errorf("Page = %d, want 1", ws.Page)
	}
	if rec.deleted != 1 {
		t.Errorf("deleted = %d", rec.deleted)
	}

	if err := ExecuteDeleteMember(ctx, DeleteMemberInput{MemberID: "11"}, DeleteMemberDeps{Workspace: ws}); err != nil {
		t.Errorf("deleting an unknown id = %v, want nil", err)
	}
}

// TestExecuteDeleteMember_RefusedWhileEditing verifies deletes wait for the edit to finish.
func TestExecuteDeleteMember_RefusedWhileEditing(t *testing.T) {
	ws := newWorkspace(t, 3)
	ctx := context.Background()
	rec := &recorder{}
	ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "1"}, BeginEditDeps{Workspace: ws})

	err := ExecuteDeleteMember(ctx, DeleteMemberInput{MemberID: "2"}, DeleteMemberDeps{Workspace: ws, Metrics: rec})
	if !errors.Is(err, edit.ErrAnotherRowEditing) {
		t.Fatalf("err = %v, want ErrAnotherRowEditing", err)
	}
	if len(storedIDs(t, ws)) != 3 {
		t.Error("record deleted while editing")
	}
	if !reflect.DeepEqual(rec.mutations, []string{"refused"}) {
		t.Errorf("mutations = %v", rec.mutations)
	}
}

// --- Selection ---

// TestExecuteSetSelection_OnlyVisible verifies ids off the page or unknown are dropped.
func TestExecuteSetSelection_OnlyVisible(t *testing.T) {
	ws := newWorkspace(t, 25)
	ctx := context.Background()
	ws.Page = 2

	err := ExecuteSetSelection(ctx, SetSelectionInput{IDs: []string{"11", "12", "12", "1", "404"}}, SetSelectionDeps{Workspace: ws})
	if err != nil {
		t.Fatalf("set selection: %v", err)
	}
	if !reflect.DeepEqual(ws.Selection.IDs(), []string{"11", "12"}) {
		t.Errorf("selection = %v", ws.Selection.IDs())
	}

	ExecuteSetSelection(ctx, SetSelectionInput{}, SetSelectionDeps{Workspace: ws})
	if !ws.Selection.IsEmpty() {
		t.Error("empty replace did not clear the selection")
	}
}

// TestExecuteDeleteSelected verifies the bulk delete removes exactly the selection.
func TestExecuteDeleteSelected(t *testing.T) {
	ws := newWorkspace(t, 21)
	ctx := context.Background()
	rec := &recorder{}
	ws.Page = 3
	ExecuteSetSelection(ctx, SetSelectionInput{IDs: []string{"21"}}, SetSelectionDeps{Workspace: ws})

	n, err := ExecuteDeleteSelected(ctx, DeleteSelectedInput{}, DeleteSelectedDeps{Workspace: ws, Metrics: rec})
	if err != nil {
		t.Fatalf("delete selected: %v", err)
	}
	if n != 1 || len(storedIDs(t, ws)) != 20 {
		t.Errorf("n = %d records = %d", n, len(storedIDs(t, ws)))
	}
	if !ws.Selection.IsEmpty() {
		t.Error("selection not cleared")
	}
	if ws.Page != 2 {
		t.Errorf("Page = %d, want 2", ws.Page)
	}
	if rec.deleted != 1 || !reflect.DeepEqual(rec.mutations, []string{"bulk_delete"}) {
		t.Errorf("recorder = %+v", rec)
	}
}

// TestExecuteDeleteSelected_EmptyIsNoop verifies nothing happens without a selection.
func TestExecuteDeleteSelected_EmptyIsNoop(t *testing.T) {
	ws := newWorkspace(t, 5)
	rec := &recorder{}
	n, err := ExecuteDeleteSelected(context.Background(), DeleteSelectedInput{}, DeleteSelectedDeps{Workspace: ws, Metrics: rec})
	if err != nil || n != 0 {
		t.Errorf("n = %d err = %v", n, err)
	}
	if len(rec.mutations) != 0 || len(storedIDs(t, ws)) != 5 {
		t.Error("empty bulk delete mutated state")
	}
}

// TestExecuteDeleteSelected_RefusedWhileEditing verifies bulk delete waits for the edit.
func TestExecuteDeleteSelected_RefusedWhileEditing(t *testing.T) {
	ws := newWorkspace(t, 5)
	ctx := context.Background()
	ExecuteSetSelection(ctx, SetSelectionInput{IDs: []string{"2", "3"}}, SetSelectionDeps{Workspace: ws})
	ExecuteBeginEdit(ctx, BeginEditInput{MemberID: "1"}, BeginEditDeps{Workspace: ws})

	if _, err := ExecuteDeleteSelected(ctx, DeleteSelectedInput{}, DeleteSelectedDeps{Workspace: ws}); !errors.Is(err, edit.ErrAnotherRowEditing) {
		t.Fatalf("err = %v, want ErrAnotherRowEditing", err)
	}
	if ws.Selection.Len() != 2 || len(storedIDs(t, ws)) != 5 {
		t.Error("refused bulk delete changed state")
	}
}
