package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"memberadmin/internal/adapters/http/middleware"
	memberStore "memberadmin/internal/adapters/storage/member"
	"memberadmin/internal/application/workspace"
	domainMember "memberadmin/internal/domain/member"
)

type fakeSource struct {
	records []domainMember.Member
	err     error
	calls   int
}

// Fetch returns the seeded records or error.
func (f *fakeSource) Fetch(_ context.Context) ([]domainMember.Member, error) {
	f.calls++
	return f.records, f.err
}

func testMembers(n int) []domainMember.Member {
	out := make([]domainMember.Member, n)
	for i := range out {
		id := fmt.Sprintf("%d", i+1)
		role := "member"
		if (i+1)%4 == 0 {
			role = "admin"
		}
		out[i] = domainMember.Member{ID: id, Name: fmt.Sprintf("Member %02d", i+1), Email: "m" + id + "@example.com", Role: role}
	}
	return out
}

// setupWorkspace returns a workspace loaded with n records and points the
// package globals at a source serving the same records.
func setupWorkspace(t *testing.T, n int) (*workspace.Workspace, *fakeSource) {
	t.Helper()
	src := &fakeSource{records: testMembers(n)}
	memberSource = src
	appMetrics = nil
	fetchAlerts = nil
	banner = ""
	t.Cleanup(func() { memberSource = nil })

	ws := workspace.New("ws-test", memberStore.NewMemoryStore(), time.Now())
	if err := ws.Members.Load(context.Background(), src.records); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ws, src
}

// serve runs handler h with ws attached the way the workspace middleware does.
func serve(h http.HandlerFunc, ws *workspace.Workspace, req *http.Request) *httptest.ResponseRecorder {
	req = req.WithContext(middleware.ContextWithWorkspace(req.Context(), ws))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func jsonRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, form string) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) memberListResponse {
	t.Helper()
	var resp memberListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list: %v (body %q)", err, rr.Body.String())
	}
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func memberIDs(resp memberListResponse) []string {
	ids := make([]string, len(resp.Members))
	for i, m := range resp.Members {
		ids[i] = m.ID
	}
	return ids
}
