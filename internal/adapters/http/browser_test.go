package web_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	web "memberadmin/internal/adapters/http"
	"memberadmin/internal/adapters/http/middleware"
	memberStore "memberadmin/internal/adapters/storage/member"
	domainMember "memberadmin/internal/domain/member"
)

type staticSource []domainMember.Member

// Fetch returns the fixed member list.
func (s staticSource) Fetch(context.Context) ([]domainMember.Member, error) {
	return s, nil
}

// browserApp holds the running server and Playwright handles.
type browserApp struct {
	BaseURL string
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newBrowserApp starts the full handler stack and a headless Chromium.
// Skips when the Playwright driver is not installed.
func newBrowserApp(t *testing.T, n int) *browserApp {
	t.Helper()

	records := make(staticSource, n)
	for i := range records {
		id := fmt.Sprintf("%d", i+1)
		records[i] = domainMember.Member{ID: id, Name: fmt.Sprintf("Member %02d", i+1), Email: "m" + id + "@example.com", Role: "member"}
	}
	registry := middleware.NewWorkspaceStore(func(string) memberStore.Store { return memberStore.NewMemoryStore() }, time.Hour)
	web.RateLimitPerSecond = 1000
	srv := httptest.NewServer(web.NewMux(web.Options{
		Workspaces: registry,
		Source:     records,
		CSRFKey:    []byte("0123456789abcdef0123456789abcdef"),
	}))

	pw, err := playwright.Run()
	if err != nil {
		srv.Close()
		t.Skipf("playwright driver unavailable: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		srv.Close()
		t.Skipf("chromium unavailable: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
	})
	return &browserApp{BaseURL: srv.URL, PW: pw, Browser: browser}
}

func (a *browserApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	if _, err := page.Goto(a.BaseURL + "/members"); err != nil {
		t.Fatalf("failed to open members page: %v", err)
	}
	return page
}

func rowCount(t *testing.T, page playwright.Page) int {
	t.Helper()
	n, err := page.Locator("table.members tbody tr[data-id]").Count()
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func waitForText(t *testing.T, page playwright.Page, text string) {
	t.Helper()
	if err := page.Locator("text=" + text).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("%q not shown: %v", text, err)
	}
}

// TestBrowser_SearchEditAndPaginate walks the main table flows in a real browser.
func TestBrowser_SearchEditAndPaginate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newBrowserApp(t, 25)
	page := app.newPage(t)

	if n := rowCount(t, page); n != 10 {
		t.Fatalf("rows = %d, want 10", n)
	}

	// Navigate to the last page.
	if err := page.Locator("nav.pagination a").Filter(playwright.LocatorFilterOptions{HasText: "Next"}).Click(); err != nil {
		t.Fatalf("click Next: %v", err)
	}
	if err := page.Locator("nav.pagination a").Filter(playwright.LocatorFilterOptions{HasText: "3"}).Click(); err != nil {
		t.Fatalf("click page 3: %v", err)
	}
	waitForText(t, page, "Showing 21 to 25 of 25")
	if n := rowCount(t, page); n != 5 {
		t.Errorf("last page rows = %d, want 5", n)
	}

	// Search narrows the table and returns to page 1.
	if err := page.Locator("input[name=q]").Fill("member 1"); err != nil {
		t.Fatalf("fill search: %v", err)
	}
	if err := page.Locator("form.search button").Click(); err != nil {
		t.Fatalf("submit search: %v", err)
	}
	waitForText(t, page, "Showing 1 to 10 of 10")
	if n := rowCount(t, page); n != 10 {
		t.Errorf("search rows = %d, want 10", n)
	}

	// Edit the first row and save.
	row := page.Locator("tr[data-id='10']")
	if err := row.Locator("button").Filter(playwright.LocatorFilterOptions{HasText: "Edit"}).Click(); err != nil {
		t.Fatalf("click Edit: %v", err)
	}
	if err := page.Locator("input[form='edit-10'][name=name]").Fill("Renamed Member"); err != nil {
		t.Fatalf("fill name: %v", err)
	}
	if err := page.Locator("tr[data-id='10'] button").Filter(playwright.LocatorFilterOptions{HasText: "Save"}).Click(); err != nil {
		t.Fatalf("click Save: %v", err)
	}
	if err := page.Locator("td >> text=Renamed Member").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Error("saved name not shown")
	}
}

// TestBrowser_SelectAllAndDelete verifies the header checkbox and bulk delete.
func TestBrowser_SelectAllAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newBrowserApp(t, 12)
	page := app.newPage(t)

	if err := page.Locator("#select-all").Check(); err != nil {
		t.Fatalf("check select-all: %v", err)
	}
	if err := page.Locator("text=10 rows selected").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatal("selection count not shown")
	}
	if err := page.Locator("button").Filter(playwright.LocatorFilterOptions{HasText: "Delete Selected"}).Click(); err != nil {
		t.Fatalf("click Delete Selected: %v", err)
	}
	if err := page.Locator("text=Showing 1 to 2 of 2").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Error("remaining rows not shown after bulk delete")
	}
	if n := rowCount(t, page); n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
}
