package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"darkroom/internal/config"
	"darkroom/internal/journal"
	"darkroom/internal/notifications"
	"darkroom/internal/queue"
	"darkroom/internal/testsupport"
)

type stubResolver struct{}

func (stubResolver) FileURL(_ context.Context, fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

type fixture struct {
	cfg    *config.Config
	engine *queue.Engine
	url    string
	client *http.Client
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	engine := testsupport.NewEngine(t, cfg)
	jrnl := testsupport.MustOpenJournal(t, cfg)

	srv := NewServer(cfg, engine, stubResolver{}, jrnl, notifications.NewService(cfg), nil)
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &fixture{cfg: cfg, engine: engine, url: ts.URL, client: client}
}

func (f *fixture) request(t *testing.T, method, path string, body io.Reader, authorized bool, acceptJSON bool) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, f.url+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Dashboard.AdminToken)
	}
	if acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestPublicStatusNeedsNoToken(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 5, "renata")

	resp := f.request(t, http.MethodGet, "/status", nil, false, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	if !strings.Contains(page, "Current Queue (1)") || !strings.Contains(page, "renata") {
		t.Fatalf("unexpected public page:\n%s", page)
	}
	// Expected delivery is submission time plus the SLA window.
	want := f.engine.List()[0].SubmittedAt.Add(time.Duration(f.cfg.Queue.SLAHours) * time.Hour).Format("Jan 02, 3:04 PM")
	if !strings.Contains(page, want) {
		t.Fatalf("expected delivery estimate %q in page:\n%s", want, page)
	}
}

func TestAdminViewRequiresToken(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 5, "renata")

	if resp := f.request(t, http.MethodGet, "/", nil, false, false); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp := f.request(t, http.MethodGet, "/", nil, true, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	if !strings.Contains(page, "renata") || !strings.Contains(page, "https://files.example/file-ref") {
		t.Fatalf("unexpected admin page:\n%s", page)
	}
}

func TestAdminViewAcceptsQueryToken(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/?token="+f.cfg.Dashboard.AdminToken, nil, false, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with query token, got %d", resp.StatusCode)
	}
}

func TestEmptyTokenDisablesAdminSurface(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Dashboard.AdminToken = ""
	engine := testsupport.NewEngine(t, cfg)

	srv := NewServer(cfg, engine, stubResolver{}, nil, notifications.NewService(cfg), nil)
	ts := httptest.NewServer(srv.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 when no token configured, got %d", resp.StatusCode)
	}
}

func TestResetEndpoint(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 1, "a")
	testsupport.Submit(t, f.engine, 2, "b")

	resp := f.request(t, http.MethodPost, "/reset", nil, true, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Removed int `json:"removed"`
	}
	decodeBody(t, resp, &out)
	if out.Removed != 2 {
		t.Fatalf("expected removed=2, got %d", out.Removed)
	}
	if f.engine.Len() != 0 {
		t.Fatal("expected queue emptied")
	}
}

func TestResetRedirectsBrowsers(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodPost, "/reset?token="+f.cfg.Dashboard.AdminToken, nil, false, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/?token=") {
		t.Fatalf("unexpected redirect target: %q", loc)
	}
}

func TestRestoreEndpoint(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 1, "old")

	payload := `[
  {"requesterId": 7, "displayName": "nina", "status": "pending", "kind": "photo", "payloadRef": "ref-7", "caption": "crop", "submittedAt": "2026-03-04 10:00:00"},
  {"requesterId": 8, "displayName": "omar", "status": "done", "kind": "photo", "payloadRef": "ref-8", "caption": "No caption", "submittedAt": "2026-03-04 11:00:00"}
]`
	resp := f.request(t, http.MethodPost, "/restore", strings.NewReader(payload), true, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Restored int `json:"restored"`
	}
	decodeBody(t, resp, &out)
	if out.Restored != 2 {
		t.Fatalf("expected restored=2, got %d", out.Restored)
	}

	records := f.engine.List()
	if len(records) != 2 || records[0].RequesterID != 7 || records[1].Status != queue.StatusDone {
		t.Fatalf("unexpected queue after restore: %#v", records)
	}
}

func TestRestoreRejectsInvalidSnapshots(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 1, "keep")

	if resp := f.request(t, http.MethodPost, "/restore", strings.NewReader("{broken"), true, true); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", resp.StatusCode)
	}

	dup := `[
  {"requesterId": 7, "displayName": "a", "status": "pending", "kind": "photo", "payloadRef": "r", "caption": "c", "submittedAt": "2026-03-04 10:00:00"},
  {"requesterId": 7, "displayName": "b", "status": "pending", "kind": "photo", "payloadRef": "r", "caption": "c", "submittedAt": "2026-03-04 10:00:00"}
]`
	if resp := f.request(t, http.MethodPost, "/restore", strings.NewReader(dup), true, true); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate requesters, got %d", resp.StatusCode)
	}

	// Rejected restores leave the queue untouched.
	if f.engine.Len() != 1 || f.engine.List()[0].RequesterID != 1 {
		t.Fatalf("expected original queue preserved, got %#v", f.engine.List())
	}
}

func TestDownloadQueue(t *testing.T) {
	f := newFixture(t)

	if resp := f.request(t, http.MethodGet, "/download-queue", nil, true, false); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before first save, got %d", resp.StatusCode)
	}

	testsupport.Submit(t, f.engine, 5, "renata")
	resp := f.request(t, http.MethodGet, "/download-queue", nil, true, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "queue.json") {
		t.Fatalf("unexpected content disposition: %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"requesterId": 5`) {
		t.Fatalf("unexpected snapshot body:\n%s", body)
	}
}

func TestAPIQueueShape(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 5, "renata")

	resp := f.request(t, http.MethodGet, "/api/queue", nil, true, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Capacity int `json:"capacity"`
		Size     int `json:"size"`
		Items    []struct {
			RequesterID int64  `json:"requesterId"`
			DisplayName string `json:"displayName"`
			Status      string `json:"status"`
			Kind        string `json:"kind"`
			SubmittedAt string `json:"submittedAt"`
		} `json:"items"`
	}
	decodeBody(t, resp, &out)
	if out.Capacity != f.cfg.Queue.Capacity || out.Size != 1 || len(out.Items) != 1 {
		t.Fatalf("unexpected response: %+v", out)
	}
	item := out.Items[0]
	if item.RequesterID != 5 || item.DisplayName != "renata" || item.Status != "pending" || item.Kind != "photo" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if _, err := time.ParseInLocation(queue.TimeLayout, item.SubmittedAt, time.Local); err != nil {
		t.Fatalf("submittedAt not in wire layout: %q", item.SubmittedAt)
	}
}

func TestAPIJournalReturnsRecentEvents(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 1, "a")

	// Reset writes a journal event off the request path.
	f.request(t, http.MethodPost, "/reset", nil, true, true)

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp := f.request(t, http.MethodGet, "/api/journal?limit=5", nil, true, true)
		var out struct {
			Events []struct {
				Action string `json:"action"`
				Detail string `json:"detail"`
			} `json:"events"`
		}
		decodeBody(t, resp, &out)
		if len(out.Events) > 0 {
			if out.Events[0].Action != string(journal.ActionReset) || !strings.Contains(out.Events[0].Detail, "removed 1") {
				t.Fatalf("unexpected event: %+v", out.Events[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("journal event never appeared")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestAPIStatusIsPublic(t *testing.T) {
	f := newFixture(t)
	testsupport.Submit(t, f.engine, 5, "renata")

	resp := f.request(t, http.MethodGet, "/api/status", nil, false, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 without token, got %d", resp.StatusCode)
	}
	var out struct {
		Items []struct {
			Position    int    `json:"Position"`
			DisplayName string `json:"DisplayName"`
		} `json:"items"`
	}
	decodeBody(t, resp, &out)
	if len(out.Items) != 1 || out.Items[0].Position != 1 || out.Items[0].DisplayName != "renata" {
		t.Fatalf("unexpected public status: %+v", out)
	}
}
