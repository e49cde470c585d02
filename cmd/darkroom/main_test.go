package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"darkroom/internal/config"
	"darkroom/internal/dashboard"
	"darkroom/internal/notifications"
	"darkroom/internal/queue"
	"darkroom/internal/testsupport"
)

type stubFiles struct{}

func (stubFiles) FileURL(_ context.Context, fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

type cliEnv struct {
	cfg    *config.Config
	engine *queue.Engine
	base   string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	// Keep the CLI's implicit config load away from any real operator config.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DARKROOM_BOT_TOKEN", "test-token")
	t.Setenv("DARKROOM_ADMIN_ID", "1000")
	t.Setenv("DARKROOM_DASHBOARD_TOKEN", "")
	t.Setenv("DARKROOM_NTFY_TOPIC", "")

	cfg := testsupport.NewConfig(t)
	engine := testsupport.NewEngine(t, cfg)
	jrnl := testsupport.MustOpenJournal(t, cfg)
	srv := dashboard.NewServer(cfg, engine, stubFiles{}, jrnl, notifications.NewService(cfg), nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		cancel()
		t.Fatalf("dashboard start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		srv.Stop()
	})

	return &cliEnv{cfg: cfg, engine: engine, base: "http://" + srv.Addr()}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append(args, "--server", e.base, "--token", e.cfg.Dashboard.AdminToken))
	err := root.Execute()
	return buf.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("darkroom %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestQueueListRendersQueue(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.Submit(t, env.engine, 101, "anna")
	testsupport.Submit(t, env.engine, 102, "bert")

	out := env.mustRun(t, "queue", "list")

	if !strings.Contains(out, "anna") || !strings.Contains(out, "bert") {
		t.Fatalf("expected both requesters listed, got:\n%s", out)
	}
	if !strings.Contains(out, "2/50 slots used") {
		t.Fatalf("expected slot summary, got:\n%s", out)
	}
}

func TestQueueListEmptyQueue(t *testing.T) {
	env := setupCLIEnv(t)

	out := env.mustRun(t, "queue", "list")

	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty-queue message, got:\n%s", out)
	}
}

func TestQueueListJSON(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.Submit(t, env.engine, 101, "anna")

	out := env.mustRun(t, "queue", "list", "--json")

	var resp struct {
		Capacity int `json:"capacity"`
		Size     int `json:"size"`
		Items    []struct {
			RequesterID int64  `json:"requesterId"`
			DisplayName string `json:"displayName"`
			Status      string `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if resp.Size != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Items[0].RequesterID != 101 || resp.Items[0].Status != "pending" {
		t.Fatalf("unexpected item: %+v", resp.Items[0])
	}
}

func TestQueueResetRequiresForce(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.Submit(t, env.engine, 101, "anna")

	if _, err := env.run(t, "queue", "reset"); err == nil {
		t.Fatal("expected refusal without --force")
	}
	if env.engine.Len() != 1 {
		t.Fatalf("queue should be untouched, len=%d", env.engine.Len())
	}

	out := env.mustRun(t, "queue", "reset", "--force")
	if !strings.Contains(out, "Removed 1 requests") {
		t.Fatalf("expected removal summary, got:\n%s", out)
	}
	if env.engine.Len() != 0 {
		t.Fatalf("queue should be empty, len=%d", env.engine.Len())
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.Submit(t, env.engine, 101, "anna")

	out := env.mustRun(t, "status")

	if !strings.Contains(out, "1 of 50 slots used") {
		t.Fatalf("expected slot summary, got:\n%s", out)
	}
	if !strings.Contains(out, "Oldest request submitted") {
		t.Fatalf("expected oldest-request line, got:\n%s", out)
	}
}

func TestJournalCommandEmpty(t *testing.T) {
	env := setupCLIEnv(t)

	out := env.mustRun(t, "journal")

	if !strings.Contains(out, "No journal events") {
		t.Fatalf("expected empty-journal message, got:\n%s", out)
	}
}

func TestCLIRejectsBadToken(t *testing.T) {
	env := setupCLIEnv(t)

	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"queue", "list", "--server", env.base, "--token", "wrong"})
	err := root.Execute()
	if err == nil {
		t.Fatal("expected auth failure")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 in error, got %v", err)
	}
}
