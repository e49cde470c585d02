package scheduler_test

import (
	"context"
	"testing"
	"time"

	"darkroom/internal/scheduler"
)

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := scheduler.New("25:00", func() {}, nil); err == nil {
		t.Fatal("expected error for invalid reset time")
	}
	if _, err := scheduler.New("7pm", func() {}, nil); err == nil {
		t.Fatal("expected error for non HH:MM time")
	}
	if _, err := scheduler.New("00:00", nil, nil); err == nil {
		t.Fatal("expected error for missing callback")
	}
}

func TestNextFire(t *testing.T) {
	s, err := scheduler.New("03:30", func() {}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	loc := time.Local
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the slot fires today",
			now:  time.Date(2026, time.March, 4, 1, 0, 0, 0, loc),
			want: time.Date(2026, time.March, 4, 3, 30, 0, 0, loc),
		},
		{
			name: "after the slot fires tomorrow",
			now:  time.Date(2026, time.March, 4, 9, 0, 0, 0, loc),
			want: time.Date(2026, time.March, 5, 3, 30, 0, 0, loc),
		},
		{
			name: "exactly at the slot fires tomorrow",
			now:  time.Date(2026, time.March, 4, 3, 30, 0, 0, loc),
			want: time.Date(2026, time.March, 5, 3, 30, 0, 0, loc),
		},
		{
			name: "one second before fires today",
			now:  time.Date(2026, time.March, 4, 3, 29, 59, 0, loc),
			want: time.Date(2026, time.March, 4, 3, 30, 0, 0, loc),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.NextFire(tc.now)
			if !got.Equal(tc.want) {
				t.Fatalf("NextFire(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestMidnightWrapsToNextDay(t *testing.T) {
	s, err := scheduler.New("00:00", func() {}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	now := time.Date(2026, time.March, 4, 23, 59, 0, 0, time.Local)
	want := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.Local)
	if got := s.NextFire(now); !got.Equal(want) {
		t.Fatalf("NextFire(%v) = %v, want %v", now, got, want)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s, err := scheduler.New("00:00", func() { t.Error("callback should not fire") }, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
