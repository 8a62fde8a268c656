package notification

import (
	"errors"
	"testing"
	"time"
)

func TestParseUnreadOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         string
		wantUnread bool
		wantOK     bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"1", true, true},
		{"false", false, true},
		{"False", false, true},
		{"0", false, true},
		{"", false, false},
		{"yes", false, false},
		{"2", false, false},
	}
	for _, tt := range tests {
		unread, ok := parseUnreadOnly(tt.in)
		if unread != tt.wantUnread || ok != tt.wantOK {
			t.Errorf("parseUnreadOnly(%q): got %v/%v, want %v/%v", tt.in, unread, ok, tt.wantUnread, tt.wantOK)
		}
	}
}

func TestParsePageSize(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"":     defaultPageSize,
		"abc":  defaultPageSize,
		"0":    defaultPageSize,
		"-5":   defaultPageSize,
		"1":    1,
		"100":  100,
		"101":  maxPageSize,
		"5000": maxPageSize,
	}
	for in, want := range tests {
		if got := parsePageSize(in); got != want {
			t.Errorf("parsePageSize(%q): got %d, want %d", in, got, want)
		}
	}
}

func TestParsePageNumber(t *testing.T) {
	t.Parallel()

	if n, err := parsePageNumber(""); err != nil || n != 1 {
		t.Errorf("未指定: got %d/%v, want 1/nil", n, err)
	}
	if n, err := parsePageNumber("3"); err != nil || n != 3 {
		t.Errorf("3: got %d/%v, want 3/nil", n, err)
	}
	for _, in := range []string{"0", "-1", "x", "1.5"} {
		if _, err := parsePageNumber(in); !errors.Is(err, errInvalidPage) {
			t.Errorf("parsePageNumber(%q): got %v, want errInvalidPage", in, err)
		}
	}
}

func TestPageHasNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		p    page
		want bool
	}{
		{page{count: 25, number: 1, size: 10}, true},
		{page{count: 25, number: 3, size: 10}, false},
		{page{count: 20, number: 2, size: 10}, false},
		{page{count: 0, number: 1, size: 20}, false},
	}
	for _, tt := range tests {
		if got := tt.p.hasNext(); got != tt.want {
			t.Errorf("hasNext(%+v): got %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	for _, l := range []Level{LevelInfo, LevelSuccess, LevelWarning, LevelError} {
		if !l.Valid() {
			t.Errorf("%s が無効と判定されました", l)
		}
	}
	for _, l := range []Level{"", "Info", "critical"} {
		if l.Valid() {
			t.Errorf("%q が有効と判定されました", l)
		}
	}
	if got := LevelWarning.Label(); got != "Warning" {
		t.Errorf("Label: got %s, want Warning", got)
	}
}

func TestTimeSince(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ts   time.Time
		want string
	}{
		{now, "now"},
		{now.Add(-30 * time.Second), "30 seconds"},
		{now.Add(-5 * time.Minute), "5 minutes"},
		{now.Add(-3 * time.Hour), "3 hours"},
		{now.Add(-72 * time.Hour), "3 days"},
	}
	for _, tt := range tests {
		if got := timeSince(tt.ts, now); got != tt.want {
			t.Errorf("timeSince(%v): got %q, want %q", now.Sub(tt.ts), got, tt.want)
		}
	}
}
