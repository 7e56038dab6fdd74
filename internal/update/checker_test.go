package update

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestChecker(t *testing.T, body string, status int) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/app/releases/latest" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
			t.Errorf("unexpected Accept header %q", got)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	checker := NewChecker("owner/app", slog.New(slog.NewTextHandler(io.Discard, nil)))
	checker.APIBase = srv.URL
	return checker
}

func TestCheckNewerRelease(t *testing.T) {
	checker := newTestChecker(t, `{"tag_name":"v7","assets":[{"browser_download_url":"https://example.invalid/app.apk"}]}`, http.StatusOK)

	release, newer, err := checker.Check(context.Background(), 5)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !newer {
		t.Fatal("expected newer release")
	}
	if release.Version != 7 || release.Tag != "v7" || release.DownloadURL != "https://example.invalid/app.apk" {
		t.Fatalf("unexpected release %+v", release)
	}
}

func TestCheckSameVersionOrNoAssets(t *testing.T) {
	checker := newTestChecker(t, `{"tag_name":"v5","assets":[{"browser_download_url":"x"}]}`, http.StatusOK)
	if _, newer, err := checker.Check(context.Background(), 5); err != nil || newer {
		t.Fatalf("Check() newer=%v err=%v, want false/nil", newer, err)
	}

	checker = newTestChecker(t, `{"tag_name":"v9","assets":[]}`, http.StatusOK)
	if _, newer, err := checker.Check(context.Background(), 5); err != nil || newer {
		t.Fatalf("Check() without assets newer=%v err=%v", newer, err)
	}
}

func TestCheckErrors(t *testing.T) {
	checker := newTestChecker(t, `{"tag_name":"nightly"}`, http.StatusOK)
	if _, _, err := checker.Check(context.Background(), 1); !errors.Is(err, ErrNoRelease) {
		t.Fatalf("expected ErrNoRelease, got %v", err)
	}

	checker = newTestChecker(t, `rate limited`, http.StatusForbidden)
	if _, _, err := checker.Check(context.Background(), 1); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag     string
		want    int
		wantErr bool
	}{
		{"v5", 5, false},
		{"12", 12, false},
		{" v3 ", 3, false},
		{"v1.2", 0, true},
		{"", 0, true},
		{"v-1", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseVersion(tc.tag)
		if tc.wantErr != (err != nil) || got != tc.want {
			t.Fatalf("ParseVersion(%q) = (%d, %v)", tc.tag, got, err)
		}
	}
}
