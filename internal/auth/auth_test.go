package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/settings"
)

func newTestHandler(t *testing.T) (*Handler, *settings.Store) {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, "http://localhost:8000/auth/callback", "")
	h.randState = func() (string, error) { return "fixed-state", nil }
	return h, store
}

// begin runs HandleBegin and returns the redirect URL plus the state cookies.
func begin(t *testing.T, h *Handler) (*url.URL, []*http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleBegin(rec, httptest.NewRequest("GET", "/auth/linkedin", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parsing redirect: %v", err)
	}
	return loc, rec.Result().Cookies()
}

func callback(h *Handler, query string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/auth/callback?"+query, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.HandleCallback(rec, req)
	return rec
}

func TestBeginRedirectsToLinkedIn(t *testing.T) {
	h, store := newTestHandler(t)
	store.SaveCredentials("client-123", "secret", "")

	loc, cookies := begin(t, h)

	if loc.Host != "www.linkedin.com" || loc.Path != "/oauth/v2/authorization" {
		t.Errorf("unexpected authorize URL %q", loc.String())
	}
	q := loc.Query()
	if q.Get("response_type") != "code" {
		t.Errorf("expected response_type=code, got %q", q.Get("response_type"))
	}
	if q.Get("client_id") != "client-123" {
		t.Errorf("expected configured client ID, got %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://localhost:8000/auth/callback" {
		t.Errorf("unexpected redirect_uri %q", q.Get("redirect_uri"))
	}
	if q.Get("scope") != DefaultScope {
		t.Errorf("expected default scope, got %q", q.Get("scope"))
	}
	if q.Get("state") != "fixed-state" {
		t.Errorf("expected state token in URL, got %q", q.Get("state"))
	}
	if len(cookies) == 0 {
		t.Error("expected a state cookie to be set")
	}
}

func TestBeginRequiresClientID(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleBegin(rec, httptest.NewRequest("GET", "/auth/linkedin", nil))

	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/settings?err=") {
		t.Errorf("expected settings error redirect, got %q", loc)
	}
}

func TestCallbackSuccess(t *testing.T) {
	h, store := newTestHandler(t)
	store.SaveCredentials("client-123", "secret", "")

	_, cookies := begin(t, h)
	rec := callback(h, "code=auth-code&state=fixed-state", cookies)

	if loc := rec.Header().Get("Location"); loc != "/settings?connected=1" {
		t.Errorf("expected connected redirect, got %q", loc)
	}
	st, _ := store.Load()
	if !st.IsConnected {
		t.Error("expected connection flag set")
	}
}

func TestCallbackStateMismatch(t *testing.T) {
	h, store := newTestHandler(t)
	store.SaveCredentials("client-123", "secret", "")

	_, cookies := begin(t, h)
	rec := callback(h, "code=auth-code&state=forged", cookies)

	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "err=") || !strings.Contains(loc, "state") {
		t.Errorf("expected state mismatch error redirect, got %q", loc)
	}
	st, _ := store.Load()
	if st.IsConnected {
		t.Error("state mismatch must not mark the account connected")
	}
}

func TestCallbackWithoutStoredState(t *testing.T) {
	h, store := newTestHandler(t)
	store.SaveCredentials("client-123", "secret", "")

	// No begin leg, so no stored state cookie.
	rec := callback(h, "code=auth-code&state=fixed-state", nil)

	if !strings.Contains(rec.Header().Get("Location"), "err=") {
		t.Error("expected error redirect without stored state")
	}
	st, _ := store.Load()
	if st.IsConnected {
		t.Error("callback without stored state must not connect")
	}
}

func TestCallbackProviderError(t *testing.T) {
	h, store := newTestHandler(t)
	store.SaveCredentials("client-123", "secret", "")

	_, cookies := begin(t, h)
	rec := callback(h, "error=user_cancelled_login&error_description=User+cancelled", cookies)

	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "Connection+Failed") && !strings.Contains(loc, "Connection%20Failed") {
		t.Errorf("expected provider error surfaced, got %q", loc)
	}
	st, _ := store.Load()
	if st.IsConnected {
		t.Error("provider error must not mark the account connected")
	}
}

func TestCallbackStateIsOneTime(t *testing.T) {
	h, store := newTestHandler(t)
	store.SaveCredentials("client-123", "secret", "")

	_, cookies := begin(t, h)
	first := callback(h, "code=auth-code&state=fixed-state", cookies)
	if first.Header().Get("Location") != "/settings?connected=1" {
		t.Fatalf("expected first callback to succeed")
	}

	store.Disconnect()

	// Replaying with the original cookie must fail: the token was cleared.
	second := callback(h, "code=auth-code&state=fixed-state", first.Result().Cookies())
	if !strings.Contains(second.Header().Get("Location"), "err=") {
		t.Error("expected replayed callback to be rejected")
	}
	st, _ := store.Load()
	if st.IsConnected {
		t.Error("replayed callback must not reconnect")
	}
}
