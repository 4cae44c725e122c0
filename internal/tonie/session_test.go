package tonie

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tcx/internal/shared"
	"golang.org/x/oauth2"
)

// identityServer is a fake token endpoint recording every form it receives.
type identityServer struct {
	server *httptest.Server

	mu    sync.Mutex
	forms []url.Values

	// respond maps the 1-based call number to a status and body. Defaults to
	// a fresh token when nil or when it returns an empty body.
	respond func(call int) (int, string)
}

func newIdentityServer(t *testing.T, respond func(call int) (int, string)) *identityServer {
	t.Helper()
	s := &identityServer{respond: respond}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		s.mu.Lock()
		s.forms = append(s.forms, r.PostForm)
		call := len(s.forms)
		s.mu.Unlock()

		status, body := 200, tokenBody("token-1", "refresh-1", 0)
		if s.respond != nil {
			status, body = s.respond(call)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *identityServer) form(call int) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[call-1]
}

func (s *identityServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}

func tokenBody(access, refresh string, expiresIn int) string {
	if expiresIn > 0 {
		return fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","expires_in":%d,"refresh_token":%q}`, access, expiresIn, refresh)
	}
	return fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","refresh_token":%q}`, access, refresh)
}

func noSleep(time.Duration) {}

func TestNextStep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		expiry       time.Time
		refreshToken string
		nilToken     bool
		want         authStep
	}{
		{name: "no token", nilToken: true, want: stepPassword},
		{name: "no expiry recorded", want: stepNone},
		{name: "plenty of time left", expiry: now.Add(time.Hour), refreshToken: "r", want: stepNone},
		{name: "exactly at buffer edge", expiry: now.Add(expiryBuffer), refreshToken: "r", want: stepRefresh},
		{name: "inside buffer with refresh token", expiry: now.Add(30 * time.Second), refreshToken: "r", want: stepRefresh},
		{name: "inside buffer without refresh token", expiry: now.Add(30 * time.Second), want: stepPassword},
		{name: "already expired", expiry: now.Add(-time.Minute), refreshToken: "r", want: stepRefresh},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tok := &oauth2.Token{AccessToken: "a", RefreshToken: tt.refreshToken, Expiry: tt.expiry}
			if tt.nilToken {
				tok = nil
			}
			if got := nextStep(tok, now); got != tt.want {
				t.Errorf("nextStep() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return start }

	t.Run("sends password grant", func(t *testing.T) {
		idp := newIdentityServer(t, nil)

		s, err := NewSession(context.Background(), "user@example.com", "hunter2", SessionOpts{
			TokenURL: idp.server.URL, Clock: clock, Sleep: noSleep,
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}

		form := idp.form(1)
		if got := form.Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want %q", got, "password")
		}
		if got := form.Get("client_id"); got != ClientID {
			t.Errorf("client_id = %q, want %q", got, ClientID)
		}
		if got := form.Get("scope"); got != "openid" {
			t.Errorf("scope = %q, want %q", got, "openid")
		}
		if got := form.Get("username"); got != "user@example.com" {
			t.Errorf("username = %q", got)
		}
		if got := form.Get("password"); got != "hunter2" {
			t.Errorf("password = %q", got)
		}
		if s.token.AccessToken != "token-1" {
			t.Errorf("AccessToken = %q, want %q", s.token.AccessToken, "token-1")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewSession(context.Background(), "", "", SessionOpts{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("error = %v, want %v", err, shared.ErrMissingCredentials)
		}
	})

	t.Run("rejected grant", func(t *testing.T) {
		idp := newIdentityServer(t, func(int) (int, string) {
			return 401, `{"error":"invalid_grant"}`
		})

		_, err := NewSession(context.Background(), "user", "wrong", SessionOpts{
			TokenURL: idp.server.URL, Clock: clock, Sleep: noSleep,
		})
		var rejected *TokenError
		if !errors.As(err, &rejected) {
			t.Fatalf("error = %v, want *TokenError", err)
		}
		if rejected.StatusCode != 401 {
			t.Errorf("StatusCode = %d, want 401", rejected.StatusCode)
		}
	})

	t.Run("default token lifetime", func(t *testing.T) {
		idp := newIdentityServer(t, nil)

		s, err := NewSession(context.Background(), "user", "pass", SessionOpts{
			TokenURL: idp.server.URL, Clock: clock, Sleep: noSleep,
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}
		if want := start.Add(defaultExpiresIn); !s.token.Expiry.Equal(want) {
			t.Errorf("Expiry = %v, want %v", s.token.Expiry, want)
		}
	})

	t.Run("explicit token lifetime", func(t *testing.T) {
		idp := newIdentityServer(t, func(int) (int, string) {
			return 200, tokenBody("t", "r", 120)
		})

		s, err := NewSession(context.Background(), "user", "pass", SessionOpts{
			TokenURL: idp.server.URL, Clock: clock, Sleep: noSleep,
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}
		if want := start.Add(120 * time.Second); !s.token.Expiry.Equal(want) {
			t.Errorf("Expiry = %v, want %v", s.token.Expiry, want)
		}
	})
}

func TestSessionDo(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newAPIServer := func(t *testing.T, wantToken string) *httptest.Server {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer "+wantToken {
				t.Errorf("Authorization = %q, want bearer %q", got, wantToken)
			}
			fmt.Fprint(w, `{}`)
		}))
		t.Cleanup(server.Close)
		return server
	}

	t.Run("valid token passes through once", func(t *testing.T) {
		idp := newIdentityServer(t, nil)
		api := newAPIServer(t, "token-1")

		now := start
		s, err := NewSession(context.Background(), "user", "pass", SessionOpts{
			TokenURL: idp.server.URL, Clock: func() time.Time { return now }, Sleep: noSleep,
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}

		resp, err := s.Request(context.Background(), http.MethodGet, api.URL, nil)
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		resp.Body.Close()

		if idp.calls() != 1 {
			t.Errorf("token endpoint calls = %d, want 1", idp.calls())
		}
	})

	t.Run("refreshes inside expiry buffer", func(t *testing.T) {
		idp := newIdentityServer(t, func(call int) (int, string) {
			if call == 1 {
				return 200, tokenBody("token-1", "refresh-1", 120)
			}
			return 200, tokenBody("token-2", "refresh-2", 120)
		})
		api := newAPIServer(t, "token-2")

		now := start
		s, err := NewSession(context.Background(), "user", "pass", SessionOpts{
			TokenURL: idp.server.URL, Clock: func() time.Time { return now }, Sleep: noSleep,
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}

		// 50s of the 120s lifetime remain, inside the 60s buffer.
		now = start.Add(70 * time.Second)

		resp, err := s.Request(context.Background(), http.MethodGet, api.URL, nil)
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		resp.Body.Close()

		if idp.calls() != 2 {
			t.Fatalf("token endpoint calls = %d, want 2", idp.calls())
		}
		form := idp.form(2)
		if got := form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want %q", got, "refresh_token")
		}
		if got := form.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token = %q, want %q", got, "refresh-1")
		}
		if got := s.token.RefreshToken; got != "refresh-2" {
			t.Errorf("RefreshToken = %q, want %q", got, "refresh-2")
		}
		if want := now.Add(120 * time.Second); !s.token.Expiry.Equal(want) {
			t.Errorf("Expiry = %v, want %v", s.token.Expiry, want)
		}
	})

	t.Run("rejected refresh falls back to password grant", func(t *testing.T) {
		idp := newIdentityServer(t, func(call int) (int, string) {
			switch call {
			case 1:
				return 200, tokenBody("token-1", "refresh-1", 120)
			case 2:
				return 400, `{"error":"invalid_grant"}`
			default:
				return 200, tokenBody("token-3", "refresh-3", 120)
			}
		})
		api := newAPIServer(t, "token-3")

		now := start
		s, err := NewSession(context.Background(), "user", "pass", SessionOpts{
			TokenURL: idp.server.URL, Clock: func() time.Time { return now }, Sleep: noSleep,
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}

		now = start.Add(2 * time.Minute)

		resp, err := s.Request(context.Background(), http.MethodGet, api.URL, nil)
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		resp.Body.Close()

		if idp.calls() != 3 {
			t.Fatalf("token endpoint calls = %d, want 3", idp.calls())
		}
		if got := idp.form(2).Get("grant_type"); got != "refresh_token" {
			t.Errorf("call 2 grant_type = %q, want %q", got, "refresh_token")
		}
		if got := idp.form(3).Get("grant_type"); got != "password" {
			t.Errorf("call 3 grant_type = %q, want %q", got, "password")
		}
		if s.token.AccessToken != "token-3" {
			t.Errorf("AccessToken = %q, want %q", s.token.AccessToken, "token-3")
		}
	})

	t.Run("refresh transport failure propagates without re-auth", func(t *testing.T) {
		idp := newIdentityServer(t, func(int) (int, string) {
			return 200, tokenBody("token-1", "refresh-1", 120)
		})

		now := start
		s, err := NewSession(context.Background(), "user", "pass", SessionOpts{
			TokenURL: idp.server.URL, Clock: func() time.Time { return now }, Sleep: noSleep,
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}

		idp.server.Close()
		now = start.Add(2 * time.Minute)

		_, err = s.Request(context.Background(), http.MethodGet, "http://127.0.0.1:1/unreachable", nil)
		if err == nil {
			t.Fatal("expected error after token endpoint became unreachable")
		}
		var rejected *TokenError
		if errors.As(err, &rejected) {
			t.Errorf("transport failure surfaced as *TokenError: %v", err)
		}
		if idp.calls() != 1 {
			t.Errorf("token endpoint calls = %d, want 1", idp.calls())
		}
	})
}
