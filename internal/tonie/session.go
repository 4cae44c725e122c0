package tonie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tcx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// TokenURL is the Tonie Cloud identity provider's token endpoint.
	TokenURL = "https://login.tonies.com/auth/realms/tonies/protocol/openid-connect/token"
	// ClientID is the OAuth2 client id registered for the my-tonies app.
	ClientID = "my-tonies"
	// BaseURL is the Tonie Cloud API base.
	BaseURL = "https://api.tonie.cloud/v2"
)

const (
	// expiryBuffer is subtracted from the token's deadline so a refresh fires
	// before requests start failing with 401s.
	expiryBuffer     = 60 * time.Second
	defaultExpiresIn = 3600 * time.Second
	tokenTimeout     = 30 * time.Second
	requestTimeout   = 30 * time.Second
)

// authStep is the action the session must take before dispatching a request.
type authStep int

const (
	stepNone authStep = iota
	stepRefresh
	stepPassword
)

// nextStep decides the refresh/reauth action for the current token at the
// given instant. Pure so the decision tree is testable without HTTP or timers.
func nextStep(tok *oauth2.Token, now time.Time) authStep {
	switch {
	case tok == nil:
		return stepPassword
	case tok.Expiry.IsZero():
		return stepNone
	case now.Before(tok.Expiry.Add(-expiryBuffer)):
		return stepNone
	case tok.RefreshToken != "":
		return stepRefresh
	default:
		return stepPassword
	}
}

// Session is an HTTP session that transparently keeps an OAuth2 bearer token
// valid for the Tonie Cloud API. Token validity is checked lazily at the
// start of every request; there is no background refresh timer. A mutex makes
// the check-and-refresh sequence atomic so overlapping requests from worker
// goroutines never fire duplicate refreshes.
type Session struct {
	username string
	password string

	mu    sync.Mutex
	token *oauth2.Token

	client      *http.Client
	tokenClient *http.Client
	limiter     *rate.Limiter
	logger      *log.Logger
	now         func() time.Time

	tokenURL string
	clientID string
}

// SessionOpts contains optional overrides for NewSession. The zero value
// selects production defaults; tests inject endpoints, clocks, and sleeps.
type SessionOpts struct {
	TokenURL    string
	ClientID    string
	HTTPClient  *http.Client // API calls; defaults to a retrying client
	TokenClient *http.Client // token endpoint calls; defaults to a retrying client with a 30s timeout
	Policy      *RetryPolicy
	Limiter     *rate.Limiter
	Logger      *log.Logger
	Clock       func() time.Time
	Sleep       func(time.Duration) // backoff sleeps in the retry transport
}

// NewSession authenticates against the identity provider with the password
// grant and returns a session holding the resulting token. A rejected grant
// surfaces as a *TokenError; transport failures propagate unmodified. Both
// are fatal to session creation.
func NewSession(ctx context.Context, username, password string, opts SessionOpts) (*Session, error) {
	if username == "" || password == "" {
		return nil, shared.ErrMissingCredentials
	}

	policy := DefaultRetryPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	transport := newRetryTransport(nil, policy, opts.Sleep)

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Transport: transport, Timeout: requestTimeout}
	}
	tokenClient := opts.TokenClient
	if tokenClient == nil {
		tokenClient = &http.Client{Transport: transport, Timeout: tokenTimeout}
	}

	limiter := opts.Limiter
	if limiter == nil {
		// The password grant endpoint is rate limited server-side; keep
		// client-side pressure off it.
		limiter = rate.NewLimiter(rate.Every(time.Second), 5)
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL
	}
	clientID := opts.ClientID
	if clientID == "" {
		clientID = ClientID
	}

	s := &Session{
		username:    username,
		password:    password,
		client:      client,
		tokenClient: tokenClient,
		limiter:     limiter,
		logger:      logger,
		now:         clock,
		tokenURL:    tokenURL,
		clientID:    clientID,
	}

	if err := s.passwordGrant(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Request builds an HTTP request and dispatches it with a valid bearer token
// attached. Non-2xx responses are returned as ordinary responses; classifying
// them is the API client's job.
func (s *Session) Request(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.Do(req)
}

// Do ensures the token is valid, attaches it, and dispatches req through the
// retrying transport.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	if err := s.ensureValid(req.Context()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	s.mu.Unlock()

	return s.client.Do(req)
}

// ensureValid refreshes or re-acquires the token when it is inside the expiry
// buffer. A refresh rejected by the identity provider clears the stored
// refresh token and falls through to a full password re-authentication within
// the same call; only when that also fails does the caller see an error.
func (s *Session) ensureValid(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch nextStep(s.token, s.now()) {
	case stepNone:
		return nil
	case stepRefresh:
		err := s.refreshGrant(ctx)
		if err == nil {
			return nil
		}
		var rejected *TokenError
		if !errors.As(err, &rejected) {
			return err
		}
		s.logger.Debug("token refresh rejected, re-authenticating", "status", rejected.StatusCode)
		s.token.RefreshToken = ""
		return s.passwordGrant(ctx)
	default:
		s.logger.Debug("token expired or expiring soon, re-authenticating")
		return s.passwordGrant(ctx)
	}
}

func (s *Session) passwordGrant(ctx context.Context) error {
	s.logger.Debug("acquiring access token")
	return s.postToken(ctx, url.Values{
		"grant_type": {"password"},
		"client_id":  {s.clientID},
		"scope":      {"openid"},
		"username":   {s.username},
		"password":   {s.password},
	})
}

func (s *Session) refreshGrant(ctx context.Context) error {
	s.logger.Debug("refreshing access token")
	return s.postToken(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {s.clientID},
		"refresh_token": {s.token.RefreshToken},
	})
}

func (s *Session) postToken(ctx context.Context, form url.Values) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.tokenClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TokenError{StatusCode: resp.StatusCode, Body: body}
	}

	return s.storeToken(body, s.now())
}

// storeToken parses a token endpoint response and records the new token with
// an absolute deadline. The deadline is always receipt time plus expires_in
// (default 3600s) so repeated refreshes never accumulate clock drift.
func (s *Session) storeToken(body []byte, receivedAt time.Time) error {
	var payload struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("token response missing access_token")
	}

	lifetime := defaultExpiresIn
	if payload.ExpiresIn > 0 {
		lifetime = time.Duration(payload.ExpiresIn) * time.Second
	}

	s.token = &oauth2.Token{
		AccessToken:  payload.AccessToken,
		TokenType:    payload.TokenType,
		RefreshToken: payload.RefreshToken,
		Expiry:       receivedAt.Add(lifetime),
	}
	s.logger.Debug("token acquired", "lifetime", lifetime)
	return nil
}
