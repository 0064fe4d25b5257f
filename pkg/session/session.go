// pkg/session/session.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/gopix/internal/logging"
	"github.com/fyrsmithlabs/gopix/internal/metrics"
	"github.com/fyrsmithlabs/gopix/pkg/config"
	"github.com/fyrsmithlabs/gopix/pkg/factory"
	"github.com/fyrsmithlabs/gopix/pkg/models"
	"github.com/fyrsmithlabs/gopix/pkg/registry"
	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

// Interface guards.
var (
	_ transport.Transport = (*Session)(nil)
	_ transport.Writer    = (*Session)(nil)
	_ transport.RawGetter = (*Session)(nil)
)

// Session is an authenticated connection to a PIX server.
type Session struct {
	apiURL   string
	appKey   string
	username string
	password string

	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration

	log     *logging.Logger
	metrics *metrics.Metrics

	reg *registry.Registry
	fac *factory.Factory
	ref *transport.Ref

	// now is replaceable in tests to drive session expiry.
	now func() time.Time

	mu        sync.Mutex
	expiresAt time.Time
	active    string
	closed    bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to a no-op logger so library
// embedding stays quiet unless the host opts in.
func WithLogger(log *logging.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRegistry replaces the type registry. The caller owns the provided
// registry completely; built-in models are not added to it. Without this
// option the session creates a registry pre-loaded via
// models.RegisterBuiltins, and further types can be layered on top through
// Registry() before building objects.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Session) {
		if reg != nil {
			s.reg = reg
		}
	}
}

// WithClock replaces the time source used for session expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a session from the given configuration. A nil cfg loads the
// default configuration (config file plus PIX_* environment variables). A
// hand-built cfg needs credentials only: policy fields left at zero take
// the loader defaults.
//
// All four credentials (api_url, app_key, username, password) must be set;
// otherwise New fails with ErrMissingCredentials naming the absent keys.
// No network traffic happens here: login is deferred to the first request.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		// Work on a copy so the caller's struct stays untouched.
		resolved := *cfg
		resolved.ApplyDefaults()
		cfg = &resolved
	}

	var missing []string
	for _, cred := range []struct{ key, value string }{
		{"api_url", cfg.APIURL},
		{"app_key", cfg.AppKey},
		{"username", cfg.Username},
		{"password", cfg.Password},
	} {
		if cred.value == "" {
			missing = append(missing, cred.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &Session{
		apiURL:   strings.TrimRight(cfg.APIURL, "/"),
		appKey:   cfg.AppKey,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxRetries: cfg.MaxRetries,
		backoff:    baseBackoff,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logging.Nop()
	}
	s.log = s.log.Named("session")
	if s.now == nil {
		s.now = time.Now
	}
	if s.reg == nil {
		s.reg = registry.New()
		models.RegisterBuiltins(s.reg)
	}

	s.ref = transport.NewRef(s)
	s.fac = factory.New(s.reg, s.ref, s.log)
	s.metrics = metrics.New()

	return s, nil
}

// Factory returns the object factory bound to this session.
func (s *Session) Factory() *factory.Factory {
	return s.fac
}

// Registry returns the type registry consulted during builds. Registrations
// made here apply to subsequent builds only.
func (s *Session) Registry() *registry.Registry {
	return s.reg
}

// Ref returns the revocable handle stamped onto objects built from this
// session's responses.
func (s *Session) Ref() *transport.Ref {
	return s.ref
}

// Login authenticates against the server. Requests trigger this lazily, so
// calling it directly is only needed to validate credentials up front.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transport.ErrDetached
	}
	return s.loginLocked(ctx)
}

// loginLocked performs PUT /session/ and reseeds the expiry. Callers hold mu.
func (s *Session) loginLocked(ctx context.Context) error {
	creds := map[string]string{"username": s.username, "password": s.password}
	_, status, err := s.do(ctx, http.MethodPut, "/session/", nil, creds, "", false)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogin, err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("%w: unexpected status %d", ErrLogin, status)
	}

	remaining, err := s.timeRemaining(ctx)
	if err != nil {
		return fmt.Errorf("fetching session expiry: %w", err)
	}
	s.expiresAt = s.now().Add(remaining)

	s.metrics.RecordLogin()
	s.log.Info(ctx, "logged in",
		zap.String("username", s.username),
		zap.Duration("expires_in", remaining))
	return nil
}

// TimeRemaining reports how long the server will keep the current session
// alive. It never triggers a login of its own.
func (s *Session) TimeRemaining(ctx context.Context) (time.Duration, error) {
	return s.timeRemaining(ctx)
}

func (s *Session) timeRemaining(ctx context.Context) (time.Duration, error) {
	data, _, err := s.do(ctx, http.MethodGet, "/session/time_remaining", nil, nil, "", false)
	if err != nil {
		return 0, err
	}
	var seconds int
	if err := json.Unmarshal(data, &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse time remaining: %w", err)
	}
	return time.Duration(seconds) * time.Second, nil
}

// ensureSession logs in when there is no live server session. It serializes
// concurrent callers so only one login happens per expiry.
func (s *Session) ensureSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transport.ErrDetached
	}
	if !s.expiresAt.IsZero() && s.now().Before(s.expiresAt) {
		return nil
	}
	return s.loginLocked(ctx)
}

// Close logs out and revokes the session handle, detaching every object
// built from this session. Calling Close again is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	loggedIn := !s.expiresAt.IsZero()
	s.active = ""
	s.mu.Unlock()

	s.ref.Invalidate()

	if !loggedIn {
		return nil
	}
	if _, _, err := s.do(ctx, http.MethodDelete, "/session/", nil, nil, "", false); err != nil {
		s.log.Warn(ctx, "logout request failed", zap.Error(err))
		return err
	}
	s.log.Info(ctx, "logged out", zap.String("username", s.username))
	return nil
}
