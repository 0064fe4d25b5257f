// pkg/session/session_test.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/gopix/pkg/config"
	"github.com/fyrsmithlabs/gopix/pkg/models"
	"github.com/fyrsmithlabs/gopix/pkg/object"
	"github.com/fyrsmithlabs/gopix/pkg/registry"
	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

// pixServer emulates the server endpoints the session talks to: login,
// expiry, logout, project activation, and arbitrary canned resources.
type pixServer struct {
	mu            sync.Mutex
	password      string
	timeRemaining int
	logins        int
	logouts       int
	activated     []string
	responses     map[string]string // "METHOD /path[?query]" -> body
	statuses      map[string]int    // "METHOD /path" -> status override
	failures      map[string]int    // "METHOD /path" -> 500s served before success
	requests      []string          // every request as "METHOD /path[?query]"
	headers       []http.Header
	bodies        map[string]string // "METHOD /path" -> last request body
}

func newPixServer() *pixServer {
	return &pixServer{
		password:      "secret",
		timeRemaining: 3600,
		responses:     map[string]string{},
		statuses:      map[string]int{},
		failures:      map[string]int{},
		bodies:        map[string]string{},
	}
}

func (ps *pixServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		defer ps.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		full := key
		if r.URL.RawQuery != "" {
			full += "?" + r.URL.RawQuery
		}
		ps.requests = append(ps.requests, full)
		ps.headers = append(ps.headers, r.Header.Clone())

		body, _ := io.ReadAll(r.Body)
		if len(body) > 0 {
			ps.bodies[key] = string(body)
		}

		w.Header().Set("Content-Type", "application/json;charset=utf-8")

		switch key {
		case "PUT /session/":
			var creds map[string]string
			_ = json.Unmarshal(body, &creds)
			if creds["password"] != ps.password {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"type":"unauthorized"}`)
				return
			}
			ps.logins++
			http.SetCookie(w, &http.Cookie{Name: "pix_session", Value: "tok-1"})
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)
			return
		case "GET /session/time_remaining":
			fmt.Fprintf(w, "%d", ps.timeRemaining)
			return
		case "DELETE /session/":
			ps.logouts++
			fmt.Fprint(w, `{}`)
			return
		case "PUT /session/active_project":
			var payload map[string]string
			_ = json.Unmarshal(body, &payload)
			ps.activated = append(ps.activated, payload["id"])
			fmt.Fprint(w, `{}`)
			return
		}

		if n := ps.failures[key]; n > 0 {
			ps.failures[key] = n - 1
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"type":"server_error"}`)
			return
		}
		if status, ok := ps.statuses[key]; ok {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"type":"bad_request","user_message":"rejected"}`)
			return
		}
		if resp, ok := ps.responses[full]; ok {
			fmt.Fprint(w, resp)
			return
		}
		if resp, ok := ps.responses[key]; ok {
			fmt.Fprint(w, resp)
			return
		}

		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"type":"not_found","user_message":"no such resource"}`)
	}
}

func (ps *pixServer) requestLog() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.requests...)
}

func (ps *pixServer) countRequests(key string) int {
	n := 0
	for _, r := range ps.requestLog() {
		if r == key {
			n++
		}
	}
	return n
}

// headersFor returns the request headers of every request whose log entry
// starts with prefix, in arrival order.
func (ps *pixServer) headersFor(prefix string) []http.Header {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	var matched []http.Header
	for i, r := range ps.requests {
		if strings.HasPrefix(r, prefix) {
			matched = append(matched, ps.headers[i])
		}
	}
	return matched
}

func (ps *pixServer) loginCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.logins
}

func (ps *pixServer) logoutCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.logouts
}

func (ps *pixServer) body(key string) string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.bodies[key]
}

func (ps *pixServer) activatedProjects() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.activated...)
}

// fakeClock drives session expiry without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		APIURL:     apiURL,
		AppKey:     "app-key-1",
		Username:   "ada",
		Password:   "secret",
		Timeout:    5 * time.Second,
		RateLimit:  1000,
		RateBurst:  1000,
		MaxRetries: 2,
	}
}

func newServerSession(t *testing.T, ps *pixServer, opts ...Option) *Session {
	t.Helper()
	srv := httptest.NewServer(ps.handler())
	t.Cleanup(srv.Close)

	s, err := New(testConfig(srv.URL), opts...)
	require.NoError(t, err)
	s.backoff = time.Millisecond
	return s
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(&config.Config{
		APIURL:   "https://project.pixsystem.com/api",
		Username: "ada",
	})
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.ErrorContains(t, err, "app_key, password")
}

func TestNew_CredentialsOnlyConfig(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /projects"] = `[{"class":"PIXProject","id":"p1","label":"Show Alpha"}]`
	srv := httptest.NewServer(ps.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIURL:   srv.URL,
		AppKey:   "app-key-1",
		Username: "ada",
		Password: "secret",
	}
	s, err := New(cfg)
	require.NoError(t, err)

	// Zero policy fields took the loader defaults, and the caller's struct
	// was left alone.
	assert.Equal(t, 30*time.Second, s.httpClient.Timeout)
	assert.Equal(t, 5, s.limiter.Burst())
	assert.Equal(t, 3, s.maxRetries)
	assert.Zero(t, cfg.RateBurst)

	projects, err := s.Projects(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p1", projects[0].ID())
}

func TestSession_Login(t *testing.T) {
	ps := newPixServer()
	s := newServerSession(t, ps)

	require.NoError(t, s.Login(context.Background()))

	assert.Equal(t, 1, ps.loginCount())
	assert.Equal(t, []string{"PUT /session/", "GET /session/time_remaining"}, ps.requestLog())
	assert.JSONEq(t, `{"username":"ada","password":"secret"}`, ps.body("PUT /session/"))

	headers := ps.headersFor("PUT /session/")
	require.Len(t, headers, 1)
	assert.Equal(t, "app-key-1", headers[0].Get("X-PIX-App-Key"))
	assert.Equal(t, "application/json;charset=utf-8", headers[0].Get("Content-Type"))
	assert.Equal(t, "application/json;charset=utf-8", headers[0].Get("Accept"))
	_, err := uuid.Parse(headers[0].Get("X-PIX-Request-Id"))
	assert.NoError(t, err, "request id should be a uuid")
}

func TestSession_LoginRejected(t *testing.T) {
	ps := newPixServer()
	srv := httptest.NewServer(ps.handler())
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.Password = "wrong"
	s, err := New(cfg)
	require.NoError(t, err)

	err = s.Login(context.Background())
	require.ErrorIs(t, err, ErrLogin)
	assert.True(t, transport.IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, 0, ps.loginCount())
}

func TestSession_LazyLogin(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /items/1"] = `{"class":"PIXClip","id":"1"}`
	s := newServerSession(t, ps)

	ctx := context.Background()
	_, err := s.Request(ctx, http.MethodGet, "/items/1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"PUT /session/",
		"GET /session/time_remaining",
		"GET /items/1",
	}, ps.requestLog())

	// The follow-up request rides the live session.
	_, err = s.Request(ctx, http.MethodGet, "/items/1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ps.loginCount())
}

func TestSession_ReloginAfterExpiry(t *testing.T) {
	ps := newPixServer()
	ps.timeRemaining = 60
	ps.responses["GET /items/1"] = `{"class":"PIXClip","id":"1"}`
	clk := newFakeClock()
	s := newServerSession(t, ps, WithClock(clk.Now))

	ctx := context.Background()
	_, err := s.Request(ctx, http.MethodGet, "/items/1", nil)
	require.NoError(t, err)
	require.Equal(t, 1, ps.loginCount())

	clk.Advance(2 * time.Minute)

	_, err = s.Request(ctx, http.MethodGet, "/items/1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ps.loginCount())
}

func TestSession_TimeRemaining(t *testing.T) {
	ps := newPixServer()
	ps.timeRemaining = 1234
	s := newServerSession(t, ps)

	remaining, err := s.TimeRemaining(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1234*time.Second, remaining)
	assert.Equal(t, 0, ps.loginCount(), "TimeRemaining must not trigger a login")
}

func TestSession_GetObjectifies(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /items/c1"] = `{"class":"PIXClip","id":"c1","label":"Shot 12"}`
	s := newServerSession(t, ps)

	result, err := s.Get(context.Background(), "/items/c1", nil)
	require.NoError(t, err)

	obj, ok := result.(*object.Object)
	require.True(t, ok, "mapping with a class discriminator should objectify")
	assert.Equal(t, "PIXClip", obj.TypeName())
	assert.Equal(t, "c1", obj.ID())
	assert.IsType(t, &models.Clip{}, obj.Extension())

	tr, err := obj.Transport()
	require.NoError(t, err)
	assert.Same(t, s, tr.(*Session))
}

func TestSession_WithRegistryOwnership(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /items/c1"] = `{"class":"PIXClip","id":"c1"}`
	reg := registry.New()
	s := newServerSession(t, ps, WithRegistry(reg))

	require.Same(t, reg, s.Registry())

	// No built-ins on a caller-owned registry: the class stays unextended.
	result, err := s.Get(context.Background(), "/items/c1", nil)
	require.NoError(t, err)
	obj, ok := result.(*object.Object)
	require.True(t, ok)
	assert.Equal(t, "PIXClip", obj.TypeName())
	assert.Nil(t, obj.Extension())
}

func TestSession_WriteVerbs(t *testing.T) {
	ps := newPixServer()
	ps.responses["PUT /items/9"] = `{"ok":true}`
	ps.responses["POST /notes/"] = `{"id":"n1"}`
	ps.responses["DELETE /messages/inbox/m1"] = `{}`
	s := newServerSession(t, ps)
	ctx := context.Background()

	raw, err := s.Put(ctx, "/items/9", map[string]any{"flags": map[string]string{"viewed": "true"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.JSONEq(t, `{"flags":{"viewed":"true"}}`, ps.body("PUT /items/9"))

	raw, err = s.Post(ctx, "/notes/", map[string]string{"text": "looks good"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1"}`, string(raw))
	assert.JSONEq(t, `{"text":"looks good"}`, ps.body("POST /notes/"))

	raw, err = s.Delete(ctx, "/messages/inbox/m1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestSession_GetRawAcceptOverride(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /media/n1/original"] = "png-bytes"
	s := newServerSession(t, ps)

	data, err := s.GetRaw(context.Background(), "/media/n1/original", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	headers := ps.headersFor("GET /media/n1/original")
	require.Len(t, headers, 1)
	assert.Equal(t, "image/png", headers[0].Get("Accept"))
}

func TestSession_AbsoluteURLPassthrough(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /linked/item"] = `{"ok":1}`
	srv := httptest.NewServer(ps.handler())
	t.Cleanup(srv.Close)

	s, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = s.Request(context.Background(), http.MethodGet, srv.URL+"/linked/item", nil)
	require.NoError(t, err)
	assert.Contains(t, ps.requestLog(), "GET /linked/item")
}

func TestSession_NotFound(t *testing.T) {
	ps := newPixServer()
	s := newServerSession(t, ps)

	_, err := s.Get(context.Background(), "/missing", nil)
	require.Error(t, err)
	assert.True(t, transport.IsStatus(err, http.StatusNotFound))

	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "/missing", terr.Path)
	assert.Equal(t, "Not Found", terr.Reason)
	assert.Contains(t, string(terr.Body), "not_found")
	assert.Equal(t, 1, ps.countRequests("GET /missing"), "404 must not be retried")
}

func TestSession_RetriesTransientFailures(t *testing.T) {
	ps := newPixServer()
	ps.failures["GET /flaky"] = 2
	ps.responses["GET /flaky"] = `{"ok":true}`
	s := newServerSession(t, ps)

	raw, err := s.Request(context.Background(), http.MethodGet, "/flaky", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, 3, ps.countRequests("GET /flaky"))

	// All attempts carry the same request id for server-side correlation.
	headers := ps.headersFor("GET /flaky")
	require.Len(t, headers, 3)
	id := headers[0].Get("X-PIX-Request-Id")
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	for _, h := range headers[1:] {
		assert.Equal(t, id, h.Get("X-PIX-Request-Id"))
	}
}

func TestSession_RetriesExhausted(t *testing.T) {
	ps := newPixServer()
	ps.failures["GET /down"] = 10
	s := newServerSession(t, ps)

	_, err := s.Request(context.Background(), http.MethodGet, "/down", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "max retries exceeded")
	assert.True(t, transport.IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, 3, ps.countRequests("GET /down"), "initial attempt plus two retries")
}

func TestSession_NoRetryOnClientError(t *testing.T) {
	ps := newPixServer()
	ps.statuses["PUT /items/9"] = http.StatusBadRequest
	s := newServerSession(t, ps)

	_, err := s.Put(context.Background(), "/items/9", map[string]string{"bogus": "field"})
	require.Error(t, err)
	assert.True(t, transport.IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, 1, ps.countRequests("PUT /items/9"))
}

func TestSession_Projects(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /projects"] = `[
		{"class":"PIXProject","id":"p1","label":"Show Alpha"},
		{"class":"PIXProject","id":"p2","label":"Show Beta"},
		42
	]`
	s := newServerSession(t, ps)

	projects, err := s.Projects(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, projects, 2, "non-object elements are dropped")
	assert.Equal(t, "p1", projects[0].ID())
	assert.Equal(t, "p2", projects[1].ID())
}

func TestSession_ProjectsLimit(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /projects?limit=5"] = `[{"class":"PIXProject","id":"p1","label":"Show Alpha"}]`
	s := newServerSession(t, ps)

	projects, err := s.Projects(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Contains(t, ps.requestLog(), "GET /projects?limit=5")
}

func TestSession_ProjectsBadRequest(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /projects"] = `{"type":"bad_request","user_message":"app key invalid"}`
	s := newServerSession(t, ps)

	_, err := s.Projects(context.Background(), 0)
	require.ErrorIs(t, err, ErrBadRequest)
	assert.ErrorContains(t, err, "app key invalid")
}

func TestSession_LoadProject(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /projects"] = `[
		{"class":"PIXProject","id":"p1","label":"Show Alpha"},
		{"class":"PIXProject","id":"p2","label":"Show Beta"}
	]`
	s := newServerSession(t, ps)
	ctx := context.Background()

	byLabel, err := s.LoadProject(ctx, "Show Beta")
	require.NoError(t, err)
	assert.Equal(t, "p2", byLabel.ID())
	assert.IsType(t, &models.Project{}, byLabel.Extension())
	assert.Equal(t, "p2", s.CurrentProject())
	assert.JSONEq(t, `{"id":"p2"}`, ps.body("PUT /session/active_project"))

	byID, err := s.LoadProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", byID.ID())
	assert.Equal(t, []string{"p2", "p1"}, ps.activatedProjects())
	assert.Equal(t, "p1", s.CurrentProject())
}

func TestSession_LoadProjectNotFound(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /projects"] = `[{"class":"PIXProject","id":"p1","label":"Show Alpha"}]`
	s := newServerSession(t, ps)

	_, err := s.LoadProject(context.Background(), "Show Gamma")
	require.ErrorIs(t, err, ErrProjectNotFound)
	assert.ErrorContains(t, err, "Show Gamma")

	_, err = s.LoadProject(context.Background(), "")
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestSession_Close(t *testing.T) {
	ps := newPixServer()
	ps.responses["GET /items/c1"] = `{"class":"PIXClip","id":"c1"}`
	s := newServerSession(t, ps)
	ctx := context.Background()

	result, err := s.Get(ctx, "/items/c1", nil)
	require.NoError(t, err)
	obj := result.(*object.Object)

	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, ps.logoutCount())
	assert.Contains(t, ps.requestLog(), "DELETE /session/")

	// Closed sessions refuse further work and detach their objects.
	_, err = s.Request(ctx, http.MethodGet, "/items/c1", nil)
	assert.ErrorIs(t, err, transport.ErrDetached)
	assert.ErrorIs(t, s.Login(ctx), transport.ErrDetached)
	_, err = obj.Transport()
	assert.ErrorIs(t, err, transport.ErrDetached)

	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, ps.logoutCount(), "second Close is a no-op")
}

func TestSession_CloseWithoutLogin(t *testing.T) {
	ps := newPixServer()
	s := newServerSession(t, ps)

	require.NoError(t, s.Close(context.Background()))
	assert.Empty(t, ps.requestLog(), "never logged in, nothing to log out")
}
