// go test github.com/homemade/rcsync/sync -v
package sync

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"
)

const (
	testUsername = "wizard"
	testPassword = "xyzzy"
)

// fakeSite imitates a remote site: a login form that sets a session
// cookie, an upload form that requires it, and the stored rcfile.
type fakeSite struct {
	t             *testing.T
	server        *httptest.Server
	usernameField string
	passwordField string

	mu            gosync.Mutex
	stored        []byte
	hasStored     bool
	fetchStatuses []int // consumed one per fetch, 0 serves the stored rcfile
	loginStatus   int
	uploadStatus  int
	transform     func([]byte) []byte
	delay         time.Duration
	calls         map[string]int
}

func newFakeSite(t *testing.T, usernameField, passwordField string) *fakeSite {
	t.Helper()
	f := &fakeSite{
		t:             t,
		usernameField: usernameField,
		passwordField: passwordField,
		calls:         make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSite) store(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = []byte(content)
	f.hasStored = true
}

func (f *fakeSite) storedContent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.stored)
}

func (f *fakeSite) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// profile describes the fake site the way the built-in profiles describe the real ones.
func (f *fakeSite) profile(id SiteID) SiteProfile {
	return SiteProfile{
		ID:   id,
		Name: string(id) + ".test",
		Login: FormEndpoint{
			URL:    f.server.URL + "/login.php",
			Fields: FieldNames{Username: f.usernameField, Password: f.passwordField},
			Extra:  map[string]string{"submit": "Login"},
		},
		Fetch: FetchEndpoint{
			URL:       f.server.URL + "/userdata/{letter}/{user}/{user}.{tag}rc",
			Versioned: true,
		},
		Upload: FormEndpoint{
			URL:    f.server.URL + "/rcedit.php",
			Params: map[string]string{"nh": "{tag}"},
			Fields: FieldNames{Content: "rcdata"},
			Extra:  map[string]string{"submit": "Save"},
		},
	}
}

func (f *fakeSite) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delay := f.delay
	f.mu.Unlock()
	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/login.php":
		f.calls["login"]++
		if f.loginStatus != 0 {
			w.WriteHeader(f.loginStatus)
			return
		}
		if r.Method != http.MethodPost ||
			r.PostFormValue(f.usernameField) != testUsername ||
			r.PostFormValue(f.passwordField) != testPassword ||
			r.PostFormValue("submit") != "Login" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		w.WriteHeader(http.StatusOK)

	case r.URL.Path == "/rcedit.php":
		f.calls["upload"]++
		if f.uploadStatus != 0 {
			w.WriteHeader(f.uploadStatus)
			return
		}
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "ok" || r.URL.Query().Get("nh") != "nh364" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		content := []byte(r.PostFormValue("rcdata"))
		if f.transform != nil {
			content = f.transform(content)
		}
		f.stored = content
		f.hasStored = true
		w.WriteHeader(http.StatusOK)

	case strings.HasPrefix(r.URL.Path, "/userdata/"):
		f.calls["fetch"]++
		if len(f.fetchStatuses) > 0 {
			status := f.fetchStatuses[0]
			f.fetchStatuses = f.fetchStatuses[1:]
			if status != 0 {
				w.WriteHeader(status)
				return
			}
		}
		if r.URL.Path != "/userdata/w/wizard/wizard.nh364rc" || !f.hasStored {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(f.stored)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// failingTransport fails requests whose path is failPath and passes the rest through.
// With failOn set only the failOn-th request to failPath fails.
type failingTransport struct {
	failPath string
	failOn   int

	mu   gosync.Mutex
	seen int
}

func (ft *failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Path == ft.failPath {
		ft.mu.Lock()
		ft.seen++
		n := ft.seen
		ft.mu.Unlock()
		if ft.failOn == 0 || ft.failOn == n {
			return nil, errors.New("connection reset by peer")
		}
	}
	return http.DefaultTransport.RoundTrip(req)
}
