// go test github.com/homemade/rcsync/cmd/rcsync/app -v
package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/homemade/rcsync/sync"
)

// fakeServers serves both built-in sites from one httptest server.
type fakeServers struct {
	mu      gosync.Mutex
	stored  map[string]string // fetch path -> rcfile
	uploads int
}

var uploadToFetchPath = map[string]string{
	"/nethack/webconf/nhrc_edit.php": "/nethack/userdata/w/wizard/wizard.nh364rc",
	"/nh/nethack/rcedit.php":         "/userdata/w/wizard/nethack/wizard.nhrc",
}

func (f *fakeServers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.URL.Path {
	case "/nethack/login.php":
		if r.PostFormValue("nao_password") != "xyzzy" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
	case "/nh/nethack/login.php":
		if r.PostFormValue("password") != "xyzzy" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
	case "/nethack/webconf/nhrc_edit.php", "/nh/nethack/rcedit.php":
		f.uploads++
		f.stored[uploadToFetchPath[r.URL.Path]] = r.PostFormValue("rcdata")
	default:
		content, ok := f.stored[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(content))
	}
}

func (f *fakeServers) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

func setup(t *testing.T, rcfile string) (*fakeServers, string) {
	t.Helper()
	fake := &fakeServers{stored: make(map[string]string)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	t.Setenv(sync.EndpointsEnvVar, `{"NAO_URL":"`+srv.URL+`","HDF_URL":"`+srv.URL+`","HDF_WWW_URL":"`+srv.URL+`"}`)
	t.Setenv("RCSYNC_PASSWORD", "")

	name := filepath.Join(t.TempDir(), "nethackrc")
	require.NoError(t, os.WriteFile(name, []byte(rcfile), 0o600))
	return fake, name
}

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_UploadsThenUpToDate(t *testing.T) {
	fake, rcfile := setup(t, "OPTIONS=color\n")

	_, stderr, err := execute(t, "", "--rcfile", rcfile, "wizard", "xyzzy")
	require.NoError(t, err)
	assert.Equal(t, "updating nao...done\nupdating hdf...done\n", stderr)
	assert.Equal(t, 2, fake.uploadCount())

	_, stderr, err = execute(t, "", "--rcfile", rcfile, "-u", "wizard", "-p", "xyzzy")
	require.NoError(t, err)
	assert.Equal(t, "updating nao...rcfile already up to date\nupdating hdf...rcfile already up to date\n", stderr)
	assert.Equal(t, 2, fake.uploadCount())
}

func TestRoot_JSONOutput(t *testing.T) {
	_, rcfile := setup(t, "OPTIONS=color\n")

	stdout, _, err := execute(t, "", "--rcfile", rcfile, "--output", "json", "--site", "hdf", "wizard", "xyzzy")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "hdf", gjson.Get(lines[0], "site").String())
	assert.Equal(t, "updated", gjson.Get(lines[0], "outcome").String())
}

func TestRoot_AuthFailureSetsExitError(t *testing.T) {
	_, rcfile := setup(t, "OPTIONS=color\n")

	_, stderr, err := execute(t, "", "--rcfile", rcfile, "--skip", "hdf", "wizard", "wrong")
	assert.ErrorIs(t, err, ErrSitesFailed)
	assert.Contains(t, stderr, "updating nao...error: login attempt: nao responded 403 Forbidden")
	assert.NotContains(t, stderr, "hdf")
}

func TestRoot_Silent(t *testing.T) {
	_, rcfile := setup(t, "OPTIONS=color\n")

	stdout, stderr, err := execute(t, "", "--rcfile", rcfile, "--silent", "wizard", "wrong")
	assert.ErrorIs(t, err, ErrSitesFailed)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestRoot_PasswordFromStdinAndEnv(t *testing.T) {
	_, rcfile := setup(t, "OPTIONS=color\n")

	_, stderr, err := execute(t, "xyzzy\n", "--rcfile", rcfile, "--site", "nao", "wizard")
	require.NoError(t, err)
	assert.Equal(t, "updating nao...done\n", stderr)

	t.Setenv("RCSYNC_USERNAME", "wizard")
	t.Setenv("RCSYNC_PASSWORD", "xyzzy")
	_, stderr, err = execute(t, "", "--rcfile", rcfile, "--site", "nao")
	require.NoError(t, err)
	assert.Equal(t, "updating nao...rcfile already up to date\n", stderr)
}

func TestRoot_NothingToDo(t *testing.T) {
	fake, rcfile := setup(t, "OPTIONS=color\n")

	_, stderr, err := execute(t, "", "--rcfile", rcfile, "--skip", "nao", "--skip", "hdf", "wizard", "xyzzy")
	require.NoError(t, err)
	assert.Equal(t, "no sites enabled, nothing to do\n", stderr)
	assert.Zero(t, fake.uploadCount())
}

func TestRoot_SiteListsFromEnv(t *testing.T) {
	fake, rcfile := setup(t, "OPTIONS=color\n")

	t.Setenv("RCSYNC_SKIP", "nao,hdf")
	_, stderr, err := execute(t, "", "--rcfile", rcfile, "wizard", "xyzzy")
	require.NoError(t, err)
	assert.Equal(t, "no sites enabled, nothing to do\n", stderr)

	t.Setenv("RCSYNC_SKIP", "")
	t.Setenv("RCSYNC_SITE", "hdf, nao")
	_, stderr, err = execute(t, "", "--rcfile", rcfile, "wizard", "xyzzy")
	require.NoError(t, err)
	assert.Equal(t, "updating nao...done\nupdating hdf...done\n", stderr)
	assert.Equal(t, 2, fake.uploadCount())
}

func TestRoot_UsernameCheckedBeforePassword(t *testing.T) {
	fake, rcfile := setup(t, "OPTIONS=color\n")
	t.Setenv("RCSYNC_USERNAME", "")

	_, stderr, err := execute(t, "xyzzy\n", "--rcfile", rcfile)
	assert.EqualError(t, err, "username is required")
	assert.NotContains(t, stderr, "password for")
	assert.Zero(t, fake.uploadCount())
}

func TestRoot_InputErrors(t *testing.T) {
	_, rcfile := setup(t, "")

	_, _, err := execute(t, "", "--rcfile", rcfile, "wizard", "xyzzy")
	assert.ErrorIs(t, err, sync.ErrEmptyConfig)

	_, _, err = execute(t, "", "--rcfile", filepath.Join(t.TempDir(), "missing"), "wizard", "xyzzy")
	assert.ErrorContains(t, err, "file does not exist")

	_, _, err = execute(t, "", "--rcfile", rcfile, "--site", "nope", "wizard", "xyzzy")
	assert.ErrorContains(t, err, `unknown site "nope"`)

	_, _, err = execute(t, "", "--rcfile", rcfile, "--output", "xml", "wizard", "xyzzy")
	assert.ErrorContains(t, err, "unknown output format")

	_, _, err = execute(t, "", "--rcfile", rcfile, "--timeout", "0s", "wizard", "xyzzy")
	assert.ErrorContains(t, err, "timeout must be positive")
}

func TestSitesCmd(t *testing.T) {
	setup(t, "x")

	stdout, _, err := execute(t, "", "sites")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nao")
	assert.Contains(t, stdout, "hdf")
	assert.Contains(t, stdout, "nethack.alt.org")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := expandHome("~/.nethackrc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".nethackrc"), p)

	p, err = expandHome("/etc/nethackrc")
	require.NoError(t, err)
	assert.Equal(t, "/etc/nethackrc", p)
}
