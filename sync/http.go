package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"golang.org/x/net/publicsuffix"
)

// HTTPRequestTimeout is the default timeout for every request to a site.
const HTTPRequestTimeout = 60 * time.Second

// response is what a site answered. It is only produced when a response
// was actually obtained, whatever its status.
type response struct {
	StatusCode int
	Reason     string
	Body       []byte
}

func (r response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// acceptAnyStatus replaces the requests default validator so that
// non-2xx responses reach the handler instead of becoming errors.
func acceptAnyStatus(*http.Response) error {
	return nil
}

func captureResponse(result *response) requests.ResponseHandler {
	return func(res *http.Response) error {
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body %w", err)
		}
		result.StatusCode = res.StatusCode
		result.Reason = reasonPhrase(res)
		result.Body = body
		return nil
	}
}

// reasonPhrase extracts "Forbidden" from a "403 Forbidden" status line.
func reasonPhrase(res *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if reason == "" {
		reason = http.StatusText(res.StatusCode)
	}
	return reason
}

// builder returns a requests.Builder for desc. A descriptor with a form is POSTed.
func builder(client *http.Client, transport http.RoundTripper, desc RequestDescriptor) *requests.Builder {
	rb := requests.
		URL(desc.URL).
		Client(client)
	if transport != nil {
		rb = rb.Transport(transport)
	}
	for k, vs := range desc.Params {
		rb = rb.Param(k, vs...)
	}
	if desc.Form != nil {
		rb = rb.Method(http.MethodPost).BodyForm(desc.Form)
	}
	return rb
}

// exchange performs desc and returns the response, whatever its status.
// An error means no response was obtained.
func exchange(ctx context.Context, client *http.Client, transport http.RoundTripper, desc RequestDescriptor) (response, error) {
	var result response
	err := builder(client, transport, desc).
		AddValidator(acceptAnyStatus).
		Handle(captureResponse(&result)).
		Fetch(ctx)
	return result, err
}

func newCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}
