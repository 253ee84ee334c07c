package sync

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// session is the authenticated connection context of one site's sync
// sequence. It is created for a single login and upload, then dropped.
type session struct {
	site      SiteID
	client    *http.Client
	transport http.RoundTripper
}

func newSession(site SiteID, timeout time.Duration, transport http.RoundTripper) (*session, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar %w", err)
	}
	return &session{
		site:      site,
		client:    &http.Client{Timeout: timeout, Jar: jar},
		transport: transport,
	}, nil
}

// login submits the credentials form. On success the session cookie is kept in the jar.
func (s *session) login(ctx context.Context, desc RequestDescriptor) error {
	res, err := exchange(ctx, s.client, s.transport, desc)
	if err != nil {
		return transportFault(s.site, phaseLogin, err)
	}
	if !res.OK() {
		return &SyncError{
			Kind:       KindAuthenticationRejected,
			Site:       s.site,
			Phase:      phaseLogin,
			StatusCode: res.StatusCode,
			Reason:     res.Reason,
		}
	}
	return nil
}

func (s *session) upload(ctx context.Context, desc RequestDescriptor) error {
	res, err := exchange(ctx, s.client, s.transport, desc)
	if err != nil {
		return transportFault(s.site, phaseUpload, err)
	}
	if !res.OK() {
		return &SyncError{
			Kind:       KindUploadRejected,
			Site:       s.site,
			Phase:      phaseUpload,
			StatusCode: res.StatusCode,
			Reason:     res.Reason,
		}
	}
	return nil
}
