package sync

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a site's sync sequence stopped short of success.
type ErrorKind string

const (
	// KindTransportFault means no response was obtained at all.
	// A response with a failure status is never a transport fault.
	KindTransportFault ErrorKind = "TRANSPORT_FAULT"

	// KindAuthenticationRejected means the login form answered with a status other than 200.
	KindAuthenticationRejected ErrorKind = "AUTHENTICATION_REJECTED"

	// KindUploadRejected means the upload form answered with a status other than 200.
	KindUploadRejected ErrorKind = "UPLOAD_REJECTED"

	// KindVerificationFetchFailed means the rcfile could not be retrieved after an upload.
	KindVerificationFetchFailed ErrorKind = "VERIFICATION_FETCH_FAILED"

	// KindContentMismatch means every exchange succeeded but the stored
	// rcfile does not match what was uploaded.
	KindContentMismatch ErrorKind = "CONTENT_MISMATCH"
)

var (
	ErrTransportFault          = errors.New("transport fault")
	ErrAuthenticationRejected  = errors.New("authentication rejected")
	ErrUploadRejected          = errors.New("upload rejected")
	ErrVerificationFetchFailed = errors.New("verification fetch failed")
	ErrContentMismatch         = errors.New("content mismatch")

	// ErrEmptyConfig is returned before any network activity when there is no rcfile content.
	ErrEmptyConfig = errors.New("rcfile is empty")
)

var sentinelForKind = map[ErrorKind]error{
	KindTransportFault:          ErrTransportFault,
	KindAuthenticationRejected:  ErrAuthenticationRejected,
	KindUploadRejected:          ErrUploadRejected,
	KindVerificationFetchFailed: ErrVerificationFetchFailed,
	KindContentMismatch:         ErrContentMismatch,
}

// SyncError describes why one phase of a site's sync sequence failed.
// The phase itself is recorded by the Report outcome, so a connection
// failure during login is an AuthFailed report holding a KindTransportFault error.
type SyncError struct {
	Kind       ErrorKind
	Site       SiteID
	Phase      string // e.g. "login attempt"
	StatusCode int    // zero when no response was obtained
	Reason     string
	Err        error
}

func (e *SyncError) Error() string {
	var detail string
	switch {
	case e.StatusCode != 0:
		detail = fmt.Sprintf("%s responded %d %s", e.Site, e.StatusCode, e.Reason)
	case e.Err != nil:
		detail = e.Err.Error()
	default:
		detail = string(e.Kind)
	}
	if e.Phase == "" {
		return detail
	}
	return fmt.Sprintf("%s: %s", e.Phase, detail)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the SyncError's kind.
func (e *SyncError) Is(target error) bool {
	sentinel, ok := sentinelForKind[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the ErrorKind of the first SyncError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Kind, true
	}
	return "", false
}

func transportFault(site SiteID, phase string, cause error) error {
	return &SyncError{
		Kind:  KindTransportFault,
		Site:  site,
		Phase: phase,
		Err:   cause,
	}
}
