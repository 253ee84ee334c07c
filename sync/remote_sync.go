package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/sirupsen/logrus"
)

// Phases named in failure messages.
const (
	phaseFetch  = "rcfile retrieval"
	phaseLogin  = "login attempt"
	phaseUpload = "rcfile update"
	phaseVerify = "updated rcfile retrieval"
)

// Syncer runs the fetch, compare, upload and verify sequence against each enabled site.
type Syncer struct {
	registry  *Registry
	logger    logrus.FieldLogger
	timeout   time.Duration
	transport http.RoundTripper
	recordDir string
	reporter  Reporter
}

type SyncerOption func(*Syncer)

func WithLogger(logger logrus.FieldLogger) SyncerOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

func WithHTTPClientTimeout(timeout time.Duration) SyncerOption {
	return func(s *Syncer) {
		s.timeout = timeout
	}
}

// WithTransport sets the RoundTripper used for every request.
func WithTransport(rt http.RoundTripper) SyncerOption {
	return func(s *Syncer) {
		s.transport = rt
	}
}

// WithRecording saves every exchange under dir, one subdirectory per site.
func WithRecording(dir string) SyncerOption {
	return func(s *Syncer) {
		s.recordDir = dir
	}
}

// WithReporter sets the output collaborator notified as each site finishes.
// A reporter that also implements ProgressReporter is told when each site starts.
func WithReporter(r Reporter) SyncerOption {
	return func(s *Syncer) {
		s.reporter = r
	}
}

type ProgressReporter interface {
	Begin(SiteProfile)
}

func NewSyncer(registry *Registry, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		registry: registry,
		logger:   logrus.StandardLogger(),
		timeout:  HTTPRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync processes the enabled sites one after another, in registry order.
// A failing site never stops the others. The only errors returned are for
// input that makes a sync meaningless, and they are returned before any
// request is made.
func (s *Syncer) Sync(ctx context.Context, cfg Config) ([]Report, error) {
	if len(cfg.Content) == 0 {
		return nil, ErrEmptyConfig
	}
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials %w", err)
	}

	profiles := s.registry.Enabled(cfg.Sites)
	if len(profiles) == 0 {
		s.logger.Debug("no sites enabled")
		report := Report{Outcome: SiteDisabled}
		s.emit(cfg, report)
		return []Report{report}, nil
	}

	reports := make([]Report, 0, len(profiles))
	for _, p := range profiles {
		if !cfg.Silent {
			if pr, ok := s.reporter.(ProgressReporter); ok {
				pr.Begin(p)
			}
		}
		report := s.SyncSite(ctx, p, cfg)
		s.emit(cfg, report)
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *Syncer) emit(cfg Config, report Report) {
	if s.reporter != nil && !cfg.Silent {
		s.reporter.Report(report)
	}
}

// SyncSite runs the whole sequence for one site and always ends in a Report.
func (s *Syncer) SyncSite(ctx context.Context, p SiteProfile, cfg Config) Report {
	log := s.logger.WithField("site", p.ID)
	reqs := p.Bind(cfg.Credentials, cfg.Content, cfg.gameVersion())
	transport := s.siteTransport(p.ID)
	fetchClient := &http.Client{Timeout: s.timeout}

	report := Report{
		Site:  p.ID,
		Local: NewFingerprint(cfg.Content),
	}

	log.WithField("state", "fetching").Debugf("fetching %s", reqs.Fetch.URL)
	remote, err := exchange(ctx, fetchClient, transport, reqs.Fetch)
	if err != nil {
		report.Outcome = FetchFailed
		report.Err = transportFault(p.ID, phaseFetch, err)
		return report
	}
	if !remote.OK() {
		// a site without a stored rcfile answers 404, which is not a failure
		log.WithField("state", "fetching").Debugf("no stored rcfile (%d %s)", remote.StatusCode, remote.Reason)
	}
	report.Remote = remote.fingerprint()

	log.WithFields(logrus.Fields{
		"state":  "comparing",
		"local":  report.Local.String(),
		"remote": report.Remote.String(),
	}).Debug("compared fingerprints")
	if report.Remote == report.Local {
		report.Outcome = UpToDate
		return report
	}

	log.WithField("state", "authenticating").Debugf("logging in as %s", cfg.Credentials.Username)
	sess, err := newSession(p.ID, s.timeout, transport)
	if err != nil {
		report.Outcome = AuthFailed
		report.Err = err
		return report
	}
	if err := sess.login(ctx, reqs.Login); err != nil {
		report.Outcome = AuthFailed
		report.setErr(err)
		return report
	}

	log.WithField("state", "uploading").Debugf("uploading %d bytes", len(cfg.Content))
	if err := sess.upload(ctx, reqs.Upload); err != nil {
		report.Outcome = UploadFailed
		report.setErr(err)
		return report
	}

	log.WithField("state", "verifying").Debug("fetching updated rcfile")
	remote, err = exchange(ctx, fetchClient, transport, reqs.Fetch)
	if err != nil {
		report.Outcome = FetchFailed
		report.Err = transportFault(p.ID, phaseVerify, err)
		return report
	}
	if !remote.OK() {
		report.Outcome = FetchFailed
		report.setErr(&SyncError{
			Kind:       KindVerificationFetchFailed,
			Site:       p.ID,
			Phase:      phaseVerify,
			StatusCode: remote.StatusCode,
			Reason:     remote.Reason,
		})
		return report
	}
	report.Remote = remote.fingerprint()
	if report.Remote != report.Local {
		report.Outcome = Mismatch
		report.Err = &SyncError{Kind: KindContentMismatch, Site: p.ID, Phase: phaseVerify}
		return report
	}

	report.Outcome = Updated
	return report
}

// siteTransport wraps the configured transport in a recorder when recording is enabled.
func (s *Syncer) siteTransport(site SiteID) http.RoundTripper {
	if s.recordDir == "" {
		return s.transport
	}
	return requests.Record(s.transport, filepath.Join(s.recordDir, string(site)))
}

// fingerprint treats a failed retrieval as a site with no stored rcfile.
func (r response) fingerprint() Fingerprint {
	if !r.OK() {
		return EmptyFingerprint()
	}
	return NewFingerprint(r.Body)
}

func (r *Report) setErr(err error) {
	r.Err = err
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		r.StatusCode = syncErr.StatusCode
		r.Reason = syncErr.Reason
	}
}
