package sync

import (
	"fmt"

	"github.com/iancoleman/strcase"
	"github.com/tidwall/sjson"
)

// Outcome is how a site's sync sequence ended.
type Outcome int

const (
	UpToDate Outcome = iota
	Updated
	AuthFailed
	UploadFailed
	FetchFailed
	Mismatch
	SiteDisabled
)

var outcomeNames = [...]string{
	UpToDate:     "UpToDate",
	Updated:      "Updated",
	AuthFailed:   "AuthFailed",
	UploadFailed: "UploadFailed",
	FetchFailed:  "FetchFailed",
	Mismatch:     "Mismatch",
	SiteDisabled: "SiteDisabled",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Key is the kebab-case form used in JSON output, e.g. "up-to-date".
func (o Outcome) Key() string {
	return strcase.ToKebab(o.String())
}

// Label is the lower case phrase used in text output, e.g. "up to date".
func (o Outcome) Label() string {
	return strcase.ToDelimited(o.String(), ' ')
}

func (o Outcome) Failed() bool {
	switch o {
	case AuthFailed, UploadFailed, FetchFailed, Mismatch:
		return true
	}
	return false
}

// Report is the outcome of one site's sync sequence.
// Site is empty for the single SiteDisabled report of a run with no enabled sites.
type Report struct {
	Site       SiteID
	Outcome    Outcome
	StatusCode int
	Reason     string
	Local      Fingerprint
	Remote     Fingerprint
	Err        error
}

// Message describes the outcome in one line, without the site.
func (r Report) Message() string {
	switch r.Outcome {
	case UpToDate:
		return "rcfile already up to date"
	case Updated:
		return "done"
	case Mismatch:
		return fmt.Sprintf("hashes differ even after update! local: %s remote: %s", r.Local, r.Remote)
	case SiteDisabled:
		return "no sites enabled, nothing to do"
	}
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	return r.Outcome.Label()
}

func (r Report) String() string {
	if r.Site == "" {
		return r.Message()
	}
	return fmt.Sprintf("%s: %s", r.Site, r.Message())
}

// JSON renders the report as a single JSON object.
func (r Report) JSON() (string, error) {
	result := "{}"
	set := func(path string, value interface{}) error {
		var err error
		result, err = sjson.Set(result, path, value)
		return err
	}
	err := set("site", string(r.Site))
	if err == nil {
		err = set("outcome", r.Outcome.Key())
	}
	if err == nil && r.StatusCode != 0 {
		err = set("status.code", r.StatusCode)
		if err == nil {
			err = set("status.reason", r.Reason)
		}
	}
	if err == nil && !r.Local.IsZero() {
		err = set("fingerprints.local", r.Local.String())
	}
	if err == nil && !r.Remote.IsZero() {
		err = set("fingerprints.remote", r.Remote.String())
	}
	if err == nil && r.Err != nil {
		err = set("error.message", r.Err.Error())
		if kind, ok := KindOf(r.Err); ok && err == nil {
			err = set("error.kind", string(kind))
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to render report for %s %w", r.Site, err)
	}
	return result, nil
}

// AnyFailed reports whether any report has a failure outcome.
func AnyFailed(reports []Report) bool {
	for _, r := range reports {
		if r.Outcome.Failed() {
			return true
		}
	}
	return false
}

// Reporter is the output collaborator that receives each report as its site finishes.
type Reporter interface {
	Report(Report)
}

type ReporterFunc func(Report)

func (f ReporterFunc) Report(r Report) {
	f(r)
}
