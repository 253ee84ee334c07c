package sync

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultGameVersion is the game release whose rcfile format the sites store.
const DefaultGameVersion = "3.6.4"

// Fetch URL and endpoint param placeholders.
const (
	PlaceholderLetter = "{letter}"
	PlaceholderUser   = "{user}"
	PlaceholderTag    = "{tag}"
)

type SiteID string

// FieldNames maps the semantic values sent to a site onto the names its forms expect.
type FieldNames struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Content  string `yaml:"content"`
}

// FormEndpoint is a form a site accepts by POST.
// Extra holds constant fields the form needs, such as its submit button.
type FormEndpoint struct {
	URL    string            `yaml:"url"`
	Params map[string]string `yaml:"params"`
	Fields FieldNames        `yaml:"fields"`
	Extra  map[string]string `yaml:"extra"`
}

// FetchEndpoint is where a site serves the stored rcfile.
// URL may contain the {letter}, {user} and {tag} placeholders.
type FetchEndpoint struct {
	URL       string `yaml:"url"`
	Versioned bool   `yaml:"versioned"`
}

// SiteProfile is the static description of one remote site.
// Everything that differs between sites lives here so that the sync
// sequence itself never branches on the site.
type SiteProfile struct {
	ID     SiteID        `yaml:"-"`
	Name   string        `yaml:"name"`
	Login  FormEndpoint  `yaml:"login"`
	Fetch  FetchEndpoint `yaml:"fetch"`
	Upload FormEndpoint  `yaml:"upload"`
}

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Validate() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// RequestDescriptor is a request bound to a user and rcfile content.
// Form is nil for plain retrievals.
type RequestDescriptor struct {
	URL    string
	Params url.Values
	Form   url.Values
}

type BoundRequests struct {
	Login  RequestDescriptor
	Fetch  RequestDescriptor
	Upload RequestDescriptor
}

// VersionTag returns the tag used in rcfile names, e.g. "nh364" for 3.6.4.
// Sites that do not keep one rcfile per release use the plain "nh" tag.
func VersionTag(gameVersion string, versioned bool) string {
	if !versioned {
		return "nh"
	}
	return "nh" + strings.ReplaceAll(gameVersion, ".", "")
}

func (p SiteProfile) Validate() error {
	if p.ID == "" {
		return errors.New("site id is required")
	}
	missing := func(what string) error {
		return fmt.Errorf("site %s is missing %s", p.ID, what)
	}
	switch {
	case p.Login.URL == "":
		return missing("login.url")
	case p.Login.Fields.Username == "" || p.Login.Fields.Password == "":
		return missing("login.fields")
	case p.Fetch.URL == "":
		return missing("fetch.url")
	case p.Upload.URL == "":
		return missing("upload.url")
	case p.Upload.Fields.Content == "":
		return missing("upload.fields.content")
	}
	return nil
}

// Bind produces the login, fetch and upload requests for one user.
// content is sent exactly as given.
func (p SiteProfile) Bind(creds Credentials, content []byte, gameVersion string) BoundRequests {
	replacer := placeholderReplacer(creds.Username, VersionTag(gameVersion, p.Fetch.Versioned))

	login := formValues(p.Login, replacer)
	login.Set(p.Login.Fields.Username, creds.Username)
	login.Set(p.Login.Fields.Password, creds.Password)

	upload := formValues(p.Upload, replacer)
	upload.Set(p.Upload.Fields.Content, string(content))

	return BoundRequests{
		Login: RequestDescriptor{
			URL:    p.Login.URL,
			Params: paramValues(p.Login.Params, replacer),
			Form:   login,
		},
		Fetch: RequestDescriptor{
			URL: replacer.Replace(p.Fetch.URL),
		},
		Upload: RequestDescriptor{
			URL:    p.Upload.URL,
			Params: paramValues(p.Upload.Params, replacer),
			Form:   upload,
		},
	}
}

func placeholderReplacer(username, tag string) *strings.Replacer {
	var letter string
	if r, _ := utf8.DecodeRuneInString(username); r != utf8.RuneError {
		letter = string(r)
	}
	return strings.NewReplacer(
		PlaceholderLetter, letter,
		PlaceholderUser, username,
		PlaceholderTag, tag,
	)
}

func paramValues(params map[string]string, replacer *strings.Replacer) url.Values {
	result := url.Values{}
	for k, v := range params {
		result.Set(k, replacer.Replace(v))
	}
	return result
}

func formValues(endpoint FormEndpoint, replacer *strings.Replacer) url.Values {
	return paramValues(endpoint.Extra, replacer)
}
