package sync

import (
	"os"

	"github.com/tidwall/gjson"
)

// EndpointsEnvVar holds a JSON object whose keys are consulted first when
// expanding ${NAME:default} references in profile files,
// e.g. RCSYNC_ENDPOINTS='{"NAO_URL":"http://localhost:8080"}'.
const EndpointsEnvVar = "RCSYNC_ENDPOINTS"

type CompositeEnvVar interface {
	LookupEnv(child string) (string, bool)
}

// JSONCompositeEnvVar looks up children of the JSON object stored in Parent.
// Children that are absent fall through to the process environment when
// Fallthrough is set.
type JSONCompositeEnvVar struct {
	Parent      string
	Fallthrough bool
}

func (c JSONCompositeEnvVar) LookupEnv(child string) (string, bool) {
	if c.Parent != "" {
		s := os.Getenv(c.Parent)
		if s != "" && gjson.Valid(s) {
			v := gjson.Get(s, gjson.Escape(child))
			if v.Exists() && v.Type != gjson.Null {
				return v.String(), true
			}
		}
	}
	if c.Fallthrough {
		return os.LookupEnv(child)
	}
	return "", false
}
