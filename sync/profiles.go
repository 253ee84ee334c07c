package sync

import (
	"fmt"
	"sort"

	"go.uber.org/config"
)

// Profiles is the result of loading the profile files.
type Profiles struct {
	GameVersion string
	Registry    *Registry
}

type profileDocument struct {
	Order []string               `yaml:"order"`
	Sites map[string]SiteProfile `yaml:"sites"`
}

type ProfileUnmarshaler interface {
	Unmarshal(compev CompositeEnvVar, sources ...ProfileFile) (Profiles, error)
}

type YAMLProfileUnmarshaler struct{}

// Unmarshal merges sources in order, later files overriding earlier ones.
func (u YAMLProfileUnmarshaler) Unmarshal(compev CompositeEnvVar, sources ...ProfileFile) (Profiles, error) {
	var result Profiles
	var options []config.YAMLOption
	for _, s := range sources {
		if s.Length > 0 {
			options = append(options, config.Source(s.Reader))
		}
	}
	options = append(options, config.Expand(compev.LookupEnv))
	yaml, err := config.NewYAML(options...)
	if err != nil {
		return result, fmt.Errorf("failed to read yaml profiles %w", err)
	}
	readError := func(key string, cause error) error {
		return fmt.Errorf("failed to read '%s' from yaml profiles %w", key, cause)
	}

	result.GameVersion = DefaultGameVersion
	key := "version"
	if yaml.Get(key).HasValue() {
		result.GameVersion = yaml.Get(key).String()
	}

	var doc profileDocument
	key = "order"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&doc.Order)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "sites"
	err = yaml.Get(key).Populate(&doc.Sites)
	if err != nil {
		return result, readError(key, err)
	}
	if len(doc.Sites) == 0 {
		return result, fmt.Errorf("no sites defined in yaml profiles")
	}

	profiles, err := doc.orderedProfiles()
	if err != nil {
		return result, err
	}
	result.Registry, err = NewRegistry(profiles...)
	return result, err
}

// orderedProfiles lists the sites named by order first, then any others sorted by id.
func (d profileDocument) orderedProfiles() ([]SiteProfile, error) {
	var result []SiteProfile
	seen := make(map[string]bool, len(d.Sites))
	for _, id := range d.Order {
		p, ok := d.Sites[id]
		if !ok {
			return nil, fmt.Errorf("order names undefined site %q", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		p.ID = SiteID(id)
		result = append(result, p)
	}
	var rest []string
	for id := range d.Sites {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		p := d.Sites[id]
		p.ID = SiteID(id)
		result = append(result, p)
	}
	return result, nil
}

// LoadProfiles loads the embedded default profiles, layering the optional
// override file on top. An empty override name loads the defaults alone.
func LoadProfiles(embedded EmbeddedProfiles, override string) (Profiles, error) {
	var result Profiles
	defaults, err := embedded.MustFindDefaultProfileFile()
	if err != nil {
		return result, fmt.Errorf("failed to read default profiles %w", err)
	}
	sources := []ProfileFile{defaults}
	if override != "" {
		f, err := ReadProfileFile(override)
		if err != nil {
			return result, fmt.Errorf("failed to read profile file %w", err)
		}
		sources = append(sources, f)
	}
	compositeEnvVar := JSONCompositeEnvVar{Parent: EndpointsEnvVar, Fallthrough: true}
	result, err = YAMLProfileUnmarshaler{}.Unmarshal(compositeEnvVar, sources...)
	if err != nil {
		return result, fmt.Errorf("failed to load profiles %w", err)
	}
	return result, nil
}
