package sync

import (
	"fmt"
	"slices"
	"sort"
)

// Registry holds the known site profiles in definition order.
type Registry struct {
	profiles []SiteProfile
	index    map[SiteID]int
}

func NewRegistry(profiles ...SiteProfile) (*Registry, error) {
	r := &Registry{index: make(map[SiteID]int, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.index[p.ID]; exists {
			return nil, fmt.Errorf("duplicate site id %q", p.ID)
		}
		r.index[p.ID] = len(r.profiles)
		r.profiles = append(r.profiles, p)
	}
	return r, nil
}

// Profiles returns a copy of all profiles in registry order.
func (r *Registry) Profiles() []SiteProfile {
	return slices.Clone(r.profiles)
}

func (r *Registry) IDs() []SiteID {
	result := make([]SiteID, len(r.profiles))
	for i, p := range r.profiles {
		result[i] = p.ID
	}
	return result
}

func (r *Registry) Lookup(id SiteID) (SiteProfile, bool) {
	i, ok := r.index[id]
	if !ok {
		return SiteProfile{}, false
	}
	return r.profiles[i], true
}

// Select returns a Selection enabling the given sites, or every site when ids is empty.
func (r *Registry) Select(ids ...SiteID) (Selection, error) {
	if len(ids) == 0 {
		return NewSelection(r.IDs()...), nil
	}
	for _, id := range ids {
		if _, ok := r.index[id]; !ok {
			return nil, fmt.Errorf("unknown site %q (known sites: %v)", id, r.IDs())
		}
	}
	return NewSelection(ids...), nil
}

// Enabled returns the profiles enabled by sel, in registry order.
func (r *Registry) Enabled(sel Selection) []SiteProfile {
	var result []SiteProfile
	for _, p := range r.profiles {
		if sel.Enabled(p.ID) {
			result = append(result, p)
		}
	}
	return result
}

// Selection is the set of enabled sites.
type Selection map[SiteID]bool

func NewSelection(ids ...SiteID) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (s Selection) Enable(id SiteID) {
	s[id] = true
}

func (s Selection) Disable(id SiteID) {
	delete(s, id)
}

func (s Selection) Enabled(id SiteID) bool {
	return s[id]
}

func (s Selection) Empty() bool {
	return len(s) == 0
}

// IDs returns the enabled sites sorted by id.
func (s Selection) IDs() []SiteID {
	result := make([]SiteID, 0, len(s))
	for id := range s {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
