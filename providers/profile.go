// Package providers describes the upstream platforms routing entries can
// point at: their auth parameter shapes, whether they are deployed per
// region, and how geo tags map onto concrete deployment regions. Profiles
// are static capability records consulted during intent validation and
// parameter merging; they never open connections themselves.
package providers

import (
	"fmt"
	"sort"
)

// RegionMapping ties a geo tag to the deployment region entries for that
// geo should call. Order within a Profile is significant: the first mapping
// is the provider's default placement.
type RegionMapping struct {
	Geo      string
	Location string
}

// Profile is the static capability record for one provider.
type Profile struct {
	// Name doubles as the model-path prefix ("bedrock" → "bedrock/<id>").
	Name string
	// Regional marks providers whose entries carry a region pointer.
	// Region axes are rejected for non-regional providers.
	Regional bool
	// RegionParam is the call-parameter key the region pointer is written
	// to, e.g. "aws_region_name". Empty for non-regional providers.
	RegionParam string
	// BaseParams is the lowest-precedence parameter layer applied to every
	// entry for this provider, typically an env-reference for auth.
	BaseParams map[string]any
	// Regions is the ordered geo→deployment mapping for regional providers.
	Regions []RegionMapping
}

// ModelPath prefixes a resolved identifier with the provider namespace,
// producing the value routing entries carry in their model parameter.
func (p Profile) ModelPath(id string) string {
	return p.Name + "/" + id
}

// Location returns the deployment region for a geo tag.
func (p Profile) Location(geo string) (string, bool) {
	for _, m := range p.Regions {
		if m.Geo == geo {
			return m.Location, true
		}
	}
	return "", false
}

// DefaultGeo returns the first mapped geo tag, or "" for non-regional
// providers. Credential-only expansion pins regional entries here.
func (p Profile) DefaultGeo() string {
	if len(p.Regions) == 0 {
		return ""
	}
	return p.Regions[0].Geo
}

// Geos returns the mapped geo tags in profile order.
func (p Profile) Geos() []string {
	geos := make([]string, len(p.Regions))
	for i, m := range p.Regions {
		geos[i] = m.Geo
	}
	return geos
}

func (p Profile) clone() Profile {
	out := p
	if p.BaseParams != nil {
		out.BaseParams = make(map[string]any, len(p.BaseParams))
		for k, v := range p.BaseParams {
			out.BaseParams[k] = v
		}
	}
	out.Regions = append([]RegionMapping(nil), p.Regions...)
	return out
}

// Registry manages a collection of profiles for lookup by name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry creates a new empty profile registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]Profile)}
}

// Builtin returns a registry preloaded with the stock profiles.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(Profile{
		Name:        "bedrock",
		Regional:    true,
		RegionParam: "aws_region_name",
		Regions: []RegionMapping{
			{Geo: "eu", Location: "eu-central-1"},
			{Geo: "us", Location: "us-east-1"},
		},
	})
	r.Register(Profile{
		Name:       "openai",
		BaseParams: map[string]any{"api_key": "os.environ/OPENAI_API_KEY"},
	})
	r.Register(Profile{
		Name:       "anthropic",
		BaseParams: map[string]any{"api_key": "os.environ/ANTHROPIC_API_KEY"},
	})
	return r
}

// Register adds a profile to the registry, replacing any existing profile
// with the same name.
func (r *Registry) Register(p Profile) {
	r.profiles[p.Name] = p.clone()
}

// Get returns a profile by name and whether it was found. The returned
// value is a copy; mutating it does not affect the registry.
func (r *Registry) Get(name string) (Profile, bool) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, false
	}
	return p.clone(), true
}

// MustGet returns a profile by name or panics if not found.
func (r *Registry) MustGet(name string) Profile {
	p, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("provider profile not found: %s", name))
	}
	return p
}

// List returns the names of all registered profiles, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
