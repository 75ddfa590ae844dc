package routegen

import (
	"fmt"

	"github.com/ferro-labs/routegen/internal/metrics"
	"github.com/ferro-labs/routegen/providers"
)

// combo is one point in the region×credential plane an intent expands
// over. geo is empty for non-regional providers; cred is nil when no
// credential applies. name carries the pre-variation display name, which
// differs from the intent's only for fallback entries.
type combo struct {
	name string
	geo  string
	cred *providers.Credential
}

// commit validates and expands an intent, then appends the results.
// Nothing reaches the registry unless the whole intent expanded cleanly.
func (s *Session) commit(in *Intent, variations []Variation) error {
	if in.committed {
		return configErrorf(in.name, "intent already committed")
	}

	entries, relations, err := s.expand(in, variations)
	if err != nil {
		metrics.ExpansionErrors.WithLabelValues(in.provider).Inc()
		return err
	}

	s.registry.Append(entries...)
	s.relations = append(s.relations, relations...)
	s.groups = append(s.groups, entryGroup{
		label: fmt.Sprintf("%s (%s)", in.name, in.provider),
		size:  len(entries),
	})
	in.committed = true
	s.closeIntent(in)

	metrics.IntentsExpanded.WithLabelValues(in.provider, string(effectiveMode(in))).Inc()
	metrics.EntriesGenerated.WithLabelValues(in.provider).Add(float64(len(entries)))
	s.log.Debug("intent expanded",
		"name", in.name,
		"provider", in.provider,
		"strategy", string(effectiveMode(in)),
		"entries", len(entries),
		"relations", len(relations),
	)
	return nil
}

// expand turns one intent into its ordered entry list and fallback
// relations. Single pass: the state (simple, cartesian, fallback) is
// picked once from the configured axes, combos are enumerated, and the
// variation axis multiplies the result.
func (s *Session) expand(in *Intent, variations []Variation) ([]Entry, []FallbackRelation, error) {
	profile, err := s.validate(in, variations)
	if err != nil {
		return nil, nil, err
	}

	var combos []combo
	var relations []FallbackRelation
	switch {
	case effectiveMode(in) == ModeFallback:
		combos, relations = s.fallbackCombos(in)
	case in.regionsSet || in.credentialsSet || len(variations) > 0:
		combos = s.cartesianCombos(in, profile)
	default:
		combos = s.simpleCombos(in, profile)
	}

	entries := make([]Entry, 0, len(combos)*max(1, len(variations)))
	for _, c := range combos {
		if len(variations) == 0 {
			e, err := s.buildEntry(profile, in, c, nil)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, e)
			continue
		}
		for i := range variations {
			e, err := s.buildEntry(profile, in, c, &variations[i])
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, e)
		}
	}
	return entries, relations, nil
}

func effectiveMode(in *Intent) Mode {
	if in.mode == "" {
		return ModeCartesian
	}
	return in.mode
}

func (s *Session) validate(in *Intent, variations []Variation) (providers.Profile, error) {
	if in.name == "" {
		return providers.Profile{}, configErrorf("", "display name must not be empty")
	}
	if in.id == "" {
		return providers.Profile{}, configErrorf(in.name, "model identifier must not be empty")
	}
	profile, ok := s.profiles.Get(in.provider)
	if !ok {
		return providers.Profile{}, configErrorf(in.name, "unknown provider: %s", in.provider)
	}

	mode := effectiveMode(in)
	if mode != ModeCartesian && mode != ModeFallback {
		return providers.Profile{}, configErrorf(in.name, "unknown strategy mode: %s", in.mode)
	}

	if !profile.Regional && (in.declaredRegion != "" || in.regionsSet || in.primaryRegion != "") {
		return providers.Profile{}, configErrorf(in.name,
			"provider %s has no regional deployments; region axes are not supported", in.provider)
	}
	if in.declaredRegion != "" && in.regionsSet {
		return providers.Profile{}, configErrorf(in.name, "Region and Regions are mutually exclusive")
	}
	if in.regionsSet && len(in.regions) == 0 {
		return providers.Profile{}, configErrorf(in.name, "region axis requires at least one region")
	}
	if in.credentialsSet && len(in.credentials) == 0 {
		return providers.Profile{}, configErrorf(in.name, "credential axis requires at least one credential")
	}

	declared := append([]string(nil), in.regions...)
	if in.declaredRegion != "" {
		declared = append(declared, in.declaredRegion)
	}
	if in.primaryRegion != "" {
		declared = append(declared, in.primaryRegion)
	}
	for _, geo := range declared {
		if _, ok := profile.Location(geo); !ok {
			return providers.Profile{}, configErrorf(in.name,
				"provider %s has no deployment mapping for region %s", in.provider, geo)
		}
	}

	if mode == ModeFallback {
		if in.primaryRegion == "" {
			return providers.Profile{}, configErrorf(in.name, "fallback strategy requires a primary region")
		}
		if !in.regionsSet {
			return providers.Profile{}, configErrorf(in.name, "fallback strategy requires a region axis")
		}
		if in.suffix == "" {
			return providers.Profile{}, configErrorf(in.name, "fallback suffix must not be empty")
		}
		if len(in.credentials) > 1 {
			return providers.Profile{}, configErrorf(in.name,
				"fallback strategy does not multiply credentials; supply at most one")
		}
		if len(variations) > 0 {
			return providers.Profile{}, configErrorf(in.name,
				"fallback strategy does not combine with a variation axis")
		}
	}

	for _, v := range variations {
		if v.Suffix == "" {
			return providers.Profile{}, configErrorf(in.name, "variation suffix must not be empty")
		}
	}
	return profile, nil
}

// simpleCombos handles the zero-axis state. An identifier available in
// every supported region widens to all of them when auto-upgrade is on;
// the caller's narrower single-region ask is deliberately overridden.
func (s *Session) simpleCombos(in *Intent, profile providers.Profile) []combo {
	if !profile.Regional {
		return []combo{{name: in.name}}
	}
	if in.autoCross && s.table.CrossRegionEligible(in.provider, in.id) {
		regions := s.table.Regions()
		combos := make([]combo, 0, len(regions))
		for _, geo := range regions {
			combos = append(combos, combo{name: in.name, geo: geo})
		}
		return combos
	}
	geo := in.declaredRegion
	if geo == "" {
		geo = profile.DefaultGeo()
	}
	return []combo{{name: in.name, geo: geo}}
}

// cartesianCombos enumerates the region×credential product in
// region-major order: all credentials for the first region, then all for
// the next. The renderer groups entries by insertion order, so this
// ordering is part of the output contract.
func (s *Session) cartesianCombos(in *Intent, profile providers.Profile) []combo {
	var geos []string
	switch {
	case in.regionsSet:
		geos = in.regions
	case profile.Regional:
		// Credential- or variation-only expansion pins the provider's
		// default placement once; it never multiplies regions.
		geos = []string{profile.DefaultGeo()}
	default:
		geos = []string{""}
	}

	creds := make([]*providers.Credential, 0, max(1, len(in.credentials)))
	if in.credentialsSet {
		for i := range in.credentials {
			creds = append(creds, &in.credentials[i])
		}
	} else {
		creds = append(creds, nil)
	}

	combos := make([]combo, 0, len(geos)*len(creds))
	for _, geo := range geos {
		for _, cred := range creds {
			combos = append(combos, combo{name: in.name, geo: geo, cred: cred})
		}
	}
	return combos
}

// fallbackCombos emits the primary entry plus one suffixed entry per
// remaining declared region. Every non-primary region reuses the same
// fallback display name, and one relation is recorded per region, so K
// fallback regions yield K relations against one shared name.
func (s *Session) fallbackCombos(in *Intent) ([]combo, []FallbackRelation) {
	var cred *providers.Credential
	if len(in.credentials) > 0 {
		cred = &in.credentials[0]
	}
	fallbackName := in.name + in.suffix

	combos := []combo{{name: in.name, geo: in.primaryRegion, cred: cred}}
	var relations []FallbackRelation
	for _, geo := range in.regions {
		if geo == in.primaryRegion {
			continue
		}
		combos = append(combos, combo{name: fallbackName, geo: geo, cred: cred})
		relations = append(relations, FallbackRelation{Primary: in.name, Fallback: fallbackName})
	}
	return combos, relations
}

// buildEntry assembles one concrete entry: resolve the identifier for the
// combo's region, then fold the parameter layers in precedence order
// (provider base, then intent overlay, region pointer, credential fields,
// variation overlay). Metadata merges on its own track.
func (s *Session) buildEntry(profile providers.Profile, in *Intent, c combo, v *Variation) (Entry, error) {
	resolved := in.id
	var regionPointer map[string]any
	if c.geo != "" {
		if rid, ok := s.table.ResolveForRegion(in.provider, in.id, c.geo); ok {
			resolved = rid
		}
		location, ok := profile.Location(c.geo)
		if !ok {
			return Entry{}, configErrorf(in.name,
				"provider %s has no deployment mapping for region %s", in.provider, c.geo)
		}
		if profile.RegionParam != "" {
			regionPointer = map[string]any{profile.RegionParam: location}
		}
	}

	layers := []layer{
		{name: "provider", values: profile.BaseParams},
		{name: "intent", values: in.params},
		{name: "region", values: regionPointer},
	}
	metaLayers := []layer{{name: "intent", values: in.meta}}
	name := c.name
	if c.cred != nil {
		layers = append(layers, layer{name: "credential", values: c.cred.Params})
	}
	if v != nil {
		layers = append(layers, layer{name: "variation", values: v.Params})
		metaLayers = append(metaLayers, layer{name: "variation", values: v.Meta})
		name = c.name + "-" + v.Suffix
	}

	return Entry{
		Name:   name,
		Model:  profile.ModelPath(resolved),
		Params: mergeLayers(layers...),
		Meta:   mergeLayers(metaLayers...),
	}, nil
}
