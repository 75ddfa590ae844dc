package routegen

import "github.com/ferro-labs/routegen/providers"

// Mode selects how region and credential axes combine during expansion.
type Mode string

const (
	// ModeCartesian multiplies the configured axes into a full cross
	// product, regions outer, credentials inner. This is the default.
	ModeCartesian Mode = "cartesian"
	// ModeFallback emits one entry for the primary region under the plain
	// display name plus one suffixed entry per remaining region, each
	// recorded as a fallback relation.
	ModeFallback Mode = "fallback"
)

// DefaultFallbackSuffix is appended to fallback display names unless the
// intent overrides it. Suffixes are concatenated verbatim, so a custom
// suffix controls its own separator.
const DefaultFallbackSuffix = "-fallback"

// Variation is one named overlay on the variation axis: a display-name
// suffix plus parameter and metadata overlays that win over everything
// merged before them. Variations multiply whatever region/credential
// expansion is already configured.
type Variation struct {
	Suffix string
	Params map[string]any
	Meta   map[string]any
}

// Intent accumulates one model declaration until Add commits it. Every
// chain must end in Add: the session refuses to render while an intent is
// still open. An Intent is single-use and, like its session, not safe for
// concurrent use.
type Intent struct {
	session *Session

	provider string
	name     string
	id       string

	params map[string]any
	meta   map[string]any

	declaredRegion string
	regions        []string
	regionsSet     bool
	credentials    []providers.Credential
	credentialsSet bool
	mode           Mode
	primaryRegion  string
	suffix         string
	autoCross      bool

	committed bool
}

// Params merges fixed call parameters into every entry the intent emits.
// Repeated calls merge, later values winning.
func (in *Intent) Params(params map[string]any) *Intent {
	if in.params == nil {
		in.params = make(map[string]any, len(params))
	}
	for k, v := range params {
		in.params[k] = v
	}
	return in
}

// Meta merges root-level metadata onto every entry the intent emits,
// outside the call-parameter block.
func (in *Intent) Meta(meta map[string]any) *Intent {
	if in.meta == nil {
		in.meta = make(map[string]any, len(meta))
	}
	for k, v := range meta {
		in.meta[k] = v
	}
	return in
}

// Region declares the single region for simple expansion. Mutually
// exclusive with Regions; the provider's default placement applies when
// neither is called.
func (in *Intent) Region(geo string) *Intent {
	in.declaredRegion = geo
	return in
}

// Regions configures the region axis in emission order.
func (in *Intent) Regions(geos ...string) *Intent {
	in.regions = append([]string(nil), geos...)
	in.regionsSet = true
	return in
}

// Credentials configures the credential axis in emission order.
func (in *Intent) Credentials(creds ...providers.Credential) *Intent {
	in.credentials = append([]providers.Credential(nil), creds...)
	in.credentialsSet = true
	return in
}

// Strategy selects the expansion mode. The default is ModeCartesian.
func (in *Intent) Strategy(mode Mode) *Intent {
	in.mode = mode
	return in
}

// PrimaryRegion declares which region keeps the plain display name under
// ModeFallback. Required for that mode.
func (in *Intent) PrimaryRegion(geo string) *Intent {
	in.primaryRegion = geo
	return in
}

// FallbackSuffix overrides DefaultFallbackSuffix for this intent.
func (in *Intent) FallbackSuffix(suffix string) *Intent {
	in.suffix = suffix
	return in
}

// AutoCrossRegion overrides the session-wide auto-upgrade setting for
// this intent. When enabled, simple expansion of an identifier available
// in every supported region silently widens to all of them.
func (in *Intent) AutoCrossRegion(on bool) *Intent {
	in.autoCross = on
	return in
}

// Variations configures the variation axis and narrows the builder to its
// terminal state: after Variations the only possible operation is Add, so
// no further axis can be stacked on top of a variation.
func (in *Intent) Variations(vs ...Variation) *VariantIntent {
	return &VariantIntent{intent: in, variations: append([]Variation(nil), vs...)}
}

// Add validates the intent, expands it, and appends every resulting entry
// to the session. Expansion is all-or-nothing: on error the session is
// left exactly as it was.
func (in *Intent) Add() error {
	return in.session.commit(in, nil)
}

// VariantIntent is an intent narrowed by Variations. It exposes only Add.
type VariantIntent struct {
	intent     *Intent
	variations []Variation
}

// Add commits the underlying intent multiplied by its variations.
func (v *VariantIntent) Add() error {
	if len(v.variations) == 0 {
		return configErrorf(v.intent.name, "variation axis requires at least one variation")
	}
	return v.intent.session.commit(v.intent, v.variations)
}
