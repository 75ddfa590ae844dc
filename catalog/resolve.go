package catalog

import "strings"

// ParseIdentifier splits a model identifier into its bare form and region
// tag. "eu.amazon.nova-pro-v1:0" yields ("amazon.nova-pro-v1:0", "eu");
// untagged identifiers yield ("", "") for the region. Only the default
// region set is recognized; tables built with WithRegions parse against
// their own set internally.
func ParseIdentifier(id string) (bare, region string) {
	return parseWithRegions(id, DefaultRegions)
}

func parseWithRegions(id string, regions []string) (bare, region string) {
	for _, r := range regions {
		prefix := r + "."
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return id[len(prefix):], r
		}
	}
	return id, ""
}

// RegionFamily returns the regions for which a tagged variant of the bare
// identifier exists under the provider, in the table's region order. The
// identifier may be passed tagged or bare; it is normalized first.
func (t *Table) RegionFamily(provider, id string) []string {
	bare, _ := parseWithRegions(id, t.regions)
	variants := t.families[provider][bare]
	if len(variants) == 0 {
		return nil
	}
	family := make([]string, 0, len(variants))
	for _, r := range t.regions {
		if _, ok := variants[r]; ok {
			family = append(family, r)
		}
	}
	return family
}

// CrossRegionEligible reports whether tagged variants of the identifier
// exist for every supported region. Only eligible identifiers are safe to
// expand across regions: each emitted entry must name an identifier that
// actually exists.
func (t *Table) CrossRegionEligible(provider, id string) bool {
	bare, _ := parseWithRegions(id, t.regions)
	variants := t.families[provider][bare]
	if len(variants) < len(t.regions) {
		return false
	}
	for _, r := range t.regions {
		if _, ok := variants[r]; !ok {
			return false
		}
	}
	return true
}

// ResolveForRegion maps an identifier to its variant for the target region.
// The lookup tries, in order:
//
//  1. The identifier is already tagged for the target region: returned as is.
//  2. The identifier is cross-region eligible: the target region's variant.
//  3. The identifier is tagged for another region and the target-region
//     variant exists even though the full family does not.
//  4. Otherwise there is no mapping.
//
// A false result is not an error. Callers use the identifier verbatim when
// no region variant is known; the table is a best-effort index, not a
// gatekeeper.
func (t *Table) ResolveForRegion(provider, id, region string) (string, bool) {
	if !t.supportsRegion(region) {
		return "", false
	}
	bare, tag := parseWithRegions(id, t.regions)
	if tag == region {
		return id, true
	}
	if t.CrossRegionEligible(provider, id) {
		return t.families[provider][bare][region], true
	}
	if tag != "" {
		if variant, ok := t.families[provider][bare][region]; ok {
			return variant, true
		}
	}
	return "", false
}

func (t *Table) supportsRegion(region string) bool {
	for _, r := range t.regions {
		if r == region {
			return true
		}
	}
	return false
}
