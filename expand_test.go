package routegen

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ferro-labs/routegen/catalog"
	"github.com/ferro-labs/routegen/providers"
)

// testTable returns a small fixed identifier table so tests never depend
// on the bundled catalog contents.
func testTable() *catalog.Table {
	return catalog.New(map[string][]string{
		"bedrock": {
			"amazon.nova-pro-v1:0",
			"eu.amazon.nova-pro-v1:0",
			"us.amazon.nova-pro-v1:0",
			"anthropic.claude-3-5-haiku-20241022-v1:0",
			"us.anthropic.claude-3-5-haiku-20241022-v1:0",
			"amazon.titan-text-express-v1",
		},
		"openai": {"gpt-4o", "gpt-4o-mini"},
	})
}

func testSession(opts ...Option) *Session {
	base := []Option{
		WithTable(testTable()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewSession(append(base, opts...)...)
}

func TestSession_SimpleCrossRegionUpgrade(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").Region("eu").Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	wantModels := []string{"bedrock/eu.amazon.nova-pro-v1:0", "bedrock/us.amazon.nova-pro-v1:0"}
	wantRegions := []string{"eu-central-1", "us-east-1"}
	for i, e := range entries {
		if e.Name != "nova-pro" {
			t.Errorf("entry %d: got name %q, want nova-pro", i, e.Name)
		}
		if e.Model != wantModels[i] {
			t.Errorf("entry %d: got model %q, want %q", i, e.Model, wantModels[i])
		}
		if e.Params["aws_region_name"] != wantRegions[i] {
			t.Errorf("entry %d: got aws_region_name %v, want %q", i, e.Params["aws_region_name"], wantRegions[i])
		}
	}
}

func TestSession_SimpleResolution(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		region    string
		wantModel string
		wantLoc   string
	}{
		{
			// The declared region's tagged variant exists, so the bare
			// identifier would upgrade; the tagged input stays as is.
			name:      "already tagged",
			id:        "us.anthropic.claude-3-5-haiku-20241022-v1:0",
			region:    "us",
			wantModel: "bedrock/us.anthropic.claude-3-5-haiku-20241022-v1:0",
			wantLoc:   "us-east-1",
		},
		{
			// Bare identifier with only one tagged variant in the catalog:
			// not eligible, not tagged, so it passes through verbatim.
			name:      "partial family bare id",
			id:        "anthropic.claude-3-5-haiku-20241022-v1:0",
			region:    "us",
			wantModel: "bedrock/anthropic.claude-3-5-haiku-20241022-v1:0",
			wantLoc:   "us-east-1",
		},
		{
			name:      "no family at all",
			id:        "amazon.titan-text-express-v1",
			region:    "eu",
			wantModel: "bedrock/amazon.titan-text-express-v1",
			wantLoc:   "eu-central-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession()
			if err := s.Model("bedrock", "m", tt.id).Region(tt.region).Add(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			entries := s.Entries()
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			if entries[0].Model != tt.wantModel {
				t.Errorf("got model %q, want %q", entries[0].Model, tt.wantModel)
			}
			if entries[0].Params["aws_region_name"] != tt.wantLoc {
				t.Errorf("got aws_region_name %v, want %q", entries[0].Params["aws_region_name"], tt.wantLoc)
			}
		})
	}
}

func TestSession_SimpleDefaultRegion(t *testing.T) {
	s := testSession()
	if err := s.Model("bedrock", "titan", "amazon.titan-text-express-v1").Add(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	// No region declared: the provider's first mapping applies.
	if entries[0].Params["aws_region_name"] != "eu-central-1" {
		t.Errorf("got aws_region_name %v, want eu-central-1", entries[0].Params["aws_region_name"])
	}
}

func TestSession_AutoCrossRegionDisabled(t *testing.T) {
	s := testSession(WithAutoCrossRegion(false))
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").Region("eu").Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	// The declared region still resolves to its tagged variant.
	if entries[0].Model != "bedrock/eu.amazon.nova-pro-v1:0" {
		t.Errorf("got model %q, want bedrock/eu.amazon.nova-pro-v1:0", entries[0].Model)
	}
}

func TestSession_AutoCrossRegionPerIntentOverride(t *testing.T) {
	s := testSession(WithAutoCrossRegion(false))
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").AutoCrossRegion(true).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(s.Entries()); got != 2 {
		t.Fatalf("got %d entries, want 2", got)
	}

	s = testSession()
	err = s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").AutoCrossRegion(false).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(s.Entries()); got != 1 {
		t.Fatalf("got %d entries, want 1", got)
	}
}

func TestSession_SimpleNonRegional(t *testing.T) {
	s := testSession()
	if err := s.Model("openai", "gpt-4o", "gpt-4o").Add(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Model != "openai/gpt-4o" {
		t.Errorf("got model %q, want openai/gpt-4o", entries[0].Model)
	}
	if entries[0].Params["api_key"] != "os.environ/OPENAI_API_KEY" {
		t.Errorf("got api_key %v, want profile default", entries[0].Params["api_key"])
	}
	if _, ok := entries[0].Params["aws_region_name"]; ok {
		t.Error("non-regional entry must not carry a region pointer")
	}
}

func TestSession_CredentialsOnly(t *testing.T) {
	s := testSession()
	err := s.Model("openai", "gpt-lb", "gpt-4o").Credentials(
		providers.APIKey("team-a", "os.environ/TEAM_A_KEY"),
		providers.APIKey("team-b", "os.environ/TEAM_B_KEY"),
		providers.APIKey("team-c", "os.environ/TEAM_C_KEY"),
	).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	wantKeys := []string{"os.environ/TEAM_A_KEY", "os.environ/TEAM_B_KEY", "os.environ/TEAM_C_KEY"}
	for i, e := range entries {
		if e.Name != "gpt-lb" {
			t.Errorf("entry %d: got name %q, want gpt-lb", i, e.Name)
		}
		if e.Model != "openai/gpt-4o" {
			t.Errorf("entry %d: got model %q, want openai/gpt-4o", i, e.Model)
		}
		if e.Params["api_key"] != wantKeys[i] {
			t.Errorf("entry %d: got api_key %v, want %q", i, e.Params["api_key"], wantKeys[i])
		}
	}
}

func TestSession_CredentialsOnlyRegionalPinsDefault(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-lb", "amazon.nova-pro-v1:0").Credentials(
		providers.AWSKeyPair("acct-1", "AKIA1", "s1"),
		providers.AWSKeyPair("acct-2", "AKIA2", "s2"),
	).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The credential axis never multiplies regions, even for an
	// identifier that would cross-region upgrade in simple expansion.
	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for i, e := range entries {
		if e.Model != "bedrock/eu.amazon.nova-pro-v1:0" {
			t.Errorf("entry %d: got model %q, want default-region path", i, e.Model)
		}
		if e.Params["aws_region_name"] != "eu-central-1" {
			t.Errorf("entry %d: got aws_region_name %v, want eu-central-1", i, e.Params["aws_region_name"])
		}
	}
	if entries[0].Params["aws_access_key_id"] != "AKIA1" || entries[1].Params["aws_access_key_id"] != "AKIA2" {
		t.Error("credential order not preserved")
	}
}

func TestSession_RegionsOnly(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").Regions("us", "eu").Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Declaration order is preserved, not the table's order.
	if entries[0].Model != "bedrock/us.amazon.nova-pro-v1:0" {
		t.Errorf("got first model %q, want us path", entries[0].Model)
	}
	if entries[1].Model != "bedrock/eu.amazon.nova-pro-v1:0" {
		t.Errorf("got second model %q, want eu path", entries[1].Model)
	}
}

func TestSession_RegionsByCredentials(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-grid", "amazon.nova-pro-v1:0").
		Regions("eu", "us").
		Credentials(
			providers.AWSKeyPair("a", "AKIA-A", "sa"),
			providers.AWSKeyPair("b", "AKIA-B", "sb"),
			providers.AWSKeyPair("c", "AKIA-C", "sc"),
		).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(entries))
	}
	// Region-major: all credentials for eu, then all for us.
	wantRegions := []string{
		"eu-central-1", "eu-central-1", "eu-central-1",
		"us-east-1", "us-east-1", "us-east-1",
	}
	wantKeys := []string{"AKIA-A", "AKIA-B", "AKIA-C", "AKIA-A", "AKIA-B", "AKIA-C"}
	for i, e := range entries {
		if e.Params["aws_region_name"] != wantRegions[i] {
			t.Errorf("entry %d: got region %v, want %q", i, e.Params["aws_region_name"], wantRegions[i])
		}
		if e.Params["aws_access_key_id"] != wantKeys[i] {
			t.Errorf("entry %d: got key %v, want %q", i, e.Params["aws_access_key_id"], wantKeys[i])
		}
	}
}

func TestSession_VariationsMultiplyCombos(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
		Regions("eu", "us").
		Credentials(
			providers.AWSKeyPair("a", "AKIA-A", "sa"),
			providers.AWSKeyPair("b", "AKIA-B", "sb"),
		).
		Variations(
			Variation{Suffix: "fast", Params: map[string]any{"rpm": 100}},
			Variation{Suffix: "slow", Params: map[string]any{"rpm": 5}},
		).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 8 {
		t.Fatalf("got %d entries, want 8", len(entries))
	}
	// Combos are outer, variations inner.
	wantNames := []string{
		"nova-fast", "nova-slow", "nova-fast", "nova-slow",
		"nova-fast", "nova-slow", "nova-fast", "nova-slow",
	}
	for i, e := range entries {
		if e.Name != wantNames[i] {
			t.Errorf("entry %d: got name %q, want %q", i, e.Name, wantNames[i])
		}
	}
	if entries[0].Params["rpm"] != 100 || entries[1].Params["rpm"] != 5 {
		t.Error("variation params not applied per variation")
	}
	if entries[0].Params["aws_region_name"] != "eu-central-1" {
		t.Errorf("got region %v, want eu-central-1", entries[0].Params["aws_region_name"])
	}
	if entries[7].Params["aws_region_name"] != "us-east-1" {
		t.Errorf("got region %v, want us-east-1", entries[7].Params["aws_region_name"])
	}
}

func TestSession_VariationsPinDefaultRegion(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
		Variations(
			Variation{Suffix: "raw"},
			Variation{Suffix: "tuned", Params: map[string]any{"temperature": 0.2}},
		).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A variation-only intent expands in the cartesian state: one combo
	// pinned at the default region, no cross-region upgrade.
	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for i, e := range entries {
		if e.Model != "bedrock/eu.amazon.nova-pro-v1:0" {
			t.Errorf("entry %d: got model %q, want default-region path", i, e.Model)
		}
	}
	if entries[0].Name != "nova-raw" || entries[1].Name != "nova-tuned" {
		t.Errorf("got names %q, %q", entries[0].Name, entries[1].Name)
	}
}

func TestSession_VariationMetadataMerge(t *testing.T) {
	s := testSession()
	err := s.Model("openai", "gpt", "gpt-4o").
		Meta(map[string]any{"team": "core", "tier": "standard"}).
		Variations(
			Variation{Suffix: "pro", Meta: map[string]any{"tier": "pro"}},
			Variation{Suffix: "std"},
		).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Meta["tier"] != "pro" || entries[0].Meta["team"] != "core" {
		t.Errorf("variation metadata overlay wrong: %v", entries[0].Meta)
	}
	if entries[1].Meta["tier"] != "standard" {
		t.Errorf("base metadata lost: %v", entries[1].Meta)
	}
}

func TestSession_FallbackTwoRegions(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").
		Strategy(ModeFallback).
		Regions("eu", "us").
		PrimaryRegion("eu").
		Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "nova-pro" || entries[0].Model != "bedrock/eu.amazon.nova-pro-v1:0" {
		t.Errorf("primary entry wrong: %s %s", entries[0].Name, entries[0].Model)
	}
	if entries[1].Name != "nova-pro-fallback" || entries[1].Model != "bedrock/us.amazon.nova-pro-v1:0" {
		t.Errorf("fallback entry wrong: %s %s", entries[1].Name, entries[1].Model)
	}

	relations := s.Relations()
	if len(relations) != 1 {
		t.Fatalf("got %d relations, want 1", len(relations))
	}
	if relations[0].Primary != "nova-pro" || relations[0].Fallback != "nova-pro-fallback" {
		t.Errorf("got relation %+v", relations[0])
	}
}

func TestSession_FallbackSharedName(t *testing.T) {
	reg := providers.NewRegistry()
	reg.Register(providers.Profile{
		Name:        "bedrock",
		Regional:    true,
		RegionParam: "aws_region_name",
		Regions: []providers.RegionMapping{
			{Geo: "eu", Location: "eu-central-1"},
			{Geo: "us", Location: "us-east-1"},
			{Geo: "ap", Location: "ap-southeast-1"},
		},
	})
	s := testSession(WithProfiles(reg))
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").
		Strategy(ModeFallback).
		Regions("eu", "us", "ap").
		PrimaryRegion("eu").
		Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every non-primary region reuses the same fallback display name and
	// records its own relation.
	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[1].Name != "nova-pro-fallback" || entries[2].Name != "nova-pro-fallback" {
		t.Errorf("got fallback names %q, %q", entries[1].Name, entries[2].Name)
	}
	// The ap geo is outside the identifier table, so the bare identifier
	// passes through while the region pointer still applies.
	if entries[2].Model != "bedrock/amazon.nova-pro-v1:0" {
		t.Errorf("got ap model %q, want verbatim identifier", entries[2].Model)
	}
	if entries[2].Params["aws_region_name"] != "ap-southeast-1" {
		t.Errorf("got ap region %v, want ap-southeast-1", entries[2].Params["aws_region_name"])
	}

	relations := s.Relations()
	if len(relations) != 2 {
		t.Fatalf("got %d relations, want 2", len(relations))
	}
	for i, rel := range relations {
		if rel.Primary != "nova-pro" || rel.Fallback != "nova-pro-fallback" {
			t.Errorf("relation %d: got %+v", i, rel)
		}
	}
}

func TestSession_FallbackCustomSuffix(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").
		Strategy(ModeFallback).
		Regions("eu", "us").
		PrimaryRegion("eu").
		FallbackSuffix("_dr").
		Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	// The suffix is concatenated verbatim: no implicit separator.
	if entries[1].Name != "nova-pro_dr" {
		t.Errorf("got fallback name %q, want nova-pro_dr", entries[1].Name)
	}
}

func TestSession_FallbackPrimaryNotInRegions(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").
		Strategy(ModeFallback).
		Regions("us").
		PrimaryRegion("eu").
		Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The primary region need not appear in the region axis; every listed
	// region then becomes a fallback.
	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Params["aws_region_name"] != "eu-central-1" {
		t.Errorf("primary region wrong: %v", entries[0].Params["aws_region_name"])
	}
	if len(s.Relations()) != 1 {
		t.Fatalf("got %d relations, want 1", len(s.Relations()))
	}
}

func TestSession_FallbackWithCredential(t *testing.T) {
	s := testSession()
	err := s.Model("bedrock", "nova-pro", "amazon.nova-pro-v1:0").
		Strategy(ModeFallback).
		Regions("eu", "us").
		PrimaryRegion("eu").
		Credentials(providers.AWSKeyPair("main", "AKIA1", "s1")).
		Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, e := range s.Entries() {
		if e.Params["aws_access_key_id"] != "AKIA1" {
			t.Errorf("entry %d: credential not merged: %v", i, e.Params)
		}
	}
}

func TestSession_ParameterPrecedence(t *testing.T) {
	reg := providers.NewRegistry()
	reg.Register(providers.Profile{
		Name:        "bedrock",
		Regional:    true,
		RegionParam: "aws_region_name",
		BaseParams:  map[string]any{"timeout": 30, "api_version": "v1"},
		Regions: []providers.RegionMapping{
			{Geo: "eu", Location: "eu-central-1"},
			{Geo: "us", Location: "us-east-1"},
		},
	})
	s := testSession(WithProfiles(reg))

	cred := providers.AWSKeyPair("pinned", "AKIA1", "s1").
		WithParam("aws_region_name", "eu-west-9")
	err := s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
		Params(map[string]any{"timeout": 60, "rpm": 10}).
		Regions("eu").
		Credentials(cred).
		Variations(
			Variation{Suffix: "redirected", Params: map[string]any{"aws_region_name": "local-proxy"}},
			Variation{Suffix: "plain", Params: map[string]any{"rpm": 99}},
		).Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	redirected, plain := entries[0], entries[1]
	if redirected.Params["aws_region_name"] != "local-proxy" {
		t.Errorf("variation should win over credential: %v", redirected.Params["aws_region_name"])
	}
	if plain.Params["aws_region_name"] != "eu-west-9" {
		t.Errorf("credential should win over region pointer: %v", plain.Params["aws_region_name"])
	}
	if plain.Params["timeout"] != 60 {
		t.Errorf("intent should win over provider base: %v", plain.Params["timeout"])
	}
	if plain.Params["api_version"] != "v1" {
		t.Errorf("provider base should survive: %v", plain.Params["api_version"])
	}
	if plain.Params["rpm"] != 99 {
		t.Errorf("variation should win over intent: %v", plain.Params["rpm"])
	}
	if redirected.Params["rpm"] != 10 {
		t.Errorf("intent value should apply outside its variation: %v", redirected.Params["rpm"])
	}
}

func TestIntent_ParamsMergeAcrossCalls(t *testing.T) {
	s := testSession()
	err := s.Model("openai", "gpt", "gpt-4o").
		Params(map[string]any{"rpm": 10, "tpm": 1000}).
		Params(map[string]any{"rpm": 20}).
		Add()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := s.Entries()[0]
	if e.Params["rpm"] != 20 {
		t.Errorf("got rpm %v, want 20 (later call wins)", e.Params["rpm"])
	}
	if e.Params["tpm"] != 1000 {
		t.Errorf("got tpm %v, want 1000 (earlier keys survive)", e.Params["tpm"])
	}
}

func TestSession_AllOrNothing(t *testing.T) {
	s := testSession()
	if err := s.Model("openai", "gpt", "gpt-4o").Add(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.Model("bedrock", "broken", "amazon.nova-pro-v1:0").
		Regions("eu", "mars").
		Add()
	if err == nil {
		t.Fatal("expected error for unmapped region")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %T, want *ConfigError", err)
	}

	// The failed intent must not leave partial entries behind.
	if got := len(s.Entries()); got != 1 {
		t.Errorf("got %d entries, want 1", got)
	}
	if got := len(s.Relations()); got != 0 {
		t.Errorf("got %d relations, want 0", got)
	}
}

func TestSession_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Session) error
		want string
	}{
		{
			name: "empty display name",
			run: func(s *Session) error {
				return s.Model("openai", "", "gpt-4o").Add()
			},
			want: "display name",
		},
		{
			name: "empty identifier",
			run: func(s *Session) error {
				return s.Model("openai", "gpt", "").Add()
			},
			want: "identifier",
		},
		{
			name: "unknown provider",
			run: func(s *Session) error {
				return s.Model("azure", "gpt", "gpt-4o").Add()
			},
			want: "unknown provider",
		},
		{
			name: "unknown strategy mode",
			run: func(s *Session) error {
				return s.Model("openai", "gpt", "gpt-4o").Strategy("roundrobin").Add()
			},
			want: "unknown strategy mode",
		},
		{
			name: "region axis on non-regional provider",
			run: func(s *Session) error {
				return s.Model("openai", "gpt", "gpt-4o").Regions("eu").Add()
			},
			want: "no regional deployments",
		},
		{
			name: "region and regions are exclusive",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
					Region("eu").Regions("us").Add()
			},
			want: "mutually exclusive",
		},
		{
			name: "empty region axis",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").Regions().Add()
			},
			want: "at least one region",
		},
		{
			name: "empty credential axis",
			run: func(s *Session) error {
				return s.Model("openai", "gpt", "gpt-4o").Credentials().Add()
			},
			want: "at least one credential",
		},
		{
			name: "unmapped region",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").Region("mars").Add()
			},
			want: "no deployment mapping",
		},
		{
			name: "fallback without primary region",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
					Strategy(ModeFallback).Regions("eu", "us").Add()
			},
			want: "primary region",
		},
		{
			name: "fallback without region axis",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
					Strategy(ModeFallback).PrimaryRegion("eu").Add()
			},
			want: "region axis",
		},
		{
			name: "fallback with empty suffix",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
					Strategy(ModeFallback).Regions("eu", "us").PrimaryRegion("eu").
					FallbackSuffix("").Add()
			},
			want: "suffix",
		},
		{
			name: "fallback with several credentials",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
					Strategy(ModeFallback).Regions("eu", "us").PrimaryRegion("eu").
					Credentials(
						providers.AWSKeyPair("a", "k1", "s1"),
						providers.AWSKeyPair("b", "k2", "s2"),
					).Add()
			},
			want: "at most one",
		},
		{
			name: "fallback with variations",
			run: func(s *Session) error {
				return s.Model("bedrock", "nova", "amazon.nova-pro-v1:0").
					Strategy(ModeFallback).Regions("eu", "us").PrimaryRegion("eu").
					Variations(Variation{Suffix: "x"}).Add()
			},
			want: "variation axis",
		},
		{
			name: "empty variation suffix",
			run: func(s *Session) error {
				return s.Model("openai", "gpt", "gpt-4o").
					Variations(Variation{Suffix: ""}).Add()
			},
			want: "variation suffix",
		},
		{
			name: "zero variations",
			run: func(s *Session) error {
				return s.Model("openai", "gpt", "gpt-4o").Variations().Add()
			},
			want: "at least one variation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession()
			err := tt.run(s)
			if err == nil {
				t.Fatal("expected error")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("got %T, want *ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got error %q, want substring %q", err, tt.want)
			}
			if got := len(s.Entries()); got != 0 {
				t.Errorf("got %d entries after failed Add, want 0", got)
			}
		})
	}
}

func TestIntent_DoubleAdd(t *testing.T) {
	s := testSession()
	in := s.Model("openai", "gpt", "gpt-4o")
	if err := in.Add(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := in.Add()
	if err == nil {
		t.Fatal("expected error for second Add")
	}
	if !strings.Contains(err.Error(), "already committed") {
		t.Errorf("got error %q, want already committed", err)
	}
	if got := len(s.Entries()); got != 1 {
		t.Errorf("got %d entries, want 1", got)
	}
}
