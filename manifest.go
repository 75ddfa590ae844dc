package routegen

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/ferro-labs/routegen/catalog"
	"github.com/ferro-labs/routegen/providers"
)

//go:embed manifest.schema.json
var manifestSchema string

// EnvRefPrefix marks manifest string values resolved from the build
// environment: "env:TEAM_A_KEY" becomes the value of $TEAM_A_KEY before
// expansion runs. This is distinct from "os.environ/NAME" references,
// which pass through verbatim for the proxy to resolve at its runtime.
const EnvRefPrefix = "env:"

// Manifest is the declarative input the CLI builds from: supported
// regions, provider profile overrides, passthrough settings, and one
// block per model intent.
type Manifest struct {
	Regions   []string           `json:"regions,omitempty" yaml:"regions,omitempty"`
	Providers []ManifestProvider `json:"providers,omitempty" yaml:"providers,omitempty"`
	Settings  ManifestSettings   `json:"settings,omitempty" yaml:"settings,omitempty"`
	Models    []ManifestModel    `json:"models" yaml:"models"`
}

// ManifestProvider overrides or registers one provider profile. Fields
// left empty keep the registered profile's values.
type ManifestProvider struct {
	Name        string            `json:"name" yaml:"name"`
	Regional    *bool             `json:"regional,omitempty" yaml:"regional,omitempty"`
	RegionParam string            `json:"region_param,omitempty" yaml:"region_param,omitempty"`
	BaseParams  map[string]any    `json:"base_params,omitempty" yaml:"base_params,omitempty"`
	RegionMap   []ManifestMapping `json:"region_map,omitempty" yaml:"region_map,omitempty"`
}

// ManifestMapping is one geo→deployment pair in a provider's region map.
type ManifestMapping struct {
	Geo      string `json:"geo" yaml:"geo"`
	Location string `json:"location" yaml:"location"`
}

// ManifestSettings feeds the passthrough settings sections.
type ManifestSettings struct {
	Router  map[string]any `json:"router,omitempty" yaml:"router,omitempty"`
	LiteLLM map[string]any `json:"litellm,omitempty" yaml:"litellm,omitempty"`
	General map[string]any `json:"general,omitempty" yaml:"general,omitempty"`
}

// ManifestModel is one model intent in declarative form.
type ManifestModel struct {
	Name            string               `json:"name" yaml:"name"`
	Provider        string               `json:"provider" yaml:"provider"`
	ID              string               `json:"id" yaml:"id"`
	Params          map[string]any       `json:"params,omitempty" yaml:"params,omitempty"`
	Info            map[string]any       `json:"info,omitempty" yaml:"info,omitempty"`
	Region          string               `json:"region,omitempty" yaml:"region,omitempty"`
	Regions         []string             `json:"regions,omitempty" yaml:"regions,omitempty"`
	Strategy        string               `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	PrimaryRegion   string               `json:"primary_region,omitempty" yaml:"primary_region,omitempty"`
	FallbackSuffix  string               `json:"fallback_suffix,omitempty" yaml:"fallback_suffix,omitempty"`
	AutoCrossRegion *bool                `json:"auto_cross_region,omitempty" yaml:"auto_cross_region,omitempty"`
	Credentials     []ManifestCredential `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Variations      []ManifestVariation  `json:"variations,omitempty" yaml:"variations,omitempty"`
}

// ManifestCredential is one named credential bundle.
type ManifestCredential struct {
	Name   string         `json:"name" yaml:"name"`
	Params map[string]any `json:"params" yaml:"params"`
}

// ManifestVariation is one named parameter overlay.
type ManifestVariation struct {
	Suffix string         `json:"suffix" yaml:"suffix"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Info   map[string]any `json:"info,omitempty" yaml:"info,omitempty"`
}

// LoadManifest reads, schema-validates, and parses a manifest file.
// Supported formats: YAML (.yaml, .yml) and JSON (.json). String values
// prefixed with "env:" are expanded from the environment; a reference to
// an unset variable is an error.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var raw any
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML manifest: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest extension %q: use .json, .yaml, or .yml", ext)
	}

	if err := validateManifest(raw); err != nil {
		return nil, err
	}

	// Reparse into the typed form via JSON so YAML and JSON inputs take
	// the same decoding path.
	canonical, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(canonical, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	if err := m.expandEnv(); err != nil {
		return nil, err
	}
	return &m, nil
}

// validateManifest checks the raw document against the embedded JSON
// schema. The raw tree is round-tripped through JSON first because the
// validator expects JSON-typed values.
func validateManifest(raw any) error {
	canonical, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("manifest is not schema-checkable: %w", err)
	}
	var v any
	if err := json.Unmarshal(canonical, &v); err != nil {
		return fmt.Errorf("manifest is not schema-checkable: %w", err)
	}

	schema, err := jsonschema.CompileString("manifest.schema.json", manifestSchema)
	if err != nil {
		return fmt.Errorf("compiling manifest schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("manifest schema violation: %w", err)
	}
	return nil
}

// expandEnv resolves env: references in every value map of the manifest.
func (m *Manifest) expandEnv() error {
	maps := []map[string]any{
		m.Settings.Router, m.Settings.LiteLLM, m.Settings.General,
	}
	for i := range m.Providers {
		maps = append(maps, m.Providers[i].BaseParams)
	}
	for i := range m.Models {
		maps = append(maps, m.Models[i].Params, m.Models[i].Info)
		for j := range m.Models[i].Credentials {
			maps = append(maps, m.Models[i].Credentials[j].Params)
		}
		for j := range m.Models[i].Variations {
			maps = append(maps, m.Models[i].Variations[j].Params, m.Models[i].Variations[j].Info)
		}
	}
	for _, mm := range maps {
		if err := expandEnvMap(mm); err != nil {
			return err
		}
	}
	return nil
}

func expandEnvMap(m map[string]any) error {
	for k, v := range m {
		expanded, err := expandEnvValue(v)
		if err != nil {
			return err
		}
		m[k] = expanded
	}
	return nil
}

func expandEnvValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		if !strings.HasPrefix(val, EnvRefPrefix) {
			return val, nil
		}
		name := strings.TrimPrefix(val, EnvRefPrefix)
		resolved, ok := os.LookupEnv(name)
		if !ok {
			return nil, fmt.Errorf("manifest references unset environment variable %s", name)
		}
		return resolved, nil
	case map[string]any:
		if err := expandEnvMap(val); err != nil {
			return nil, err
		}
		return val, nil
	case []any:
		for i := range val {
			expanded, err := expandEnvValue(val[i])
			if err != nil {
				return nil, err
			}
			val[i] = expanded
		}
		return val, nil
	default:
		return v, nil
	}
}

// Build constructs a session configured per the manifest and commits
// every model block into it. Extra options are applied after the
// manifest-derived ones, so callers can still inject a table for tests.
func (m *Manifest) Build(opts ...Option) (*Session, error) {
	var catalogOpts []catalog.Option
	if len(m.Regions) > 0 {
		catalogOpts = append(catalogOpts, catalog.WithRegions(m.Regions...))
	}
	table, err := catalog.Load(catalogOpts...)
	if err != nil {
		table = catalog.New(nil, catalogOpts...)
	}

	profiles := providers.Builtin()
	for _, p := range m.Providers {
		profiles.Register(p.merged(profiles))
	}

	sessionOpts := append([]Option{WithTable(table), WithProfiles(profiles)}, opts...)
	s := NewSession(sessionOpts...)
	s.SetSettings(Settings{
		Router:  m.Settings.Router,
		LiteLLM: m.Settings.LiteLLM,
		General: m.Settings.General,
	})

	for _, mm := range m.Models {
		if err := mm.apply(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// merged folds a manifest provider block over the registered profile of
// the same name, or over an empty profile when there is none.
func (p ManifestProvider) merged(registry *providers.Registry) providers.Profile {
	profile, _ := registry.Get(p.Name)
	profile.Name = p.Name
	if p.Regional != nil {
		profile.Regional = *p.Regional
	}
	if p.RegionParam != "" {
		profile.RegionParam = p.RegionParam
	}
	if len(p.BaseParams) > 0 {
		if profile.BaseParams == nil {
			profile.BaseParams = make(map[string]any, len(p.BaseParams))
		}
		for k, v := range p.BaseParams {
			profile.BaseParams[k] = v
		}
	}
	if len(p.RegionMap) > 0 {
		profile.Regions = profile.Regions[:0]
		for _, rm := range p.RegionMap {
			profile.Regions = append(profile.Regions, providers.RegionMapping{
				Geo: rm.Geo, Location: rm.Location,
			})
		}
		if p.Regional == nil {
			profile.Regional = true
		}
	}
	return profile
}

func (mm ManifestModel) apply(s *Session) error {
	in := s.Model(mm.Provider, mm.Name, mm.ID)
	if len(mm.Params) > 0 {
		in.Params(mm.Params)
	}
	if len(mm.Info) > 0 {
		in.Meta(mm.Info)
	}
	if mm.Region != "" {
		in.Region(mm.Region)
	}
	if len(mm.Regions) > 0 {
		in.Regions(mm.Regions...)
	}
	if len(mm.Credentials) > 0 {
		creds := make([]providers.Credential, len(mm.Credentials))
		for i, c := range mm.Credentials {
			creds[i] = providers.Credential{Name: c.Name, Params: c.Params}
		}
		in.Credentials(creds...)
	}
	if mm.Strategy != "" {
		in.Strategy(Mode(mm.Strategy))
	}
	if mm.PrimaryRegion != "" {
		in.PrimaryRegion(mm.PrimaryRegion)
	}
	if mm.FallbackSuffix != "" {
		in.FallbackSuffix(mm.FallbackSuffix)
	}
	if mm.AutoCrossRegion != nil {
		in.AutoCrossRegion(*mm.AutoCrossRegion)
	}

	var err error
	if len(mm.Variations) > 0 {
		vs := make([]Variation, len(mm.Variations))
		for i, v := range mm.Variations {
			vs[i] = Variation{Suffix: v.Suffix, Params: v.Params, Meta: v.Info}
		}
		err = in.Variations(vs...).Add()
	} else {
		err = in.Add()
	}
	if err != nil {
		return fmt.Errorf("manifest model %q: %w", mm.Name, err)
	}
	return nil
}
