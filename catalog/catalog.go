// Package catalog provides the model identity table: the set of model
// identifiers known to exist per provider, together with the derived
// region-family index used for cross-region inference resolution.
//
// The table is loaded once at session startup from a remote URL with an
// embedded backup as fallback, and is immutable afterwards. Resolution via
// [Table.ResolveForRegion] is a pure lookup: a miss is a valid outcome, not
// an error, and callers fall back to using the identifier verbatim.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

//go:embed identifiers.json
var bundledIdentifiers []byte

// TableURLEnv is the env var operators set to override the identifier table
// source. Useful for air-gapped deployments or accounts with private models.
const TableURLEnv = "ROUTEGEN_IDENTIFIER_TABLE_URL"

// Private table endpoints can sit behind an OAuth2 client-credentials
// grant. When client ID and token URL are both set the fetch goes through
// an authenticating client; otherwise the request is plain HTTP.
const (
	TableOAuthClientIDEnv     = "ROUTEGEN_TABLE_OAUTH_CLIENT_ID"
	TableOAuthClientSecretEnv = "ROUTEGEN_TABLE_OAUTH_CLIENT_SECRET"
	TableOAuthTokenURLEnv     = "ROUTEGEN_TABLE_OAUTH_TOKEN_URL"
)

const defaultTableURL = "https://raw.githubusercontent.com/ferro-labs/routegen/main/catalog/identifiers.json"

// DefaultRegions is the ordered set of geo prefixes the generator supports.
// Order is significant: cross-region expansion emits entries in this order.
var DefaultRegions = []string{"eu", "us"}

// Table is the immutable identifier catalog: per-provider identifier sets
// plus the region-family index derived from them. Construct with New or
// Load; a Table is safe to share by reference because it is never mutated.
type Table struct {
	regions   []string
	providers map[string][]string
	index     map[string]map[string]bool
	// families maps provider → bare identifier → region → tagged identifier.
	// Membership is computed once in New from the raw identifier lists.
	families map[string]map[string]map[string]string
}

// Option configures a Table during construction.
type Option func(*Table)

// WithRegions overrides the supported region set. The default is
// DefaultRegions; overriding is intended for tests and future regions.
func WithRegions(regions ...string) Option {
	return func(t *Table) {
		t.regions = append([]string(nil), regions...)
	}
}

// New builds a Table from per-provider identifier lists. Input order within
// each provider is preserved; duplicates are dropped.
func New(identifiers map[string][]string, opts ...Option) *Table {
	t := &Table{
		regions:   DefaultRegions,
		providers: make(map[string][]string, len(identifiers)),
		index:     make(map[string]map[string]bool, len(identifiers)),
		families:  make(map[string]map[string]map[string]string, len(identifiers)),
	}
	for _, opt := range opts {
		opt(t)
	}

	for provider, ids := range identifiers {
		seen := make(map[string]bool, len(ids))
		ordered := make([]string, 0, len(ids))
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ordered = append(ordered, id)
		}
		t.providers[provider] = ordered
		t.index[provider] = seen

		families := make(map[string]map[string]string)
		for _, id := range ordered {
			bare, region := parseWithRegions(id, t.regions)
			if region == "" {
				continue
			}
			if families[bare] == nil {
				families[bare] = make(map[string]string, len(t.regions))
			}
			families[bare][region] = id
		}
		t.families[provider] = families
	}
	return t
}

// Load fetches the identifier table from a remote URL (1s timeout).
// On any failure it falls back to the embedded identifiers.json.
// A session never fails to start due to table unavailability.
func Load(opts ...Option) (*Table, error) {
	url := os.Getenv(TableURLEnv)
	if url == "" {
		url = defaultTableURL
	}

	if data, err := fetchRemote(url); err == nil {
		if t, err := parse(data, opts...); err == nil {
			return t, nil
		}
		// Remote payload fetched but did not parse: fall through.
	}
	// Silent fallback to the embedded copy shipped with the binary.
	return parse(bundledIdentifiers, opts...)
}

func fetchRemote(url string) ([]byte, error) {
	resp, err := tableClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identifier table fetch: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// tableClient returns the HTTP client for table fetches: plain with a 1s
// timeout, or an OAuth2 client-credentials client when the endpoint is
// configured for it. The authed path gets a longer budget because it makes
// a token round trip first.
func tableClient() *http.Client {
	clientID := os.Getenv(TableOAuthClientIDEnv)
	tokenURL := os.Getenv(TableOAuthTokenURLEnv)
	if clientID == "" || tokenURL == "" {
		return &http.Client{Timeout: time.Second}
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: os.Getenv(TableOAuthClientSecretEnv),
		TokenURL:     tokenURL,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: 2 * time.Second})
	client := cfg.Client(ctx)
	client.Timeout = 5 * time.Second
	return client
}

func parse(data []byte, opts ...Option) (*Table, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("identifier table parse: %w", err)
	}
	return New(raw, opts...), nil
}

// Regions returns the supported region set in emission order.
func (t *Table) Regions() []string {
	return append([]string(nil), t.regions...)
}

// Providers returns the provider names present in the table, sorted.
func (t *Table) Providers() []string {
	names := make([]string, 0, len(t.providers))
	for name := range t.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Identifiers returns the identifier list for a provider in input order.
func (t *Table) Identifiers(provider string) []string {
	return append([]string(nil), t.providers[provider]...)
}

// Has reports whether the exact identifier is registered for the provider.
func (t *Table) Has(provider, id string) bool {
	return t.index[provider][id]
}
