// Package routegen compiles declarative model-routing intents into a
// LiteLLM-compatible proxy configuration document.
//
// The Session type is the main entry point: create one with NewSession,
// declare a model with Session.Model, chain expansion axes (Regions,
// Credentials, Variations) onto the returned Intent, and commit it with
// Add. Render serializes everything committed so far into a commented
// YAML document with a model_list, router settings (including generated
// fallbacks), and passthrough settings sections.
//
// The decision logic lives in cross-region identity resolution: Bedrock
// serves many models under region-tagged inference profiles such as
// "eu.amazon.nova-pro-v1:0", and an intent naming the bare identifier is
// widened to one same-named entry per region whenever the catalog shows
// the model is available in all of them. See the catalog package.
//
// The library computes entries purely in memory: it never calls a
// provider, never validates credentials, and never proxies a request.
package routegen

import (
	"log/slog"

	"github.com/ferro-labs/routegen/catalog"
	"github.com/ferro-labs/routegen/internal/logging"
	"github.com/ferro-labs/routegen/providers"
)

// Session owns one configuration build: the identifier table, the
// provider profiles, the append-only entry registry, accumulated fallback
// relations, and passthrough settings. A Session runs one build on one
// goroutine; it is not safe for concurrent use.
type Session struct {
	table     *catalog.Table
	profiles  *providers.Registry
	registry  *Registry
	relations []FallbackRelation
	settings  Settings
	autoCross bool
	open      []*Intent
	// groups records, per committed intent, the label and entry count the
	// renderer uses to place one comment above each intent's first entry.
	groups []entryGroup
	log    *slog.Logger
}

type entryGroup struct {
	label string
	size  int
}

// Option configures a Session during construction.
type Option func(*Session)

// WithTable injects an identifier table, skipping catalog.Load.
func WithTable(t *catalog.Table) Option {
	return func(s *Session) { s.table = t }
}

// WithProfiles replaces the builtin provider profile registry.
func WithProfiles(r *providers.Registry) Option {
	return func(s *Session) { s.profiles = r }
}

// WithAutoCrossRegion sets the session-wide default for the simple-mode
// cross-region upgrade. It is on unless disabled here or per intent.
func WithAutoCrossRegion(on bool) Option {
	return func(s *Session) { s.autoCross = on }
}

// WithLogger overrides the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession creates a build session. Unless a table is injected the
// identifier catalog is loaded via catalog.Load; load failure is
// non-fatal and degrades to verbatim identifiers with no cross-region
// knowledge.
func NewSession(opts ...Option) *Session {
	s := &Session{
		registry:  NewRegistry(),
		autoCross: true,
		log:       logging.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.profiles == nil {
		s.profiles = providers.Builtin()
	}
	if s.table == nil {
		t, err := catalog.Load()
		if err != nil {
			// Non-fatal: no region knowledge, identifiers pass through verbatim.
			s.log.Warn("identifier table unavailable", "error", err.Error())
			t = catalog.New(nil)
		}
		s.table = t
	}
	return s
}

// Model opens an intent for one model. The returned builder is committed
// with Add; a session with open intents refuses to render.
func (s *Session) Model(provider, name, id string) *Intent {
	in := &Intent{
		session:   s,
		provider:  provider,
		name:      name,
		id:        id,
		mode:      ModeCartesian,
		suffix:    DefaultFallbackSuffix,
		autoCross: s.autoCross,
	}
	s.open = append(s.open, in)
	return in
}

func (s *Session) closeIntent(in *Intent) {
	for i, o := range s.open {
		if o == in {
			s.open = append(s.open[:i], s.open[i+1:]...)
			return
		}
	}
}

// Entries returns the committed entries in insertion order.
func (s *Session) Entries() []Entry {
	return s.registry.Entries()
}

// Relations returns the accumulated fallback relations in insertion
// order.
func (s *Session) Relations() []FallbackRelation {
	return append([]FallbackRelation(nil), s.relations...)
}

// Dangling returns the display names of intents that were opened but
// never committed, in declaration order. Render fails while any remain.
func (s *Session) Dangling() []string {
	if len(s.open) == 0 {
		return nil
	}
	names := make([]string, len(s.open))
	for i, in := range s.open {
		names[i] = in.name
	}
	return names
}

// Table returns the session's identifier table.
func (s *Session) Table() *catalog.Table {
	return s.table
}

// Profiles returns the session's provider profile registry.
func (s *Session) Profiles() *providers.Registry {
	return s.profiles
}
