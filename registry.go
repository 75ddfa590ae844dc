package routegen

// Entry is one concrete routing record: the display name clients route by,
// the fully resolved provider path ("bedrock/eu.amazon.nova-pro-v1:0"),
// the merged call parameters, and the merged root-level metadata. Several
// entries may share a display name; the downstream proxy weight-balances
// across same-named entries.
type Entry struct {
	Name   string
	Model  string
	Params map[string]any
	Meta   map[string]any
}

// FallbackRelation is one primary→fallback routing hint, accumulated
// separately from the entry list and merged into router settings at render
// time. One relation is recorded per non-primary fallback region, so a
// primary may appear in several relations.
type FallbackRelation struct {
	Primary  string
	Fallback string
}

// Registry is the append-only ordered collection of entries one build
// session accumulates. Append does not check uniqueness and nothing is
// ever removed or updated; the renderer reads entries once, in insertion
// order, which fixes how same-named entries group in the document.
type Registry struct {
	entries []Entry
}

// NewRegistry creates an empty entry registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Append adds entries in order.
func (r *Registry) Append(entries ...Entry) {
	r.entries = append(r.entries, entries...)
}

// Len returns the number of appended entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns the appended entries in insertion order. The slice and
// the parameter maps are copies; mutating them does not reach the
// registry.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{
			Name:   e.Name,
			Model:  e.Model,
			Params: copyMap(e.Params),
			Meta:   copyMap(e.Meta),
		}
	}
	return out
}
