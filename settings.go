package routegen

// Settings are the passthrough sections of the rendered document. The
// generator never inspects their contents; they are opaque key-value bags
// serialized verbatim into their sections. Generated fallback relations
// are merged into the router section at render time on top of whatever
// the caller placed there.
type Settings struct {
	// Router feeds router_settings (routing_strategy, retries, ...).
	Router map[string]any
	// LiteLLM feeds litellm_settings (drop_params, cache, callbacks, ...).
	LiteLLM map[string]any
	// General feeds general_settings (master_key reference, alerting, ...).
	General map[string]any
}

// SetSettings replaces the session's passthrough settings. The maps are
// copied at the top level; the session owns its copy from here on.
func (s *Session) SetSettings(settings Settings) {
	s.settings = Settings{
		Router:  copyMap(settings.Router),
		LiteLLM: copyMap(settings.LiteLLM),
		General: copyMap(settings.General),
	}
}

// ConfiguredSettings returns a copy of the current passthrough settings.
func (s *Session) ConfiguredSettings() Settings {
	return Settings{
		Router:  copyMap(s.settings.Router),
		LiteLLM: copyMap(s.settings.LiteLLM),
		General: copyMap(s.settings.General),
	}
}
