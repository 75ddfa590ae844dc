package routegen

import "fmt"

// ConfigError reports caller misuse: a violated precondition of intent
// building or session finalization. It fails fast at the point of misuse
// and is never retried or recovered. Resolution misses are not errors and
// never produce one.
type ConfigError struct {
	// Intent is the display name of the offending intent, if any.
	Intent string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Intent == "" {
		return e.Reason
	}
	return fmt.Sprintf("intent %q: %s", e.Intent, e.Reason)
}

func configErrorf(intent, format string, args ...any) *ConfigError {
	return &ConfigError{Intent: intent, Reason: fmt.Sprintf(format, args...)}
}
