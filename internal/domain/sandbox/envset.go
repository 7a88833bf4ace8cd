package sandbox

// EnvSet is the compiled environment lookup structure of spec.md §4.C:
// variables not in the allow-set are absent, not merely empty, and
// captured values are frozen at compile time.
type EnvSet struct {
	values map[string]string
}

// NewEnvSet builds an EnvSet from the allowed variable names and the
// source map to capture values from (typically the host's frozen
// environment merged with a per-component secret store).
func NewEnvSet(allow []string, source map[string]string) *EnvSet {
	values := make(map[string]string, len(allow))
	for _, k := range allow {
		if v, ok := source[k]; ok {
			values[k] = v
		}
	}
	return &EnvSet{values: values}
}

// Lookup answers "may I read env K?" returning its captured value.
func (e *EnvSet) Lookup(key string) (value string, allowed bool) {
	v, ok := e.values[key]
	return v, ok
}

// Keys returns the allow-set's variable names, sorted by caller if needed.
func (e *EnvSet) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	return keys
}
