// Package policy models the capability Policy Record: its on-disk document
// shape, validation, the grant/revoke overlay, and compilation into a
// sandbox.Template.
package policy

// Document is the parsed, semver-versioned Policy Record of spec.md §3.
// It round-trips through YAML (github.com/goccy/go-yaml) and JSON; field
// tags cover both.
type Document struct {
	Version     string      `yaml:"version" json:"version"`
	Storage     Storage     `yaml:"storage,omitempty" json:"storage,omitempty"`
	Network     Network     `yaml:"network,omitempty" json:"network,omitempty"`
	Environment Environment `yaml:"environment,omitempty" json:"environment,omitempty"`
	Resources   Resources   `yaml:"resources,omitempty" json:"resources,omitempty"`
}

// Storage is the storage permission set: allow/deny lists of (URI pattern,
// access set) tuples.
type Storage struct {
	Allow []StorageRule `yaml:"allow,omitempty" json:"allow,omitempty"`
	Deny  []StorageRule `yaml:"deny,omitempty" json:"deny,omitempty"`
}

// StorageRule is one `fs://` pattern plus the access atoms it grants or
// denies. Uri carries a trailing glob; "**" means recursive.
type StorageRule struct {
	URI    string   `yaml:"uri" json:"uri"`
	Access []string `yaml:"access" json:"access"` // subset of {"read","write"}
}

// Network is the network permission set.
type Network struct {
	Allow []NetworkRule `yaml:"allow,omitempty" json:"allow,omitempty"`
	Deny  []NetworkRule `yaml:"deny,omitempty" json:"deny,omitempty"`
}

// NetworkRule is a host pattern plus optional port set and scheme. A host
// pattern may carry a single leading wildcard label ("*.example.com").
type NetworkRule struct {
	Host     string `yaml:"host" json:"host"`
	Ports    []int  `yaml:"ports,omitempty" json:"ports,omitempty"`
	Protocol string `yaml:"protocol,omitempty" json:"protocol,omitempty"`
}

// Environment is the environment-variable permission set. Entries are
// exact variable names, not patterns.
type Environment struct {
	Allow []string `yaml:"allow,omitempty" json:"allow,omitempty"`
	Deny  []string `yaml:"deny,omitempty" json:"deny,omitempty"`
}

// Resources carries the optional resource ceilings.
type Resources struct {
	Limits Limits `yaml:"limits,omitempty" json:"limits,omitempty"`

	// Memory is the legacy bare-number-as-MiB fallback field, accepted
	// for backward compatibility when Limits.Memory is empty.
	Memory int `yaml:"memory,omitempty" json:"memory,omitempty"`
}

// Limits carries Kubernetes-quantity-style resource ceilings plus a
// wall-clock ceiling that has no Kubernetes analogue.
type Limits struct {
	Memory      string `yaml:"memory,omitempty" json:"memory,omitempty"` // e.g. "512Mi"
	CPU         string `yaml:"cpu,omitempty" json:"cpu,omitempty"`       // e.g. "500m", "1" (fuel-equivalent)
	TimeoutMS   int    `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
}

// CurrentVersion is the only Version value this compiler recognizes.
const CurrentVersion = "v1"
