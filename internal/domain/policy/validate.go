package policy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Diagnostic is one validation finding. Validate never stops at the first
// finding; it collects all of them, per spec.md §4.C ("produces a list of
// diagnostics").
type Diagnostic struct {
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

var validAccess = map[string]bool{"read": true, "write": true}

// Validate checks a Document against spec.md §4.C's validation rules. It is
// side-effect-free: it never mutates doc and never touches the filesystem
// or network. It returns the full diagnostic list; a non-empty return does
// not panic or short-circuit partway through.
func Validate(doc *Document) []Diagnostic {
	var diags []Diagnostic

	if doc.Version == "" {
		diags = append(diags, Diagnostic{"version", "version field is required"})
	} else if _, err := semver.NewVersion(strings.TrimPrefix(doc.Version, "v")); err != nil {
		diags = append(diags, Diagnostic{"version", fmt.Sprintf("unrecognized version %q: %v", doc.Version, err)})
	}

	for i, r := range doc.Storage.Allow {
		diags = append(diags, validateStorageRule(fmt.Sprintf("storage.allow[%d]", i), r)...)
	}
	for i, r := range doc.Storage.Deny {
		diags = append(diags, validateStorageRule(fmt.Sprintf("storage.deny[%d]", i), r)...)
	}
	diags = append(diags, checkStorageSelfContradiction(doc.Storage)...)

	for i, r := range doc.Network.Allow {
		diags = append(diags, validateNetworkRule(fmt.Sprintf("network.allow[%d]", i), r)...)
	}
	for i, r := range doc.Network.Deny {
		diags = append(diags, validateNetworkRule(fmt.Sprintf("network.deny[%d]", i), r)...)
	}

	if m := doc.Resources.Limits.Memory; m != "" {
		if _, err := ParseMemoryQuantity(m); err != nil {
			diags = append(diags, Diagnostic{"resources.limits.memory", err.Error()})
		}
	}
	if c := doc.Resources.Limits.CPU; c != "" {
		if _, err := ParseCPUQuantity(c, 1); err != nil {
			diags = append(diags, Diagnostic{"resources.limits.cpu", err.Error()})
		}
	}
	if doc.Resources.Limits.TimeoutMS < 0 {
		diags = append(diags, Diagnostic{"resources.limits.timeout_ms", "must be non-negative"})
	}
	if doc.Resources.Memory < 0 {
		diags = append(diags, Diagnostic{"resources.memory", "must be non-negative"})
	}

	return diags
}

func validateStorageRule(path string, r StorageRule) []Diagnostic {
	var diags []Diagnostic
	if !strings.HasPrefix(r.URI, "fs://") {
		diags = append(diags, Diagnostic{path + ".uri", fmt.Sprintf("must start with fs://, got %q", r.URI)})
	}
	if len(r.Access) == 0 {
		diags = append(diags, Diagnostic{path + ".access", "must name at least one access atom"})
	}
	for _, a := range r.Access {
		if !validAccess[a] {
			diags = append(diags, Diagnostic{path + ".access", fmt.Sprintf("unknown access atom %q", a)})
		}
	}
	return diags
}

func validateNetworkRule(path string, r NetworkRule) []Diagnostic {
	var diags []Diagnostic
	if r.Host == "" {
		diags = append(diags, Diagnostic{path + ".host", "must have a hostname"})
	} else {
		host := r.Host
		if strings.HasPrefix(host, "*.") {
			host = host[2:]
		}
		if host != "" {
			if _, err := url.Parse("https://" + host); err != nil {
				diags = append(diags, Diagnostic{path + ".host", fmt.Sprintf("invalid hostname %q: %v", r.Host, err)})
			}
		}
	}
	for _, p := range r.Ports {
		if p < 1 || p > 65535 {
			diags = append(diags, Diagnostic{path + ".ports", fmt.Sprintf("port %d out of range", p)})
		}
	}
	return diags
}

// checkStorageSelfContradiction flags deny entries that cannot possibly
// mean anything: an empty pattern, or an access set that is simultaneously
// empty and non-empty is impossible by construction, so the check here is
// the one the original's parser actually performs — an empty URI pattern
// on a deny entry, which denies nothing and is almost certainly a typo for
// "deny everything" (which should be spelled with "fs://**").
func checkStorageSelfContradiction(s Storage) []Diagnostic {
	var diags []Diagnostic
	for i, r := range s.Deny {
		if strings.TrimSpace(r.URI) == "" {
			diags = append(diags, Diagnostic{
				fmt.Sprintf("storage.deny[%d].uri", i),
				"empty deny pattern denies nothing; use fs://** to deny everything",
			})
		}
	}
	return diags
}
