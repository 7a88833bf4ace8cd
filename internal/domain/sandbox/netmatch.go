package sandbox

import "strings"

type netEntry struct {
	host     string // may start with "*." for a single leading wildcard label
	ports    []int  // empty means "any port"
	protocol string // empty means "any scheme"
	allow    bool
}

// NetMatcher is the compiled network lookup structure of spec.md §4.C:
// host pattern first, then port set, then scheme, with deny winning ties
// and the most specific host match winning among same-polarity entries.
type NetMatcher struct {
	entries []netEntry
}

func NewNetMatcher() *NetMatcher {
	return &NetMatcher{}
}

// AddRule compiles one network permission into the matcher.
func (m *NetMatcher) AddRule(host string, ports []int, protocol string, allow bool) {
	m.entries = append(m.entries, netEntry{host: host, ports: ports, protocol: protocol, allow: allow})
}

// Decide answers "may I connect to host:port over scheme?".
func (m *NetMatcher) Decide(host string, port int, scheme string) Decision {
	var best *netEntry
	bestSpecificity := -1
	for i := range m.entries {
		e := &m.entries[i]
		if !hostMatch(e.host, host) {
			continue
		}
		if len(e.ports) > 0 && !containsPort(e.ports, port) {
			continue
		}
		if e.protocol != "" && !strings.EqualFold(e.protocol, scheme) {
			continue
		}
		spec := specificity(e)
		if best == nil || spec > bestSpecificity || (spec == bestSpecificity && !e.allow && best.allow) {
			best = e
			bestSpecificity = spec
		}
	}
	if best == nil {
		return deny("no matching network rule")
	}
	if best.allow {
		return allow("matched allow rule for " + best.host)
	}
	return deny("matched deny rule for " + best.host)
}

// specificity ranks a rule by how narrowly it matches: exact host beats
// wildcard host, and a bound port/scheme beats an unbound one.
func specificity(e *netEntry) int {
	s := 0
	if !strings.HasPrefix(e.host, "*.") {
		s += 4
	}
	if len(e.ports) > 0 {
		s += 2
	}
	if e.protocol != "" {
		s++
	}
	return s
}

func hostMatch(pattern, host string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:] // ".example.com"
		return strings.HasSuffix(host, suffix) && host != strings.TrimPrefix(suffix, ".")
	}
	return strings.EqualFold(pattern, host)
}

func containsPort(ports []int, p int) bool {
	for _, x := range ports {
		if x == p {
			return true
		}
	}
	return false
}
