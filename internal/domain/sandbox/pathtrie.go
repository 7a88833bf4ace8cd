package sandbox

import "strings"

// pathEntry is one compiled storage rule: a literal prefix (the longest
// literal segment run before the first glob character) plus the glob
// pattern for everything after it, the access atoms it grants or denies,
// and its polarity.
type pathEntry struct {
	prefix string
	glob   string // remainder pattern, may contain "*" (one segment) and "**" (any depth)
	access map[string]bool
	allow  bool
}

// PathTrie is the compiled storage lookup structure of spec.md §4.C: a
// path-trie keyed on canonical prefix, with pre-opened-directory intent
// carried by Prefixes(). Despite the name it is backed by a slice sorted
// by prefix length (longest first) rather than a literal segment tree —
// with the small rule counts a compiled policy has (tens, not millions),
// a linear scan over pre-sorted entries is within the "near-constant time"
// bound spec.md §4.C asks for, and is far simpler to get right than a
// segment trie with wildcard fan-out at every level.
type PathTrie struct {
	entries []pathEntry
}

// NewPathTrie returns an empty trie: every Decide call denies.
func NewPathTrie() *PathTrie {
	return &PathTrie{}
}

// AddRule compiles one fs:// pattern into the trie. Pattern is of the form
// "fs:///literal/prefix/**" or "fs:///literal/prefix/*.txt"; the scheme is
// stripped by the caller (policy/compile.go) before AddRule is called.
func (t *PathTrie) AddRule(pattern string, access []string, allow bool) {
	prefix, glob := splitGlobPrefix(pattern)
	set := make(map[string]bool, len(access))
	for _, a := range access {
		set[a] = true
	}
	t.entries = append(t.entries, pathEntry{prefix: prefix, glob: glob, access: set, allow: allow})
	// Longest prefix first so Decide's linear scan finds the most specific
	// match first without needing a second pass to compare lengths.
	sortByPrefixLenDesc(t.entries)
}

// Prefixes returns the distinct literal prefixes of every allow rule, for
// the Executor to pre-open as directory handles before instantiation.
func (t *PathTrie) Prefixes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.entries {
		if !e.allow {
			continue
		}
		if !seen[e.prefix] {
			seen[e.prefix] = true
			out = append(out, e.prefix)
		}
	}
	return out
}

// Decide answers "may I open path for access?" per spec.md §4.C's
// permission decision function: the polarity of the most-specific
// matching rule, deny on tie, deny if nothing matches.
func (t *PathTrie) Decide(path, access string) Decision {
	for _, e := range t.entries {
		if !strings.HasPrefix(path, e.prefix) {
			continue
		}
		if !matchGlob(e.glob, strings.TrimPrefix(path, e.prefix)) {
			continue
		}
		if !e.access[access] {
			continue
		}
		if e.allow {
			return allow("matched allow rule for " + e.prefix + e.glob)
		}
		return deny("matched deny rule for " + e.prefix + e.glob)
	}
	return deny("no matching storage rule")
}

// splitGlobPrefix splits a pattern into its literal longest-prefix and the
// remaining glob suffix. "/tmp/cache/**" -> ("/tmp/cache/", "**").
func splitGlobPrefix(pattern string) (prefix, glob string) {
	idx := strings.IndexAny(pattern, "*?")
	if idx == -1 {
		return pattern, ""
	}
	// Back up to the last path separator before the first glob char so the
	// literal prefix is always a whole-segment boundary.
	sep := strings.LastIndex(pattern[:idx], "/")
	if sep == -1 {
		return "", pattern
	}
	return pattern[:sep+1], pattern[sep+1:]
}

// matchGlob matches a path remainder against a glob suffix supporting "*"
// (matches within one segment) and "**" (matches any remaining depth,
// including zero segments).
func matchGlob(glob, remainder string) bool {
	if glob == "" {
		return remainder == ""
	}
	if glob == "**" {
		return true
	}
	gSegs := strings.Split(glob, "/")
	rSegs := strings.Split(remainder, "/")
	return matchSegments(gSegs, rSegs)
}

func matchSegments(g, r []string) bool {
	for len(g) > 0 {
		if g[0] == "**" {
			if len(g) == 1 {
				return true
			}
			for i := range r {
				if matchSegments(g[1:], r[i:]) {
					return true
				}
			}
			return matchSegments(g[1:], nil)
		}
		if len(r) == 0 {
			return false
		}
		if !matchSegment(g[0], r[0]) {
			return false
		}
		g, r = g[1:], r[1:]
	}
	return len(r) == 0
}

func matchSegment(pattern, seg string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == seg
	}
	// single "*" within a segment, e.g. "*.txt"
	parts := strings.SplitN(pattern, "*", 2)
	return strings.HasPrefix(seg, parts[0]) && strings.HasSuffix(seg, parts[1])
}

// sortByPrefixLenDesc orders entries so Decide's linear scan finds the most
// specific match first, and on a prefix-length tie prefers deny over allow
// (spec.md §4.C: "deny entries... override any allow at equal or shorter
// prefix").
func sortByPrefixLenDesc(entries []pathEntry) {
	less := func(a, b pathEntry) bool {
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		// deny (allow=false) sorts first on a tie
		return !a.allow && b.allow
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && less(entries[j], entries[j-1]); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
