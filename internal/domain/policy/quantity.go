package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMemoryQuantity parses a Kubernetes-style memory quantity ("512Mi",
// "1Gi", "1024" meaning bytes) into a byte count. Grounded in the original
// implementation's wasistate.rs::extract_memory_limit suffix rules: binary
// (Ki/Mi/Gi) suffixes only — this project does not need the decimal
// (k/M/G) family Kubernetes also accepts, because policy documents in this
// domain are hand-authored, not generated by a Kubernetes quantity
// library. No third-party Kubernetes-quantity parser appears anywhere in
// the dependency surface this project draws on; this is a small,
// self-contained parser rather than a general Kubernetes quantity grammar.
func ParseMemoryQuantity(s string) (bytes int64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("policy: empty memory quantity")
	}
	mult := int64(1)
	numPart := s
	switch {
	case strings.HasSuffix(s, "Ki"):
		mult = 1 << 10
		numPart = strings.TrimSuffix(s, "Ki")
	case strings.HasSuffix(s, "Mi"):
		mult = 1 << 20
		numPart = strings.TrimSuffix(s, "Mi")
	case strings.HasSuffix(s, "Gi"):
		mult = 1 << 30
		numPart = strings.TrimSuffix(s, "Gi")
	}
	n, perr := strconv.ParseInt(numPart, 10, 64)
	if perr != nil {
		return 0, fmt.Errorf("policy: invalid memory quantity %q: %w", s, perr)
	}
	if n < 0 {
		return 0, fmt.Errorf("policy: negative memory quantity %q", s)
	}
	return n * mult, nil
}

// ParseCPUQuantity parses a Kubernetes-style CPU quantity ("500m" = 0.5,
// "1" = 1, "2" = 2) into a fuel multiplier, then scales it by
// baseFuelPerCPU to produce the Executor's fuel ceiling. "m" denotes
// milli-units exactly as Kubernetes CPU requests do.
func ParseCPUQuantity(s string, baseFuelPerCPU uint64) (fuel uint64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("policy: empty cpu quantity")
	}
	if strings.HasSuffix(s, "m") {
		milli, perr := strconv.ParseInt(strings.TrimSuffix(s, "m"), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("policy: invalid cpu quantity %q: %w", s, perr)
		}
		if milli < 0 {
			return 0, fmt.Errorf("policy: negative cpu quantity %q", s)
		}
		return uint64(milli) * baseFuelPerCPU / 1000, nil
	}
	whole, perr := strconv.ParseFloat(s, 64)
	if perr != nil {
		return 0, fmt.Errorf("policy: invalid cpu quantity %q: %w", s, perr)
	}
	if whole < 0 {
		return 0, fmt.Errorf("policy: negative cpu quantity %q", s)
	}
	return uint64(whole * float64(baseFuelPerCPU)), nil
}

// EffectiveMemoryBytes resolves Limits.Memory (k8s-style, preferred) or the
// legacy Resources.Memory bare-MiB field, exactly mirroring the original's
// precedence: structured limits win when present.
func (r Resources) EffectiveMemoryBytes() (bytes int64, explicit bool, err error) {
	if r.Limits.Memory != "" {
		b, err := ParseMemoryQuantity(r.Limits.Memory)
		return b, true, err
	}
	if r.Memory > 0 {
		return int64(r.Memory) * (1 << 20), true, nil
	}
	return 0, false, nil
}
