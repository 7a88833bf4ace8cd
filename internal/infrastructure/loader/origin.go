// Package loader implements the Loader of spec.md §4.A: resolving an
// origin reference against one of the file, https, or oci schemes and
// delivering the resulting bytes plus provenance.
package loader

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/microsoft/wassette/internal/domain/component"
)

// ParseOrigin parses raw against spec.md §6's origin URI grammar, rejecting
// any scheme other than file/https/oci, relative filesystem paths, and
// non-.wasm local paths.
func ParseOrigin(raw string) (component.Origin, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return component.Origin{}, fmt.Errorf("loader: invalid origin %q: %w", raw, err)
	}

	switch u.Scheme {
	case "file":
		p := u.Path
		if p == "" {
			return component.Origin{}, fmt.Errorf("loader: file origin missing path: %q", raw)
		}
		if !path.IsAbs(p) {
			return component.Origin{}, fmt.Errorf("loader: file origin must be absolute: %q", raw)
		}
		if !strings.HasSuffix(p, ".wasm") {
			return component.Origin{}, fmt.Errorf("loader: file origin must reference a .wasm file: %q", raw)
		}
		return component.Origin{Scheme: component.SchemeFile, Raw: raw, Path: p}, nil

	case "https":
		if u.Host == "" {
			return component.Origin{}, fmt.Errorf("loader: https origin missing host: %q", raw)
		}
		return component.Origin{Scheme: component.SchemeHTTPS, Raw: raw, URL: raw}, nil

	case "oci":
		reg, repo, tag, digest, err := parseOCIRef(u)
		if err != nil {
			return component.Origin{}, err
		}
		return component.Origin{
			Scheme: component.SchemeOCI, Raw: raw,
			Registry: reg, Repository: repo, Tag: tag, Digest: digest,
		}, nil

	default:
		return component.Origin{}, fmt.Errorf("loader: unsupported origin scheme %q", u.Scheme)
	}
}

// parseOCIRef parses "oci://registry/repository(:tag|@digest)".
func parseOCIRef(u *url.URL) (registry, repository, tag, digest string, err error) {
	registry = u.Host
	if registry == "" {
		return "", "", "", "", fmt.Errorf("loader: oci origin missing registry host")
	}
	rest := strings.TrimPrefix(u.Path, "/")
	if rest == "" {
		return "", "", "", "", fmt.Errorf("loader: oci origin missing repository")
	}
	if idx := strings.Index(rest, "@"); idx != -1 {
		return registry, rest[:idx], "", rest[idx+1:], nil
	}
	if idx := strings.LastIndex(rest, ":"); idx != -1 {
		return registry, rest[:idx], rest[idx+1:], "", nil
	}
	return registry, rest, "latest", "", nil
}
