package registry

import (
	"fmt"
	"strings"
)

// ParsePath checks a path template and returns its parameter names in order.
// Parameters must span a whole segment: /v1/positions/{name}.
func ParsePath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path %q must start with /", ErrMalformedSchema, path)
	}

	var names []string
	seen := make(map[string]bool)
	for _, seg := range strings.Split(path[1:], "/") {
		open, close := strings.Count(seg, "{"), strings.Count(seg, "}")
		if open == 0 && close == 0 {
			continue
		}
		if open != 1 || close != 1 || !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			return nil, fmt.Errorf("%w: path %q: parameter must be a whole segment", ErrMalformedSchema, path)
		}
		name := seg[1 : len(seg)-1]
		if !validParamName(name) {
			return nil, fmt.Errorf("%w: path %q: invalid parameter name %q", ErrMalformedSchema, path, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: path %q: parameter %q repeated", ErrMalformedSchema, path, name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// NormalizePath erases parameter names and trailing slashes so templates
// that match the same requests compare equal.
func NormalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			segs[i] = "{}"
		}
	}
	return strings.Join(segs, "/")
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
