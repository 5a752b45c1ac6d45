package common

import "strings"

// JoinURL joins a base URL and path segments with exactly one slash between
// each part, whatever trailing or leading slashes they carry.
func JoinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		out += "/" + p
	}
	return out
}
