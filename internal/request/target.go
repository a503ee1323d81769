package request

import "strings"

// ParseTarget splits a raw request target into its path and query
// parameters. Nothing is percent-decoded. Empty pairs and pairs without a
// name are skipped; a pair without '=' maps to the empty string. When a
// name repeats, the first value is kept.
func ParseTarget(target string) (string, map[string]string) {
	path, rawQuery, _ := strings.Cut(target, "?")
	return path, parseQuery(rawQuery)
}

func parseQuery(rawQuery string) map[string]string {
	params := make(map[string]string)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		if _, seen := params[key]; seen {
			continue
		}
		params[key] = val
	}
	return params
}
