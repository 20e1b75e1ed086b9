// Package settings parses the compact settings string attached to custom
// events, e.g. "live=true;format=hprof".
package settings

import "strings"

// Parse splits s into key/value pairs. Entries are separated by ';' and key
// and value by '='. An entry without '=' maps the key to the empty string,
// and only the first two '=' separated segments of an entry are used, so
// "a=b=c" yields a -> b. Blank entries and entries with an empty key are
// skipped, and a repeated key keeps its last value. Surrounding whitespace
// of keys and values is removed.
func Parse(s string) map[string]string {
	result := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return result
	}

	for _, entry := range strings.Split(s, ";") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		parts := strings.Split(entry, "=")
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := ""
		if len(parts) > 1 {
			value = strings.TrimSpace(parts[1])
		}
		result[key] = value
	}
	return result
}
