package render

import (
	"encoding/base64"
	"os"
	"strings"
	"text/template"
)

// FuncMap returns template helpers for config rendering.
func FuncMap(tracker *EnvTracker) template.FuncMap {
	lookup := func(key string) (string, bool) {
		if tracker != nil {
			tracker.markUsed(key)
		}
		return os.LookupEnv(key)
	}
	return template.FuncMap{
		"env": func(key string) string {
			value, ok := lookup(key)
			if !ok && tracker != nil {
				tracker.markMissing(key)
			}
			return value
		},
		"envOr": func(key, def string) string {
			if value, ok := lookup(key); ok {
				return value
			}
			return def
		},
		"envList": func(key string) []string {
			value, _ := lookup(key)
			var out []string
			for _, item := range strings.Split(value, ",") {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			return out
		},
		// basicAuth builds an Authorization header value.
		"basicAuth": func(user, password string) string {
			return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
		},
		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},
		"ternary": func(cond bool, a, b string) string {
			if cond {
				return a
			}
			return b
		},
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"lower":      strings.ToLower,
		"upper":      strings.ToUpper,
		"trimPrefix": strings.TrimPrefix,
		"trimSuffix": strings.TrimSuffix,
		"replace":    strings.ReplaceAll,
	}
}
