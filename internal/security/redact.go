package security

import (
	"net/http"
	"net/url"
	"strings"
)

const mask = "***"

var sensitiveSubstrings = []string{
	"token",
	"password",
	"authorization",
	"apikey",
	"api_key",
	"api-key",
	"access_key",
	"private_key",
	"credentials",
	"auth",
	"passwd",
	"key",
	"sig",
	"signature",
	"cookie",
	"session",
	"jwt",
	"bearer",
	"credential",
	"pwd",
	"passphrase",
	"secret",
}

var allowList = map[string]struct{}{
	"secret_name":  {},
	"content-type": {},
	"accept":       {},
}

// RedactArguments returns a copy of arguments with sensitive values replaced.
func RedactArguments(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	redacted := make(map[string]any, len(values))
	for key, value := range values {
		if IsSensitiveKey(key) {
			redacted[key] = mask
			continue
		}
		redacted[key] = value
	}
	return redacted
}

// RedactHeaders flattens headers for logging with sensitive values masked.
func RedactHeaders(header http.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string]string, len(header))
	for key, values := range header {
		if IsSensitiveKey(key) {
			out[key] = mask
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// RedactURL masks user info and sensitive query parameters. Unparseable
// input is returned without its query string.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		base, _, _ := strings.Cut(raw, "?")
		return base
	}
	if parsed.User != nil {
		parsed.User = url.User(mask)
	}
	if parsed.RawQuery != "" {
		query := parsed.Query()
		for key := range query {
			if IsSensitiveKey(key) {
				query.Set(key, mask)
			}
		}
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

// IsSensitiveKey reports whether a key name looks like it carries a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	if _, ok := allowList[lower]; ok {
		return false
	}
	if strings.Contains(lower, "secret") && strings.Contains(lower, "name") {
		return false
	}
	for _, part := range sensitiveSubstrings {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
