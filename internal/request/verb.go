package request

import "strings"

// Verb is the HTTP method an executor is bound to.
type Verb string

// Well-known verbs.
const (
	GET     Verb = "GET"
	POST    Verb = "POST"
	PUT     Verb = "PUT"
	DELETE  Verb = "DELETE"
	PATCH   Verb = "PATCH"
	HEAD    Verb = "HEAD"
	OPTIONS Verb = "OPTIONS"
)

// Normalize returns the verb trimmed and upper-cased.
func (v Verb) Normalize() Verb {
	return Verb(strings.ToUpper(strings.TrimSpace(string(v))))
}

// Valid reports whether v is a non-empty RFC 7230 token.
func (v Verb) Valid() bool {
	if v == "" {
		return false
	}
	for _, r := range string(v) {
		if !isTokenChar(r) {
			return false
		}
	}
	return true
}

func (v Verb) String() string {
	return string(v)
}

func isTokenChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("!#$%&'*+-.^_`|~", r)
}
