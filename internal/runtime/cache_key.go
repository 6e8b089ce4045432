package runtime

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/codex-k8s/http-executor/internal/constants"
	"github.com/codex-k8s/http-executor/internal/request"
)

// exchangeKey scopes idempotency keys by tool and verb.
type exchangeKey struct {
	tool string
	verb request.Verb
}

// replayable reports whether an exchange with verb may be served from the
// cache without a caller supplied identifier.
func replayable(verb request.Verb) bool {
	switch verb {
	case request.GET, request.HEAD, request.OPTIONS, request.PUT, request.DELETE:
		return true
	default:
		return false
	}
}

// build returns the cache key for one rendered exchange, or "" when the
// exchange must not be cached.
func (k exchangeKey) build(strategy, corrID string, providedID bool, args map[string]any, req request.Request) (string, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case constants.CacheKeyStrategyCorrelationID:
		if !providedID {
			return "", nil
		}
		return k.format("id", corrID), nil
	case constants.CacheKeyStrategyArgumentsHash:
		digest, err := argumentsDigest(args)
		if err != nil {
			return "", err
		}
		return k.format("args", digest), nil
	case constants.CacheKeyStrategyRequestHash:
		digest, err := requestDigest(req)
		if err != nil {
			return "", err
		}
		return k.format("req", digest), nil
	case "", constants.CacheKeyStrategyAuto:
		if providedID {
			return k.format("id", corrID), nil
		}
		if !replayable(k.verb) {
			return "", nil
		}
		digest, err := requestDigest(req)
		if err != nil {
			return "", err
		}
		return k.format("req", digest), nil
	default:
		return "", fmt.Errorf("unsupported cache key strategy: %s", strategy)
	}
}

func (k exchangeKey) format(source, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s:%s", k.tool, k.verb, source, value)
}

// argumentsDigest hashes the tool arguments without the reserved ones.
// encoding/json sorts map keys, so equal arguments give equal digests.
func argumentsDigest(args map[string]any) (string, error) {
	filtered := make(map[string]any, len(args))
	for key, value := range args {
		switch key {
		case constants.ArgCorrelationID, constants.ArgRequestID, constants.ArgResponseFormat:
		default:
			filtered[key] = value
		}
	}
	return digest(filtered)
}

// requestDigest hashes what goes on the wire: target, headers and body.
// The correlation header differs per call and is left out.
func requestDigest(req request.Request) (string, error) {
	target, err := req.Target()
	if err != nil {
		return "", err
	}
	header := req.Header()
	header.Del("X-Correlation-ID")
	return digest(struct {
		Target string      `json:"target"`
		Header http.Header `json:"header"`
		Body   any         `json:"body,omitempty"`
	}{Target: target, Header: header, Body: req.Body()})
}

func digest(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("hash cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
