package http

import (
	"net/url"
	"strings"
)

// QueryParam is a single key/value pair of a query string.
type QueryParam struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. Keys are encoded in insertion
// order and may repeat.
type Query []QueryParam

// NewQuery returns an empty query.
func NewQuery() Query {
	return Query{}
}

// Add appends a parameter and returns the extended query.
func (q Query) Add(key, value string) Query {
	return append(q, QueryParam{Key: key, Value: value})
}

// Encode renders the query as k=v pairs joined with '&'. It returns an empty
// string for an empty query.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	parts := make([]string, 0, len(q))
	for _, p := range q {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// buildURL joins base and path and appends the encoded query. An absolute
// http(s) path ignores the base.
func buildURL(base, path string, query Query) string {
	target := path
	if !isAbsoluteURL(path) {
		if strings.HasSuffix(base, "/") && strings.HasPrefix(path, "/") {
			path = path[1:]
		}
		target = base + path
	}

	encoded := query.Encode()
	if encoded == "" {
		return target
	}
	if strings.Contains(target, "?") {
		return target + "&" + encoded
	}
	return target + "?" + encoded
}

func isAbsoluteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
