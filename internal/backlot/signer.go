// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backlot

import (
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// signatureLength is the number of base64 characters kept from the digest.
const signatureLength = 43

// Sign computes the catalog API request signature:
// base64(sha256(secret + method + path + k1=v1k2=v2...)) with the query
// pairs sorted by key, truncated to 43 characters and stripped of '=' padding.
// A nil query is treated as empty.
func Sign(secretKey, method, path string, query map[string]string) string {
	sum := sha256.Sum256([]byte(secretKey + method + path + ConcatQuery(query)))
	sig := base64.StdEncoding.EncodeToString(sum[:])
	if len(sig) > signatureLength {
		sig = sig[:signatureLength]
	}
	return strings.TrimRight(sig, "=")
}

// SignValues is Sign for url.Values; only the first value of each key takes part.
func SignValues(secretKey, method, path string, query url.Values) string {
	flat := make(map[string]string, len(query))
	for k, vs := range query {
		if len(vs) > 0 {
			flat[k] = vs[0]
		}
	}
	return Sign(secretKey, method, path, flat)
}

// ConcatQuery joins the query as key=value pairs ordered by key, without separators.
func ConcatQuery(query map[string]string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(query[k])
	}
	return b.String()
}
