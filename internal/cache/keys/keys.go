// Package keys builds result cache keys for accessor requests.
package keys

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const prefix = "h3frame"

// Key identifies the result of op at res for the given query parameters and
// request body. Parameters are canonicalized so that ordering and repeated
// whitespace do not produce distinct keys.
func Key(op string, res int, params url.Values, body []byte) string {
	opNorm := sanitizeForKey(strings.TrimSpace(op))
	paramText := normalizeParams(params)
	paramSafe := sanitizeForKey(paramText)

	const maxParamTextLen = 160
	if len(paramSafe) > maxParamTextLen {
		paramSafe = paramSafe[:maxParamTextLen]
	}

	return fmt.Sprintf("%s:%s:%d:params=%s:p=%016x:b=%016x",
		prefix, opNorm, res, paramSafe, xxhash.Sum64String(paramText), xxhash.Sum64(body))
}

// CellSummary is the key under which the latest ingested summary for cell is
// stored.
func CellSummary(cell string) string {
	return prefix + ":cell:" + strings.ToLower(strings.TrimSpace(cell))
}

func normalizeParams(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		for _, val := range v[k] {
			parts = append(parts, strings.TrimSpace(k)+"="+collapseASCIIWhitespace(val))
		}
	}
	return strings.Join(parts, ",")
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '=' || r == ',':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
