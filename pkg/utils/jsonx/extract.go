// Package jsonx extracts JSON bodies from LLM responses. Models asked
// for strict JSON still tend to wrap it in a markdown code fence, so
// every LLM-JSON call site shares this extraction instead of ad-hoc
// string splitting.
package jsonx

import "strings"

// Extract returns the JSON body of s. If s contains a ```json fenced
// block the content of the first such block is returned; otherwise the
// first generic ``` fence is used; otherwise the whole trimmed body is
// treated as JSON.
func Extract(s string) string {
	if body, ok := fenced(s, "```json"); ok {
		return body
	}
	if body, ok := fenced(s, "```"); ok {
		return body
	}
	return strings.TrimSpace(s)
}

// fenced finds the first block opened by marker and closed by ```
func fenced(s, marker string) (string, bool) {
	start := strings.Index(s, marker)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
