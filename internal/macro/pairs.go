package macro

import "strings"

// ParsePairs parses the comma-separated "NAME=value,NAME=value" form used
// by load commands and nested-script invocations. Values may be quoted to
// protect commas. Entries with no '=' or an empty name are skipped; a later
// duplicate name overwrites an earlier one, matching shell behavior.
func ParsePairs(text string) map[string]string {
	pairs := make(map[string]string)
	for _, part := range splitPairs(text) {
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		pairs[name] = unquote(strings.TrimSpace(value))
	}
	return pairs
}

// splitPairs splits at commas outside quotes.
func splitPairs(text string) []string {
	var parts []string
	var b strings.Builder
	var quote byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			b.WriteByte(ch)
		case ch == '"' || ch == '\'':
			quote = ch
			b.WriteByte(ch)
		case ch == ',':
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(ch)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// unquote strips one layer of matched surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
