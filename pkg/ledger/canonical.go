package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// canonicalJSON renders v (built from maps, slices, strings, float64/int,
// bool, nil) into the fixed-key-order, whitespace-free JSON form that
// entryHash and marketSnapshotHash are computed over: object keys in
// ASCII-sort order, numbers in shortest round-trip form, arrays in
// insertion order, UTF-8 strings.
func canonicalJSON(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		writeCanonicalString(b, t)
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		b.WriteString(formatShortestFloat(t))
	case map[string]any:
		writeCanonicalObject(b, t)
	case []any:
		writeCanonicalArray(b, t)
	case []string:
		arr := make([]any, len(t))
		for i, s := range t {
			arr[i] = s
		}
		writeCanonicalArray(b, arr)
	case [2]any:
		writeCanonicalArray(b, []any{t[0], t[1]})
	default:
		// Should not happen for well-formed callers; render via fmt as a
		// last resort so hashing never panics on an unexpected field type.
		writeCanonicalString(b, fmt.Sprintf("%v", t))
	}
}

func writeCanonicalObject(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonicalString(b, k)
		b.WriteByte(':')
		writeCanonical(b, m[k])
	}
	b.WriteByte('}')
}

func writeCanonicalArray(b *strings.Builder, arr []any) {
	b.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonical(b, item)
	}
	b.WriteByte(']')
}

func writeCanonicalString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// formatShortestFloat renders f in the shortest decimal form that
// round-trips back to f, matching canonical-JSON's numeric rule.
func formatShortestFloat(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
