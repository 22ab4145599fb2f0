package jsonvalue

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Marshal serializes v without insignificant whitespace.
func Marshal(v Value) string {
	var sb strings.Builder
	encode(&sb, v, "", 0)
	return sb.String()
}

// Indent serializes v with one indent per nesting level, a space after each
// key colon, and literal [] and {} for empty containers. With indent "  " the
// result matches JSON.stringify(value, null, 2).
func Indent(v Value, indent string) string {
	var sb strings.Builder
	encode(&sb, v, indent, 0)
	return sb.String()
}

func encode(sb *strings.Builder, v Value, indent string, level int) {
	switch v.kind {
	case Null:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(v.b))
	case Number:
		sb.WriteString(FormatNumber(v.n))
	case String:
		sb.WriteString(Quote(v.s))
	case Array:
		if len(v.elems) == 0 {
			sb.WriteString("[]")
			return
		}
		sb.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				sb.WriteByte(',')
			}
			newline(sb, indent, level+1)
			encode(sb, e, indent, level+1)
		}
		newline(sb, indent, level)
		sb.WriteByte(']')
	case Object:
		if len(v.members) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				sb.WriteByte(',')
			}
			newline(sb, indent, level+1)
			sb.WriteString(Quote(m.Key))
			sb.WriteByte(':')
			if indent != "" {
				sb.WriteByte(' ')
			}
			encode(sb, m.Value, indent, level+1)
		}
		newline(sb, indent, level)
		sb.WriteByte('}')
	}
}

func newline(sb *strings.Builder, indent string, level int) {
	if indent == "" {
		return
	}
	sb.WriteByte('\n')
	for i := 0; i < level; i++ {
		sb.WriteString(indent)
	}
}

// FormatNumber renders f the way JavaScript's Number#toString does: shortest
// round-trip digits, plain notation for 1e-6 <= |f| < 1e21 and exponent
// notation otherwise. Non-finite values have no JSON form and render as null.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}
	neg := f < 0
	if neg {
		f = -f
	}

	mant, expPart, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	k, n := len(digits), exp+1

	var out string
	switch {
	case k <= n && n <= 21:
		out = digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		out = digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		out = "0." + strings.Repeat("0", -n) + digits
	default:
		e := n - 1
		sign := "+"
		if e < 0 {
			sign, e = "-", -e
		}
		if k == 1 {
			out = digits + "e" + sign + strconv.Itoa(e)
		} else {
			out = digits[:1] + "." + digits[1:] + "e" + sign + strconv.Itoa(e)
		}
	}
	if neg {
		return "-" + out
	}
	return out
}

const hexDigits = "0123456789abcdef"

// Quote returns s as a JSON string literal. Only the quote, the backslash and
// control characters are escaped; everything else is emitted verbatim.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			i++
			continue
		}
		if c >= 0x20 && c != '"' && c != '\\' {
			i++
			continue
		}
		sb.WriteString(s[start:i])
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteString(`\u00`)
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0xF])
		}
		i++
		start = i
	}
	sb.WriteString(s[start:])
	sb.WriteByte('"')
	return sb.String()
}
