package policy

import (
	"math"
	"strings"
)

// Op is the action of a directive.
type Op uint8

const (
	OpEnable   Op = iota // +name
	OpDisable            // -name
	OpSetLevel           // ^name=N
)

func (o Op) String() string {
	switch o {
	case OpEnable:
		return "enable"
	case OpDisable:
		return "disable"
	case OpSetLevel:
		return "set-level"
	}
	return "unknown"
}

// Directive is one parsed action targeting a single kind.
type Directive struct {
	Kind  Kind
	Op    Op
	Level uint32
}

func (d Directive) String() string {
	switch d.Op {
	case OpEnable:
		return "+" + d.Kind.String()
	case OpDisable:
		return "-" + d.Kind.String()
	}
	return "^" + d.Kind.String() + "=" + formatUint(d.Level)
}

// ParseDirectives extracts the directives for kind k carried by one
// directive string. Tokens are located by substring search, so a single
// string such as "+sub,^sub=3,-fla:" can carry several directives for
// different kinds.
//
// The result is in evaluation order. A disable token, when present, is
// returned alone since it ends evaluation. Otherwise an enable token comes
// before a level token. A level token is accepted only if nothing but
// spaces or tabs separates the name from the first following '=', and the
// value parses as an unsigned number; text after the number is ignored.
func ParseDirectives(s string, k Kind) []Directive {
	name := k.String()
	if strings.Contains(s, "-"+name) {
		return []Directive{{Kind: k, Op: OpDisable}}
	}

	var out []Directive
	if strings.Contains(s, "+"+name) {
		out = append(out, Directive{Kind: k, Op: OpEnable})
	}
	if level, ok := parseLevelToken(s, "^"+name); ok {
		out = append(out, Directive{Kind: k, Op: OpSetLevel, Level: level})
	}
	return out
}

func parseLevelToken(s, token string) (uint32, bool) {
	pos := strings.Index(s, token)
	if pos < 0 {
		return 0, false
	}
	eq := strings.IndexByte(s[pos+1:], '=')
	if eq < 0 {
		return 0, false
	}
	eq += pos + 1
	start := pos + len(token)
	if start > eq {
		return 0, false
	}
	for _, c := range s[start:eq] {
		if c != ' ' && c != '\t' {
			return 0, false
		}
	}
	return ParseLevel(s[eq+1:])
}

// ParseLevel reads an unsigned number from the start of s the way C's
// strtoul does with base 0: leading whitespace and a '+' are skipped, a
// 0x prefix selects hexadecimal and a leading 0 octal, and parsing stops
// at the first character that is not a digit. It fails when no digit is
// found or the number is negative. Values beyond uint32 saturate.
func ParseLevel(s string) (uint32, bool) {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	if strings.HasPrefix(s, "-") {
		return 0, false
	}
	s = strings.TrimPrefix(s, "+")

	base := uint64(10)
	switch {
	case len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") && digitValue(s[2]) < 16:
		base = 16
		s = s[2:]
	case len(s) > 1 && s[0] == '0':
		base = 8
	}

	var v uint64
	n := 0
	for ; n < len(s); n++ {
		d := digitValue(s[n])
		if d >= base {
			break
		}
		if v > (math.MaxUint32-d)/base {
			v = math.MaxUint32 + 1
			continue
		}
		v = v*base + d
	}
	if n == 0 {
		return 0, false
	}
	return uint32(min(v, math.MaxUint32)), true
}

func digitValue(c byte) uint64 {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0')
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return uint64(c-'A') + 10
	}
	return 99
}

func formatUint(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
