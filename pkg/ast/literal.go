package ast

import (
	"strconv"
	"strings"
)

// UnquoteLiteral strips the encoding prefix and quotes of a string or character
// literal and decodes its escape sequences.
func UnquoteLiteral(text string, quote byte) string {
	start := strings.IndexByte(text, quote)
	end := strings.LastIndexByte(text, quote)
	if start < 0 || end <= start {
		return ""
	}
	return decodeEscapes(text[start+1 : end])
}

// UnquoteRaw decodes R"delim(...)delim".
func UnquoteRaw(text string) string {
	open := strings.IndexByte(text, '"')
	paren := strings.IndexByte(text, '(')
	if open < 0 || paren < open {
		return ""
	}
	delim := text[open+1 : paren]
	closing := ")" + delim + "\""
	end := strings.LastIndex(text, closing)
	if end < paren {
		return ""
	}
	return text[paren+1 : end]
}

func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'x':
			j := i + 1
			for j < len(s) && isHex(s[j]) {
				j++
			}
			if v, err := strconv.ParseUint(s[i+1:j], 16, 8); err == nil {
				b.WriteByte(byte(v))
			}
			i = j - 1
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			if v, err := strconv.ParseUint(s[i:j], 8, 8); err == nil {
				b.WriteByte(byte(v))
			}
			i = j - 1
		case '\n':
			// line continuation
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
