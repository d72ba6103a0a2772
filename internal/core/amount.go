package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount reads a won amount the way the entry form does: leading
// whitespace is skipped, thousands separators and a trailing 원 are
// tolerated, and parsing stops at the first character that is not a
// digit. Anything unparseable or negative yields 0.
//
// Examples:
//
//	ParseAmount("12000")     -> 12000
//	ParseAmount("12,000원")  -> 12000
//	ParseAmount("15.7")      -> 15
//	ParseAmount("abc")       -> 0
//	ParseAmount("-300")      -> 0
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) || r > unicode.MaxASCII })
	if end >= 0 {
		s = s[:end]
	}
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
