package models

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// numberRegexp matches a plain decimal once currency symbols and
	// thousands separators are stripped.
	numberRegexp = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?$`)

	// missingTokens are spellings of "no value" found in exported datasets.
	missingTokens = map[string]struct{}{
		"": {}, "nan": {}, "null": {}, "na": {}, "n/a": {}, "none": {},
	}
)

// ParseNumber converts values like "12000", "12000.0", "$1,200" or "1e4".
// Missing or unparseable values return an invalid NullFloat64 and false.
func ParseNumber(raw string) (sql.NullFloat64, bool) {
	if IsMissing(raw) {
		return sql.NullFloat64{}, false
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == '$' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if !numberRegexp.MatchString(cleaned) {
		return sql.NullFloat64{}, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return sql.NullFloat64{}, false
	}
	return sql.NullFloat64{Float64: f, Valid: true}, true
}

// IsMissing reports whether raw spells an absent value.
func IsMissing(raw string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
