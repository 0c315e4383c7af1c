package provider

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// chinaTime is the exchange-local zone used for display timestamps.
var chinaTime = time.FixedZone("CST", 8*3600)

const displayTimeLayout = "01-02 15:04"

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return parseFloatString(n)
	default:
		return 0
	}
}

func parseFloatString(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" || v == "--" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}

// sanitizeText collapses whitespace and caps the result at maxRunes runes.
func sanitizeText(in string, maxRunes int) string {
	in = strings.Join(strings.Fields(in), " ")
	if maxRunes > 0 && utf8.RuneCountInString(in) > maxRunes {
		r := []rune(in)
		in = string(r[:maxRunes])
	}
	return in
}
