package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Compiled regex patterns for query preprocessing
var (
	// Runs of Latin letters, digits and Hangul syllables
	tokenPattern = regexp.MustCompile(`[0-9a-zA-Z가-힣]+`)

	// First size expression in a string, e.g. "1.5kg", "900 ml", "30구"
	sizeMetricPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|g|mg|l|ml|ea|구|리터|밀리리터)`)
)

const (
	maxSearchTokens   = 3
	minSearchTokenLen = 2
)

// QueryPreprocessor turns free-text item names into comparable forms
type QueryPreprocessor struct {
	log *zap.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(log *zap.Logger) *QueryPreprocessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryPreprocessor{log: log}
}

// SearchPatterns returns the catalog LIKE patterns for query: the query
// itself followed by its first three tokens of at least two characters.
func (p *QueryPreprocessor) SearchPatterns(query string) []string {
	patterns := []string{query}
	for _, token := range tokenize(query) {
		if len(patterns) > maxSearchTokens {
			break
		}
		if utf8.RuneCountInString(token) < minSearchTokenLen {
			continue
		}
		patterns = append(patterns, token)
	}

	p.log.Debug("search patterns", zap.String("query", query), zap.Strings("patterns", patterns))
	return patterns
}

// normalize lowercases s and keeps only its token characters
func normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(tokenPattern.FindAllString(strings.ToLower(s), -1), "")
}

// tokenize splits s into lowercase tokens
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// sizeMetric converts the first size expression in text to a value in a base
// unit (g, ml or ea).
func sizeMetric(text string) (float64, string, bool) {
	m := sizeMetricPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}

	switch strings.ToLower(m[2]) {
	case "kg":
		return value * 1000, "g", true
	case "g":
		return value, "g", true
	case "mg":
		return value / 1000, "g", true
	case "l", "리터":
		return value * 1000, "ml", true
	case "ml", "밀리리터":
		return value, "ml", true
	case "ea", "구":
		return value, "ea", true
	}
	return 0, "", false
}

// isBrandMatch reports whether two brands are equal or one contains the other
func isBrandMatch(candidate, requested string) bool {
	c, r := normalize(candidate), normalize(requested)
	if c == "" || r == "" {
		return false
	}
	return c == r || strings.Contains(c, r) || strings.Contains(r, c)
}

// isSizeMatch reports whether candidate is within sizeTolerance of requested.
// Sizes without a recognizable unit must match textually.
func isSizeMatch(candidate, requested string) bool {
	if normalize(candidate) == "" || normalize(requested) == "" {
		return false
	}
	if ratio, comparable := sizeDistanceRatio(candidate, requested); comparable {
		return ratio <= sizeTolerance
	}
	if _, _, ok := sizeMetric(candidate); ok {
		return false
	}
	if _, _, ok := sizeMetric(requested); ok {
		return false
	}
	return normalize(candidate) == normalize(requested)
}

// sizeDistanceRatio is |candidate - requested| / requested in a shared unit.
// comparable is false when either side has no size or the units differ.
func sizeDistanceRatio(candidate, requested string) (ratio float64, comparable bool) {
	cValue, cUnit, cOK := sizeMetric(candidate)
	rValue, rUnit, rOK := sizeMetric(requested)
	if !cOK || !rOK || cUnit != rUnit || rValue <= 0 {
		return 0, false
	}
	diff := cValue - rValue
	if diff < 0 {
		diff = -diff
	}
	return diff / rValue, true
}
