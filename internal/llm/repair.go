// Package llm contains the plumbing between the classifier prompt and a
// parsed classification: JSON extraction from mixed text responses, repair
// of malformed JSON, and a resilient call wrapper. Models drift; the repair
// path keeps a slightly-off response from turning into a dropped reply.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// RepairStats tracks what a repair pass did to a response.
type RepairStats struct {
	OriginalBytes    int           `json:"original_bytes"`
	RepairedBytes    int           `json:"repaired_bytes"`
	ErrorsFixed      int           `json:"errors_fixed"`
	RepairTime       time.Duration `json:"repair_time"`
	RepairStrategies []string      `json:"repair_strategies"`
	WasRepaired      bool          `json:"was_repaired"`
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*:)`)
	singleQuoteRe   = regexp.MustCompile(`'([^']*)'`)
)

// RepairJSON attempts to repair malformed JSON with cheap targeted fixes
// first (trailing commas, unclosed braces, unquoted keys, single quotes) and
// the jsonrepair library as the fallback for everything else.
func RepairJSON(raw string) (string, RepairStats, error) {
	startTime := time.Now()
	stats := RepairStats{OriginalBytes: len(raw)}

	var probe interface{}
	if json.Unmarshal([]byte(raw), &probe) == nil {
		stats.RepairedBytes = len(raw)
		stats.RepairTime = time.Since(startTime)
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired := raw

	if trailingCommaRe.MatchString(repaired) {
		repaired = trailingCommaRe.ReplaceAllString(repaired, "$1")
		stats.RepairStrategies = append(stats.RepairStrategies, "trailing_commas")
		stats.ErrorsFixed++
	}

	if closed := closeUnbalanced(repaired); closed != repaired {
		repaired = closed
		stats.RepairStrategies = append(stats.RepairStrategies, "completion")
		stats.ErrorsFixed++
	}

	if unquotedKeyRe.MatchString(repaired) {
		repaired = unquotedKeyRe.ReplaceAllString(repaired, `$1"$2"$3`)
		stats.RepairStrategies = append(stats.RepairStrategies, "key_quotes")
		stats.ErrorsFixed++
	}

	if json.Unmarshal([]byte(repaired), &probe) != nil && singleQuoteRe.MatchString(repaired) {
		repaired = singleQuoteRe.ReplaceAllString(repaired, `"$1"`)
		stats.RepairStrategies = append(stats.RepairStrategies, "single_quotes")
		stats.ErrorsFixed++
	}

	if json.Unmarshal([]byte(repaired), &probe) != nil {
		libraryRepaired, libErr := jsonrepair.JSONRepair(repaired)
		if libErr == nil && libraryRepaired != repaired {
			repaired = libraryRepaired
			stats.RepairStrategies = append(stats.RepairStrategies, "jsonrepair_library")
			stats.ErrorsFixed++
		}
	}

	stats.RepairedBytes = len(repaired)
	stats.RepairTime = time.Since(startTime)

	if json.Unmarshal([]byte(repaired), &probe) != nil {
		return repaired, stats, fmt.Errorf("JSON repair failed after %d strategies", len(stats.RepairStrategies))
	}
	return repaired, stats, nil
}

// closeUnbalanced appends missing closing braces/brackets in last-opened,
// first-closed order. Brace characters inside string values can fool the
// counter; the jsonrepair fallback covers those cases.
func closeUnbalanced(s string) string {
	trimmed := strings.TrimSpace(s)

	var stack []rune
	for _, char := range trimmed {
		switch char {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == char {
				stack = stack[:len(stack)-1]
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		trimmed += string(stack[i])
	}
	return trimmed
}
