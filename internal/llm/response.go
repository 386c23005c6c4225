package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/replypilot/internal/logging"
)

// ParseResult describes one response parse, including any repair applied.
type ParseResult struct {
	RepairStats RepairStats `json:"repair_stats"`
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
}

// ParseResponse extracts the JSON payload from a raw model response, repairs
// it if needed, and unmarshals it into target.
func ParseResponse(raw string, target interface{}) (ParseResult, error) {
	logger := logging.GetCurrentLogger()

	var result ParseResult

	jsonStr := ExtractJSON(raw)
	if jsonStr == "" {
		result.Error = "no JSON found in classifier response"
		if logger != nil {
			logger.Log("No JSON found in classifier response: %s", truncateForLog(raw, 200))
		}
		return result, fmt.Errorf("no JSON found in response")
	}

	repaired, stats, err := RepairJSON(jsonStr)
	result.RepairStats = stats
	if stats.WasRepaired && logger != nil {
		logger.Log("JSON repair applied: %s (%d -> %d bytes)",
			strings.Join(stats.RepairStrategies, ", "), stats.OriginalBytes, stats.RepairedBytes)
	}
	if err != nil {
		result.Error = fmt.Sprintf("JSON repair failed: %v", err)
		if logger != nil {
			logger.Log("JSON repair failed: %v; original: %s", err, truncateForLog(jsonStr, 500))
		}
		return result, err
	}

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		result.Error = fmt.Sprintf("JSON parsing failed after repair: %v", err)
		return result, err
	}

	result.Success = true
	return result, nil
}

// ExtractJSON extracts the JSON payload from a mixed text/JSON response:
// pure JSON passes through, fenced code blocks are unwrapped, otherwise the
// first balanced object or array is returned.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw
	}

	if strings.Contains(raw, "```") {
		lines := strings.Split(raw, "\n")
		var jsonLines []string
		inCodeBlock := false
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inCodeBlock = !inCodeBlock
				continue
			}
			if inCodeBlock {
				jsonLines = append(jsonLines, line)
			}
		}
		if len(jsonLines) > 0 {
			return strings.TrimSpace(strings.Join(jsonLines, "\n"))
		}
	}

	startIdx := strings.Index(raw, "{")
	openChar, closeChar := byte('{'), byte('}')
	if startIdx == -1 {
		startIdx = strings.Index(raw, "[")
		if startIdx == -1 {
			return ""
		}
		openChar, closeChar = '[', ']'
	}

	count := 0
	for i := startIdx; i < len(raw); i++ {
		switch raw[i] {
		case openChar:
			count++
		case closeChar:
			count--
			if count == 0 {
				return raw[startIdx : i+1]
			}
		}
	}

	// Incomplete structure; hand the tail to the repair pass.
	return raw[startIdx:]
}

func truncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
