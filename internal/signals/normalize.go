package signals

import (
	"strings"
	"unicode/utf8"
)

// blankThreshold is the minimum trimmed rune count for a reply to count as
// having content. One-character bodies are bounce artifacts in practice.
const blankThreshold = 2

// Normalize derives the canonical signal set for a message: the union of the
// model-supplied signals and every regex detector that matches the text.
// Pure and deterministic; safe on empty and non-ASCII input.
func Normalize(body string, modelSignals []Signal) Set {
	set := NewSet(modelSignals...)

	trimmed := strings.TrimSpace(body)
	if utf8.RuneCountInString(trimmed) < blankThreshold {
		set.Add(SignalAutoReplyBlank)
	}
	if strings.Contains(body, "?") {
		set.Add(SignalHasQuestion)
	}

	topics := 0
	for sig, re := range detectors {
		if !re.MatchString(body) {
			continue
		}
		set.Add(sig)
		if multiTopicSignals[sig] {
			topics++
		}
	}
	if topics >= 2 {
		set.Add(SignalMultiTopic)
	}

	return set
}
