// Package signals derives deterministic intent signals from raw reply text
// and merges them with whatever the external classifier attached. The
// detectors are plain regex tests so every signal is independently testable
// without an LLM in the loop.
package signals

import "sort"

// Signal is an open string tag describing one detected aspect of a message.
// New classifier outputs are valid Signals without a code change; the
// constants below are the vocabulary the decision engine cares about.
type Signal string

const (
	SignalExplicitYes      Signal = "explicit_yes"
	SignalSendIt           Signal = "send_it"
	SignalSendAgreement    Signal = "send_agreement"
	SignalAsksForAgreement Signal = "asks_for_agreement"
	SignalExplicitNo       Signal = "explicit_no"
	SignalAsksFees         Signal = "asks_fees"
	SignalWantsResumeFirst Signal = "wants_resume_first"
	SignalWantsCallFirst   Signal = "wants_call_first"
	SignalSkeptical        Signal = "skeptical"
	SignalWrongPerson      Signal = "wrong_person"
	SignalOutOfOffice      Signal = "out_of_office"
	SignalUnsubscribe      Signal = "unsubscribe"
	SignalAlreadySigned    Signal = "already_signed"
	SignalDoneAllSet       Signal = "done_all_set"
	SignalAutoReplyBlank   Signal = "auto_reply_blank"
	SignalMultiTopic       Signal = "multi_topic"
	SignalHasQuestion      Signal = "has_question"
)

// Set is a deduplicated, order-irrelevant collection of signals.
type Set map[Signal]struct{}

// NewSet builds a Set from the given signals.
func NewSet(sigs ...Signal) Set {
	s := make(Set, len(sigs))
	for _, sig := range sigs {
		s.Add(sig)
	}
	return s
}

// Add inserts a signal. Empty strings are ignored.
func (s Set) Add(sig Signal) {
	if sig == "" {
		return
	}
	s[sig] = struct{}{}
}

// Has reports whether the signal is present.
func (s Set) Has(sig Signal) bool {
	_, ok := s[sig]
	return ok
}

// HasAny reports whether any of the given signals is present.
func (s Set) HasAny(sigs ...Signal) bool {
	for _, sig := range sigs {
		if s.Has(sig) {
			return true
		}
	}
	return false
}

// Merge unions other into s.
func (s Set) Merge(other Set) {
	for sig := range other {
		s.Add(sig)
	}
}

// List returns the signals sorted, for stable logging and audit records.
func (s Set) List() []string {
	out := make([]string, 0, len(s))
	for sig := range s {
		out = append(out, string(sig))
	}
	sort.Strings(out)
	return out
}
