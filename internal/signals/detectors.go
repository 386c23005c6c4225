package signals

import "regexp"

// One compiled regex per detector, each run once against the full message
// text. Patterns are small keyword alternations with bounded gaps, so there
// is no catastrophic-backtracking risk on pathological input.
var detectors = map[Signal]*regexp.Regexp{
	SignalUnsubscribe: regexp.MustCompile(
		`(?i)\b(unsubscribe|opt[ -]?out|stop (?:e-?mailing|contacting|messaging)( me)?|remove me from|take me off|do not (?:e-?mail|contact) me)\b`),

	SignalOutOfOffice: regexp.MustCompile(
		`(?i)\b(out of (?:the )?office|automatic reply|auto-?reply|on vacation|on annual leave|on leave until|away from (?:my )?e-?mail|on pto|parental leave|maternity leave|limited access to e-?mail)\b`),

	SignalExplicitYes: regexp.MustCompile(
		`(?i)\b(yes|yep|yeah|sure|absolutely|definitely|sounds good|of course|go ahead|happy to|let'?s do it|works for (?:me|us))\b`),

	SignalSendIt: regexp.MustCompile(
		`(?i)\bsend (?:it|that|one|them)\b(?:\s+(?:over|through|along|my way))?|\bgo ahead and send\b|\bplease send\b`),

	SignalAsksForAgreement: regexp.MustCompile(
		`(?i)\b(send|forward|share|e-?mail|shoot)(?:\s+\w+){0,4}\s+(?:the\s+|an?\s+|your\s+)?(agreement|contract|paperwork|terms|docs?)\b|\b(agreement|contract)\s+(?:please|over)\b`),

	SignalExplicitNo: regexp.MustCompile(
		`(?i)\b(no,? thanks?|not interested|no longer interested|we(?:'re| are) not (?:interested|hiring|looking)|don'?t (?:need|want)|please don'?t|pass on this)\b`),

	SignalAsksFees: regexp.MustCompile(
		`(?i)\b(fees?|rates?|pricing|price|costs?|charges?|percentage|commission|what do you charge|how much)\b`),

	SignalWantsResumeFirst: regexp.MustCompile(
		`(?i)\b(resumes?|cvs?|candidates?|profiles?)\b[^.!?\n]{0,40}\b(first|before|up ?front)\b|\b(send|see|review|share|look at)\b[^.!?\n]{0,30}\b(resumes?|cvs?|candidates?|profiles?)\b`),

	SignalWantsCallFirst: regexp.MustCompile(
		`(?i)\b(call|phone|chat|talk|speak|meet|zoom|hop on)\b[^.!?\n]{0,30}\b(first|before)\b|\b(set ?up|schedule|book)\b[^.!?\n]{0,25}\b(a\s+)?(call|meeting|chat|time to talk)\b|\bgive me a call\b`),

	SignalSkeptical: regexp.MustCompile(
		`(?i)\b(is this (?:a )?(?:scam|spam|real|legit)|legitimate|how did you (?:get|find)|where did you (?:get|find)|who are you|never heard of|sounds? too good|suspicious)\b`),

	SignalWrongPerson: regexp.MustCompile(
		`(?i)\b(wrong person|not the right (?:person|contact)|don'?t handle (?:hiring|recruiting|this)|no longer (?:work|with the company|at the company|in that role)|you(?:'re| are) looking for|(?:reach out|speak|talk) to (?:our|my|the))\b`),

	SignalDoneAllSet: regexp.MustCompile(
		`(?i)\b(all set|we'?re (?:good|set|covered)|position (?:has been|is|was) filled|role (?:has been|is|was) filled|already (?:hired|filled)|no need,? (?:thanks?|thank you)|found someone)\b`),

	SignalAlreadySigned: regexp.MustCompile(
		`(?i)\b(already signed|signed (?:it|that|the (?:agreement|contract|paperwork))|sent (?:it|that|the agreement) back|returned the (?:agreement|contract)|signed and returned)\b`),
}

// multiTopicSignals are the competing-intent detectors counted for the
// multi_topic heuristic. Two or more independent hits means the message is
// asking for several things at once.
var multiTopicSignals = map[Signal]bool{
	SignalAsksForAgreement: true,
	SignalAsksFees:         true,
	SignalWantsResumeFirst: true,
	SignalWantsCallFirst:   true,
	SignalSkeptical:        true,
}
