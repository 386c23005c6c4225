// Package engine implements the auto-response decision gate: a pure function
// from (classification, message text, thread state) to a confidence score and
// a safe-to-auto-respond verdict. It performs no I/O and sends nothing; the
// webhook orchestrator owns all side effects.
package engine

import (
	"unicode/utf8"

	"github.com/replypilot/internal/signals"
)

// Default thresholds. The agreement threshold is deliberately lower: a missed
// "send me the agreement" costs more than an occasional extra nudge.
const (
	DefaultThreshold   = 0.75
	AgreementThreshold = 0.60
)

// shortBodyRunes is the cutoff under which a reply counts as short and
// unambiguous for scoring.
const shortBodyRunes = 200

// Blocking reason codes. Hard-stop codes force a non-respond verdict with
// confidence 1.0; the rest accumulate so operators see every ground to block.
const (
	ReasonUnsubscribe      = "hard_stop:unsubscribe"
	ReasonOutOfOffice      = "hard_stop:out_of_office"
	ReasonBlankAutoReply   = "hard_stop:blank_auto_reply"
	ReasonAllSet           = "hard_stop:all_set"
	ReasonAgreementSent    = "hard_stop:agreement_already_sent"
	ReasonManualOwner      = "manual_owner"
	ReasonDepthLimit       = "depth_limit"
	ReasonDuplicateMessage = "duplicate_message"
	ReasonRepeatTemplate   = "repeat_template"
	ReasonNotAutoEligible  = "template_not_auto_eligible"
	ReasonWantsCallFirst   = "wants_call_first"
	ReasonWantsResumeFirst = "wants_resume_first"
	ReasonSkeptical        = "skeptical"
	ReasonWrongPerson      = "wrong_person"
	ReasonMissingEvidence  = "missing_template_evidence"
	ReasonMultiTopic       = "multi_topic"
	ReasonBelowThreshold   = "below_threshold"
)

// ThreadState is the engine's read-only view of per-thread milestones. The
// conversation store produces it; the engine never mutates it.
type ThreadState struct {
	AutoRepliesSent  int
	AgreementSent    bool
	ManualOwner      bool
	LastTemplate     Template
	LockedRoles      []string
	MessageProcessed bool // the current message id was already acted on
}

// Input is one decision request.
type Input struct {
	Template     Template
	Body         string
	ModelSignals []signals.Signal
	Thread       ThreadState
	Roles        []string // roles extracted by the classifier, may be empty

	// Threshold overrides DefaultThreshold when > 0; AgreementThreshold
	// overrides the relaxed agreement-path threshold when > 0. The
	// agreement path is never held to a higher bar than the default.
	Threshold          float64
	AgreementThreshold float64

	// MaxAutoReplies overrides the depth limit when > 0.
	MaxAutoReplies int
}

// Result is the decision output consumed by the orchestrator.
type Result struct {
	OKToAutoRespond   bool
	Confidence        float64
	BlockingReasons   []string
	Signals           signals.Set
	EffectiveTemplate Template
	HardStop          bool
}

// MaxAutoReplies is the per-thread automated reply depth limit.
const MaxAutoReplies = 2

// Decide evaluates the staged gate described in the package doc. Stages are
// ordered: hard stops short-circuit, soft blockers accumulate, scoring runs
// last. Malformed input (empty template) degrades to a blocking verdict.
func Decide(in Input) Result {
	sig := signals.Normalize(in.Body, in.ModelSignals)

	res := Result{
		Signals:           sig,
		EffectiveTemplate: in.Template,
	}

	// Stage 1: hard stops. Confidence is forced to 1.0 because these are
	// deterministic safety rules, not model judgments.
	if sig.Has(signals.SignalUnsubscribe) || in.Template == TemplateUnsubscribe {
		res.EffectiveTemplate = TemplateUnsubscribe
		return hardStop(res, ReasonUnsubscribe)
	}
	if sig.Has(signals.SignalOutOfOffice) || in.Template == TemplateOutOfOffice {
		res.EffectiveTemplate = TemplateOutOfOffice
		return hardStop(res, ReasonOutOfOffice)
	}
	if sig.Has(signals.SignalAutoReplyBlank) || in.Template == TemplateBlankAutoReply {
		res.EffectiveTemplate = TemplateBlankAutoReply
		return hardStop(res, ReasonBlankAutoReply)
	}
	if sig.Has(signals.SignalDoneAllSet) || in.Template == TemplateAllSet {
		res.EffectiveTemplate = TemplateAllSet
		return hardStop(res, ReasonAllSet)
	}
	// The single most important rule in the system: once the agreement has
	// gone out, nothing automated ever goes out on this thread again.
	if in.Thread.AgreementSent {
		return hardStop(res, ReasonAgreementSent)
	}

	// Role-lock rewrite: once the lead has confirmed a role, guessing
	// templates are replaced by the role-confirmed reply.
	if roleGuessTemplates[in.Template] && len(in.Thread.LockedRoles) > 0 {
		res.EffectiveTemplate = TemplateRoleConfirmed
	}

	// Stage 2: soft blockers. Scoring still runs so the audit trail shows
	// what the score would have been.
	agreementAsk := sig.HasAny(signals.SignalAsksForAgreement, signals.SignalSendAgreement) ||
		res.EffectiveTemplate == TemplateAskAgreement

	if in.Thread.ManualOwner {
		res.block(ReasonManualOwner)
	}
	maxReplies := in.MaxAutoReplies
	if maxReplies <= 0 {
		maxReplies = MaxAutoReplies
	}
	if in.Thread.AutoRepliesSent >= maxReplies && !depthWhitelist[res.EffectiveTemplate] {
		res.block(ReasonDepthLimit)
	}
	if in.Thread.MessageProcessed {
		res.block(ReasonDuplicateMessage)
	}
	if in.Thread.LastTemplate != "" && in.Thread.LastTemplate == res.EffectiveTemplate {
		res.block(ReasonRepeatTemplate)
	}
	if !autoEligible[res.EffectiveTemplate] {
		res.block(ReasonNotAutoEligible)
	}

	// Competing softer intents block unless the same message also carries an
	// explicit, unambiguous ask for the agreement.
	if sig.Has(signals.SignalWantsCallFirst) && !agreementAsk {
		res.block(ReasonWantsCallFirst)
	}
	if sig.Has(signals.SignalWantsResumeFirst) && !agreementAsk {
		res.block(ReasonWantsResumeFirst)
	}
	if sig.Has(signals.SignalSkeptical) && !agreementAsk {
		res.block(ReasonSkeptical)
	}
	// Wrong-person always blocks; there is no override.
	if sig.Has(signals.SignalWrongPerson) {
		res.block(ReasonWrongPerson)
	}

	// Per-template must-have evidence.
	switch res.EffectiveTemplate {
	case TemplateYesSend:
		if !sig.HasAny(signals.SignalExplicitYes, signals.SignalSendIt,
			signals.SignalAsksForAgreement, signals.SignalSendAgreement) {
			res.block(ReasonMissingEvidence)
		}
	case TemplateFeesQuestion:
		if !sig.Has(signals.SignalAsksFees) {
			res.block(ReasonMissingEvidence)
		}
	case TemplateInterested:
		if sig.Has(signals.SignalMultiTopic) {
			res.block(ReasonMultiTopic)
		}
	}

	// Stage 3: scoring.
	res.Confidence = score(in, res.EffectiveTemplate, sig)

	threshold := in.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if agreementAsk || agreementTemplates[res.EffectiveTemplate] {
		relaxed := in.AgreementThreshold
		if relaxed <= 0 {
			relaxed = AgreementThreshold
		}
		if relaxed < threshold {
			threshold = relaxed
		}
	}
	if res.Confidence < threshold {
		res.block(ReasonBelowThreshold)
	}

	res.OKToAutoRespond = len(res.BlockingReasons) == 0
	return res
}

func (r *Result) block(reason string) {
	r.BlockingReasons = append(r.BlockingReasons, reason)
}

func hardStop(res Result, reason string) Result {
	res.HardStop = true
	res.Confidence = 1.0
	res.OKToAutoRespond = false
	res.BlockingReasons = append(res.BlockingReasons, reason)
	return res
}

// score computes base + corroboration bonuses − ambiguity penalties, clamped
// to [0,1]. Every contribution is applied at most once no matter how many
// underlying regex hits produced the signal.
func score(in Input, t Template, sig signals.Set) float64 {
	s := baseScores[t]

	if sig.Has(signals.SignalExplicitYes) {
		s += 0.15
	}
	if sig.Has(signals.SignalSendIt) {
		s += 0.10
	}
	if sig.HasAny(signals.SignalAsksForAgreement, signals.SignalSendAgreement) {
		s += 0.15
	}
	if t == TemplateFeesQuestion && sig.Has(signals.SignalAsksFees) {
		s += 0.10
	}
	if utf8.RuneCountInString(in.Body) > 0 && utf8.RuneCountInString(in.Body) < shortBodyRunes {
		s += 0.05
	}
	if in.Thread.AutoRepliesSent == 0 {
		s += 0.05
	}
	if !sig.Has(signals.SignalHasQuestion) {
		s += 0.05
	}

	if sig.Has(signals.SignalHasQuestion) {
		s -= 0.10
	}
	if sig.Has(signals.SignalMultiTopic) {
		s -= 0.20
	}
	if sig.Has(signals.SignalWantsResumeFirst) {
		s -= 0.15
	}
	if sig.Has(signals.SignalWantsCallFirst) {
		s -= 0.15
	}
	if sig.Has(signals.SignalSkeptical) {
		s -= 0.15
	}
	if sig.Has(signals.SignalWrongPerson) {
		s -= 0.25
	}
	if sig.Has(signals.SignalAutoReplyBlank) {
		s -= 0.30
	}
	if len(in.Roles) > 1 || t == TemplateMultipleRoles {
		s -= 0.10
	}
	if t == TemplateRoleGuess {
		// Guessing a role is inherently ambiguous evidence.
		s -= 0.10
	}

	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
