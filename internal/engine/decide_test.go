package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/replypilot/internal/signals"
)

func TestDecide_YesSendFreshThread(t *testing.T) {
	res := Decide(Input{
		Template: TemplateYesSend,
		Body:     "yes, send it over",
	})

	if !res.OKToAutoRespond {
		t.Fatalf("expected auto-respond, blocked by %v", res.BlockingReasons)
	}
	if !res.Signals.Has(signals.SignalExplicitYes) || !res.Signals.Has(signals.SignalSendIt) {
		t.Errorf("expected explicit_yes and send_it, got %v", res.Signals.List())
	}
	if res.EffectiveTemplate != TemplateYesSend {
		t.Errorf("effective template = %s", res.EffectiveTemplate)
	}
}

func TestDecide_AgreementSentIsUnconditional(t *testing.T) {
	// Once the agreement went out, every template and every signal loses.
	bodies := []string{"still there?", "yes, send it over", "please send the agreement"}
	templates := []Template{TemplateYesSend, TemplateAskAgreement, TemplateInterested, "SOMETHING_NEW"}

	for _, body := range bodies {
		for _, tmpl := range templates {
			res := Decide(Input{
				Template: tmpl,
				Body:     body,
				Thread:   ThreadState{AgreementSent: true},
			})
			if res.OKToAutoRespond {
				t.Fatalf("template %s body %q auto-responded after agreement sent", tmpl, body)
			}
			if !res.HardStop || res.Confidence != 1.0 {
				t.Errorf("template %s: want hard stop with confidence 1.0, got %+v", tmpl, res)
			}
			if !containsReason(res.BlockingReasons, ReasonAgreementSent) {
				t.Errorf("template %s: missing %s in %v", tmpl, ReasonAgreementSent, res.BlockingReasons)
			}
		}
	}
}

func TestDecide_UnsubscribeForcesTemplate(t *testing.T) {
	res := Decide(Input{Template: TemplateInterested, Body: "unsubscribe please"})

	if res.OKToAutoRespond {
		t.Fatal("unsubscribe must never auto-respond")
	}
	if res.EffectiveTemplate != TemplateUnsubscribe {
		t.Errorf("effective template = %s, want UNSUBSCRIBE", res.EffectiveTemplate)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}
}

func TestDecide_HardStops(t *testing.T) {
	cases := []struct {
		name   string
		in     Input
		reason string
	}{
		{"out of office", Input{Template: TemplateInterested, Body: "Automatic reply: I am out of the office"}, ReasonOutOfOffice},
		{"ooo template", Input{Template: TemplateOutOfOffice, Body: "anything"}, ReasonOutOfOffice},
		{"blank body", Input{Template: TemplateInterested, Body: ""}, ReasonBlankAutoReply},
		{"blank template", Input{Template: TemplateBlankAutoReply, Body: "whatever text"}, ReasonBlankAutoReply},
		{"all set", Input{Template: TemplateInterested, Body: "we're all set, thanks"}, ReasonAllSet},
	}

	for _, tc := range cases {
		res := Decide(tc.in)
		if res.OKToAutoRespond || !res.HardStop || res.Confidence != 1.0 {
			t.Errorf("%s: want hard stop, got %+v", tc.name, res)
		}
		if !containsReason(res.BlockingReasons, tc.reason) {
			t.Errorf("%s: missing %s in %v", tc.name, tc.reason, res.BlockingReasons)
		}
	}
}

func TestDecide_DepthLimit(t *testing.T) {
	// Scenario: two automated replies already sent, generic interested reply
	// comes in with a strong yes. Depth limit wins.
	res := Decide(Input{
		Template: TemplateInterested,
		Body:     "yes I am interested, tell me more",
		Thread:   ThreadState{AutoRepliesSent: 2},
	})
	if res.OKToAutoRespond {
		t.Fatal("depth-limited template auto-responded")
	}
	if !containsReason(res.BlockingReasons, ReasonDepthLimit) {
		t.Errorf("missing depth_limit in %v", res.BlockingReasons)
	}

	// Whitelisted agreement intent still passes at depth.
	res = Decide(Input{
		Template: TemplateYesSend,
		Body:     "yes, send it over",
		Thread:   ThreadState{AutoRepliesSent: 2},
	})
	if containsReason(res.BlockingReasons, ReasonDepthLimit) {
		t.Errorf("whitelisted template hit depth limit: %v", res.BlockingReasons)
	}
}

// midScoreBody is long enough to forfeit the short-body bonus, carries a
// question, and trips no keyword detectors, so confidence lands between the
// two thresholds and only the template distinguishes the verdicts.
const midScoreBody = "Could you walk us through how the recruiting process is structured on your side and what the usual turnaround looks like? We are comparing a couple of options internally and want to understand the mechanics end to end so our leadership can make the decision."

func TestDecide_ThresholdRelaxation(t *testing.T) {
	// Identical body and state; only the template differs. The agreement
	// template must pass at a score where the unrelated one fails.
	in := Input{
		Body:   midScoreBody,
		Thread: ThreadState{AutoRepliesSent: 1},
		Roles:  []string{"backend engineer", "data scientist"},
	}

	in.Template = TemplateAskAgreement
	agreement := Decide(in)
	if !agreement.OKToAutoRespond {
		t.Fatalf("agreement template blocked: %v (score %v)", agreement.BlockingReasons, agreement.Confidence)
	}
	if agreement.Confidence >= DefaultThreshold {
		t.Fatalf("score %v clears the default threshold, relaxation untested", agreement.Confidence)
	}

	in.Template = TemplateNotInterested
	other := Decide(in)
	if other.OKToAutoRespond {
		t.Fatalf("non-agreement template passed below the default threshold (score %v)", other.Confidence)
	}
	if !containsReason(other.BlockingReasons, ReasonBelowThreshold) {
		t.Errorf("expected %s, got %v", ReasonBelowThreshold, other.BlockingReasons)
	}
	if other.Confidence < AgreementThreshold {
		t.Fatalf("score %v below the relaxed threshold, templates are not the deciding factor", other.Confidence)
	}
}

func TestDecide_ConfiguredAgreementThreshold(t *testing.T) {
	in := Input{
		Template: TemplateAskAgreement,
		Body:     midScoreBody,
		Thread:   ThreadState{AutoRepliesSent: 1},
		Roles:    []string{"backend engineer", "data scientist"},
	}

	if res := Decide(in); !res.OKToAutoRespond {
		t.Fatalf("default relaxed threshold blocked: %v (score %v)", res.BlockingReasons, res.Confidence)
	}

	// A stricter configured bar blocks the same decision.
	in.AgreementThreshold = 0.70
	res := Decide(in)
	if res.OKToAutoRespond {
		t.Fatalf("configured agreement threshold ignored (score %v)", res.Confidence)
	}
	if !containsReason(res.BlockingReasons, ReasonBelowThreshold) {
		t.Errorf("expected %s, got %v", ReasonBelowThreshold, res.BlockingReasons)
	}
}

func TestDecide_ConfiguredDepthLimit(t *testing.T) {
	in := Input{
		Template: TemplateInterested,
		Body:     "Very interested, tell me more",
		Thread:   ThreadState{AutoRepliesSent: 1},
	}

	if res := Decide(in); containsReason(res.BlockingReasons, ReasonDepthLimit) {
		t.Fatalf("depth limit fired below the default of %d: %v", MaxAutoReplies, res.BlockingReasons)
	}

	in.MaxAutoReplies = 1
	res := Decide(in)
	if !containsReason(res.BlockingReasons, ReasonDepthLimit) {
		t.Errorf("configured depth limit of 1 ignored: %v", res.BlockingReasons)
	}
}

func TestDecide_SoftBlockers(t *testing.T) {
	cases := []struct {
		name   string
		in     Input
		reason string
	}{
		{"manual owner", Input{Template: TemplateYesSend, Body: "yes, send it", Thread: ThreadState{ManualOwner: true}}, ReasonManualOwner},
		{"duplicate", Input{Template: TemplateYesSend, Body: "yes, send it", Thread: ThreadState{MessageProcessed: true}}, ReasonDuplicateMessage},
		{"repeat template", Input{Template: TemplateInterested, Body: "tell me more about this", Thread: ThreadState{LastTemplate: TemplateInterested}}, ReasonRepeatTemplate},
		{"not eligible", Input{Template: "BRAND_NEW_LABEL", Body: "some text here"}, ReasonNotAutoEligible},
		{"call first", Input{Template: TemplateCallFirst, Body: "let's hop on a call first"}, ReasonWantsCallFirst},
		{"resume first", Input{Template: TemplateSendResumes, Body: "send me a few resumes first"}, ReasonWantsResumeFirst},
		{"skeptical", Input{Template: TemplateSkeptical, Body: "is this a scam"}, ReasonSkeptical},
		{"wrong person", Input{Template: TemplateWrongPerson, Body: "I'm the wrong person, reach out to our HR lead"}, ReasonWrongPerson},
	}

	for _, tc := range cases {
		res := Decide(tc.in)
		if res.OKToAutoRespond {
			t.Errorf("%s: expected block", tc.name)
		}
		if !containsReason(res.BlockingReasons, tc.reason) {
			t.Errorf("%s: missing %s in %v", tc.name, tc.reason, res.BlockingReasons)
		}
	}
}

func TestDecide_AgreementAskOverridesCompetingIntent(t *testing.T) {
	// "call first" normally blocks, but an explicit agreement ask in the
	// same message overrides the softer intent.
	res := Decide(Input{
		Template: TemplateAskAgreement,
		Body:     "send the agreement, and maybe we can schedule a call after",
	})
	if containsReason(res.BlockingReasons, ReasonWantsCallFirst) {
		t.Errorf("explicit agreement ask should override call-first: %v", res.BlockingReasons)
	}

	// Wrong person has no override.
	res = Decide(Input{
		Template: TemplateAskAgreement,
		Body:     "send the agreement but honestly I'm the wrong person for this",
	})
	if !containsReason(res.BlockingReasons, ReasonWrongPerson) {
		t.Errorf("wrong_person must always block: %v", res.BlockingReasons)
	}
}

func TestDecide_MissingEvidence(t *testing.T) {
	// YES_SEND label without any corroborating yes/send signal is blocked.
	res := Decide(Input{Template: TemplateYesSend, Body: "interesting, tell me more about this role"})
	if !containsReason(res.BlockingReasons, ReasonMissingEvidence) {
		t.Errorf("missing evidence not flagged: %v", res.BlockingReasons)
	}

	// FEES_QUESTION without a fees signal likewise.
	res = Decide(Input{Template: TemplateFeesQuestion, Body: "tell me more about the candidate pool"})
	if !containsReason(res.BlockingReasons, ReasonMissingEvidence) {
		t.Errorf("fees template without fees signal not flagged: %v", res.BlockingReasons)
	}

	// INTERESTED is blocked only by multi-topic.
	res = Decide(Input{Template: TemplateInterested, Body: "Can you send the agreement? Also what are your fees?"})
	if !containsReason(res.BlockingReasons, ReasonMultiTopic) {
		t.Errorf("multi-topic interested not flagged: %v", res.BlockingReasons)
	}
}

func TestDecide_MultiTopicPenalty(t *testing.T) {
	single := Decide(Input{Template: TemplateAskAgreement, Body: "please send the agreement over"})
	multi := Decide(Input{Template: TemplateAskAgreement, Body: "Can you send the agreement? Also what are your fees?"})

	if !multi.Signals.Has(signals.SignalMultiTopic) {
		t.Fatalf("multi_topic missing: %v", multi.Signals.List())
	}
	if multi.Confidence >= single.Confidence {
		t.Errorf("multi-topic score %v not below single-topic score %v", multi.Confidence, single.Confidence)
	}
}

func TestDecide_RoleLockRewritesGuess(t *testing.T) {
	res := Decide(Input{
		Template: TemplateRoleGuess,
		Body:     "we do have an opening right now",
		Thread:   ThreadState{LockedRoles: []string{"software engineer"}},
	})
	if res.EffectiveTemplate != TemplateRoleConfirmed {
		t.Errorf("effective template = %s, want ROLE_CONFIRMED", res.EffectiveTemplate)
	}
}

func TestDecide_Deterministic(t *testing.T) {
	in := Input{
		Template:     TemplateAskAgreement,
		Body:         "Can you send the agreement? Also what are your fees?",
		ModelSignals: []signals.Signal{signals.SignalSendAgreement},
		Thread:       ThreadState{AutoRepliesSent: 1, LastTemplate: TemplateInterested},
	}

	first := Decide(in)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Decide(in)); diff != "" {
			t.Fatalf("non-deterministic decide (-first +again):\n%s", diff)
		}
	}
}

func TestDecide_EmptyTemplateFailsClosed(t *testing.T) {
	res := Decide(Input{Template: "", Body: "yes, send it over"})
	if res.OKToAutoRespond {
		t.Fatal("empty template must not auto-respond")
	}
	if !containsReason(res.BlockingReasons, ReasonNotAutoEligible) {
		t.Errorf("expected ineligibility, got %v", res.BlockingReasons)
	}
}

func TestDecide_ScoreClamped(t *testing.T) {
	// Pile every bonus on: must clamp at 1.0.
	res := Decide(Input{
		Template:     TemplateYesSend,
		Body:         "yes send it over",
		ModelSignals: []signals.Signal{signals.SignalSendAgreement},
	})
	if res.Confidence > 1.0 {
		t.Errorf("confidence %v above 1.0", res.Confidence)
	}

	// Pile penalties on an unknown template: must clamp at 0.
	res = Decide(Input{
		Template: "UNKNOWN_LABEL",
		Body:     "is this a scam? send resumes first and call me first? what are your fees?",
	})
	if res.Confidence < 0 {
		t.Errorf("confidence %v below 0", res.Confidence)
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
