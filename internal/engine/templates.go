package engine

// Template is an open string reply-intent label produced by classification.
// Unknown labels are valid values; they score zero and are never
// auto-eligible, so a new classifier output degrades to "block" until it is
// added to the catalog below.
type Template string

const (
	// Agreement path.
	TemplateYesSend        Template = "YES_SEND"
	TemplateAskAgreement   Template = "ASK_AGREEMENT"
	TemplateYesConditional Template = "YES_CONDITIONAL"

	// Hard-stop intents.
	TemplateUnsubscribe    Template = "UNSUBSCRIBE"
	TemplateOutOfOffice    Template = "OUT_OF_OFFICE"
	TemplateBlankAutoReply Template = "BLANK_AUTO_REPLY"
	TemplateAllSet         Template = "ALL_SET"

	// Informational / soft intents.
	TemplateInterested      Template = "INTERESTED"
	TemplateMoreInfo        Template = "MORE_INFO"
	TemplateFeesQuestion    Template = "FEES_QUESTION"
	TemplateFeesObjection   Template = "FEES_OBJECTION"
	TemplateNotInterested   Template = "NOT_INTERESTED"
	TemplateNotNow          Template = "NOT_NOW"
	TemplateWrongPerson     Template = "WRONG_PERSON"
	TemplateReferral        Template = "REFERRAL"
	TemplateSendResumes     Template = "SEND_RESUMES_FIRST"
	TemplateCallFirst       Template = "CALL_FIRST"
	TemplateSkeptical       Template = "SKEPTICAL"
	TemplateWhoAreYou       Template = "WHO_ARE_YOU"
	TemplateHowItWorks      Template = "HOW_IT_WORKS"
	TemplateAlreadySigned   Template = "ALREADY_SIGNED"
	TemplateAlreadyWorking  Template = "ALREADY_WORKING_WITH_AGENCY"
	TemplateTiming          Template = "TIMING_QUESTION"
	TemplateGuarantee       Template = "GUARANTEE_QUESTION"
	TemplateExclusivity     Template = "EXCLUSIVITY_QUESTION"
	TemplateContingency     Template = "CONTINGENCY_QUESTION"
	TemplateRoleGuess       Template = "ROLE_GUESS"
	TemplateRoleConfirmed   Template = "ROLE_CONFIRMED"
	TemplateRoleQuestion    Template = "ROLE_QUESTION"
	TemplateMultipleRoles   Template = "MULTIPLE_ROLES"
	TemplateThanks          Template = "THANKS"
	TemplateFollowUpLater   Template = "FOLLOW_UP_LATER"
	TemplateAttachmentOnly  Template = "ATTACHMENT_ONLY"
	TemplateForwardedThread Template = "FORWARDED_THREAD"
)

// baseScores maps each known template to how reliably that label predicts
// genuine intent. Explicit agreement intents sit at the top of the range;
// ambiguous catch-alls at the bottom. Unknown templates score zero.
var baseScores = map[Template]float64{
	TemplateYesSend:         0.85,
	TemplateAskAgreement:    0.85,
	TemplateYesConditional:  0.70,
	TemplateNotInterested:   0.80,
	TemplateAllSet:          0.80,
	TemplateUnsubscribe:     0.85,
	TemplateAlreadySigned:   0.75,
	TemplateFeesQuestion:    0.70,
	TemplateFeesObjection:   0.60,
	TemplateInterested:      0.65,
	TemplateMoreInfo:        0.60,
	TemplateHowItWorks:      0.65,
	TemplateWhoAreYou:       0.60,
	TemplateSendResumes:     0.65,
	TemplateCallFirst:       0.65,
	TemplateSkeptical:       0.55,
	TemplateWrongPerson:     0.70,
	TemplateReferral:        0.65,
	TemplateNotNow:          0.65,
	TemplateTiming:          0.60,
	TemplateGuarantee:       0.60,
	TemplateExclusivity:     0.60,
	TemplateContingency:     0.60,
	TemplateRoleGuess:       0.50,
	TemplateRoleConfirmed:   0.70,
	TemplateRoleQuestion:    0.55,
	TemplateMultipleRoles:   0.50,
	TemplateThanks:          0.55,
	TemplateFollowUpLater:   0.60,
	TemplateAlreadyWorking:  0.60,
	TemplateAttachmentOnly:  0.45,
	TemplateForwardedThread: 0.45,
}

// autoEligible is the full catalog of templates the responder may answer
// automatically. Everything outside this set requires a human.
var autoEligible = map[Template]bool{
	TemplateYesSend:        true,
	TemplateAskAgreement:   true,
	TemplateYesConditional: true,
	TemplateNotInterested:  true,
	TemplateAllSet:         true,
	TemplateUnsubscribe:    true,
	TemplateAlreadySigned:  true,
	TemplateFeesQuestion:   true,
	TemplateFeesObjection:  true,
	TemplateInterested:     true,
	TemplateMoreInfo:       true,
	TemplateHowItWorks:     true,
	TemplateWhoAreYou:      true,
	TemplateSendResumes:    true,
	TemplateCallFirst:      true,
	TemplateSkeptical:      true,
	TemplateWrongPerson:    true,
	TemplateReferral:       true,
	TemplateNotNow:         true,
	TemplateTiming:         true,
	TemplateGuarantee:      true,
	TemplateExclusivity:    true,
	TemplateContingency:    true,
	TemplateRoleGuess:      true,
	TemplateRoleConfirmed:  true,
	TemplateRoleQuestion:   true,
	TemplateMultipleRoles:  true,
	TemplateThanks:         true,
	TemplateFollowUpLater:  true,
	TemplateAlreadyWorking: true,
}

// depthWhitelist is the narrow set of templates still allowed once the
// thread has hit the automated-reply depth limit. Intentionally much smaller
// than autoEligible: past two automated turns, only unambiguous closers and
// explicit agreement intents go out without a human.
var depthWhitelist = map[Template]bool{
	TemplateYesSend:       true,
	TemplateAskAgreement:  true,
	TemplateNotInterested: true,
	TemplateUnsubscribe:   true,
	TemplateAllSet:        true,
}

// agreementTemplates are the labels that carry an explicit request for the
// agreement. They get the relaxed threshold and trigger agreement dispatch.
var agreementTemplates = map[Template]bool{
	TemplateYesSend:      true,
	TemplateAskAgreement: true,
}

// roleGuessTemplates are suppressed once the lead has confirmed a role; the
// engine rewrites them to ROLE_CONFIRMED instead of guessing again.
var roleGuessTemplates = map[Template]bool{
	TemplateRoleGuess:    true,
	TemplateRoleQuestion: true,
}

// IsAgreementTemplate reports whether t triggers agreement dispatch on a
// passing verdict.
func IsAgreementTemplate(t Template) bool {
	return agreementTemplates[t]
}

// IsAutoEligible reports whether t is in the auto-response catalog.
func IsAutoEligible(t Template) bool {
	return autoEligible[t]
}

// AutoEligibleTemplates returns the auto-response catalog in no particular
// order. Every entry must have a renderable reply body downstream.
func AutoEligibleTemplates() []Template {
	out := make([]Template, 0, len(autoEligible))
	for t := range autoEligible {
		out = append(out, t)
	}
	return out
}

// BaseScore returns the catalog base score for t, zero for unknown labels.
func BaseScore(t Template) float64 {
	return baseScores[t]
}
