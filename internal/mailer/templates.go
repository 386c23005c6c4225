package mailer

import (
	"fmt"
	"strings"
)

// replyBodies maps decision templates to outbound reply text. Placeholders
// of the form {name} are filled from the classifier's extractions.
var replyBodies = map[string]string{
	"YES_SEND":                    "Great, thank you! I'm sending over our standard agreement now. Once it's signed we'll start sending candidates your way.",
	"ASK_AGREEMENT":               "Of course. I'm sending the agreement over in a separate email so you can review the terms. Happy to answer any questions.",
	"YES_CONDITIONAL":             "Thanks for the positive response! I'll follow up with the details you asked about shortly.",
	"ALL_SET":                     "Understood, glad you're covered. If anything changes down the road, don't hesitate to reach out.",
	"INTERESTED":                  "Glad to hear it! The next step is a short agreement that covers our terms. Want me to send it over?",
	"MORE_INFO":                   "Happy to explain. We work on contingency: you only pay if you hire a candidate we introduce. No upfront costs and no exclusivity.",
	"FEES_QUESTION":               "Good question. Our fee is a percentage of the first-year salary, due only when you hire one of our candidates. There's nothing owed otherwise.",
	"NOT_INTERESTED":              "No problem at all, thanks for letting me know. I'll close this out on our end.",
	"NOT_NOW":                     "Completely understand. I'll check back in a few months; feel free to reach out sooner if things change.",
	"WRONG_PERSON":                "Apologies for the misdirect! If you can point me to the right person for hiring, I'll take it from there.",
	"REFERRAL":                    "Thank you for the referral! I'll reach out to {referral_name} directly.",
	"THANKS":                      "You're welcome! Let me know if there's anything else I can help with.",
	"HOW_IT_WORKS":                "Sure. We source and screen candidates for your open roles, you interview the ones you like, and you only pay a fee if you make a hire.",
	"TIMING_QUESTION":             "We can usually present the first candidates within a week of getting the agreement signed.",
	"GUARANTEE_QUESTION":          "Yes, every placement comes with a replacement guarantee. The details are spelled out in the agreement.",
	"CONTINGENCY_QUESTION":        "Exactly right, it's fully contingency-based. You owe nothing unless you hire one of our candidates.",
	"EXCLUSIVITY_QUESTION":        "No exclusivity required. You're free to keep using any other channels you already have.",
	"ROLE_CONFIRMED":              "Perfect, we'll focus on the {role} search. I'll send over the agreement so we can get started.",
	"FOLLOW_UP_LATER":             "Sounds good, I'll follow up then. Talk soon!",
	"ALREADY_SIGNED":              "Wonderful, thanks for confirming! I'll make sure candidates start heading your way right away.",
	"FEES_OBJECTION":              "I hear you. Keep in mind there's nothing owed unless you actually hire someone we introduce, so there's no downside to meeting a few candidates.",
	"WHO_ARE_YOU":                 "Fair question! We're a contingency recruiting firm: we source and screen candidates for your open roles, and you only pay if you make a hire.",
	"SEND_RESUMES_FIRST":          "Happy to share profiles. We just need the agreement in place first; it's short, and there's no cost until you actually hire.",
	"CALL_FIRST":                  "Of course, happy to jump on a quick call. What does your availability look like this week?",
	"SKEPTICAL":                   "Completely fair to check. We work purely on contingency, so the risk sits with us; happy to share references from recent placements.",
	"ROLE_GUESS":                  "Thanks for getting back to me! Are you currently hiring for {role} positions?",
	"ROLE_QUESTION":               "Which roles are you hiring for at the moment? We cover most engineering and go-to-market positions.",
	"MULTIPLE_ROLES":              "Great, we can run several searches in parallel under the same agreement. Which role is the most urgent?",
	"ALREADY_WORKING_WITH_AGENCY": "Understood. Many of our clients use us alongside other agencies, since there's no exclusivity and nothing owed unless you hire our candidate.",
}

// Render produces the outbound body for a template, substituting
// {placeholder} tokens from extractions. Unknown templates return an error
// so the caller can fall back to a manual handoff.
func Render(template string, extractions map[string]string) (string, error) {
	body, ok := replyBodies[template]
	if !ok {
		return "", fmt.Errorf("no reply body for template %s", template)
	}
	for key, value := range extractions {
		body = strings.ReplaceAll(body, "{"+key+"}", value)
	}
	if strings.Contains(body, "{") && strings.Contains(body, "}") {
		return "", fmt.Errorf("unfilled placeholder in template %s", template)
	}
	return body, nil
}

// HasBody reports whether a reply body exists for the template.
func HasBody(template string) bool {
	_, ok := replyBodies[template]
	return ok
}
