package classifier

import (
	"fmt"
	"strings"

	"github.com/replypilot/pkg/models"
)

// templateCatalog is the label list offered to the model. Kept as plain
// strings here: the engine owns the authoritative catalog and treats any
// label it does not know as ineligible, so drift is safe.
var templateCatalog = []string{
	"YES_SEND", "ASK_AGREEMENT", "YES_CONDITIONAL",
	"UNSUBSCRIBE", "OUT_OF_OFFICE", "BLANK_AUTO_REPLY", "ALL_SET",
	"INTERESTED", "MORE_INFO", "FEES_QUESTION", "FEES_OBJECTION",
	"NOT_INTERESTED", "NOT_NOW", "WRONG_PERSON", "REFERRAL",
	"SEND_RESUMES_FIRST", "CALL_FIRST", "SKEPTICAL", "WHO_ARE_YOU",
	"HOW_IT_WORKS", "ALREADY_SIGNED", "ALREADY_WORKING_WITH_AGENCY",
	"TIMING_QUESTION", "GUARANTEE_QUESTION", "EXCLUSIVITY_QUESTION",
	"CONTINGENCY_QUESTION", "ROLE_GUESS", "ROLE_CONFIRMED",
	"ROLE_QUESTION", "MULTIPLE_ROLES", "THANKS", "FOLLOW_UP_LATER",
}

var signalVocabulary = []string{
	"explicit_yes", "send_it", "send_agreement", "explicit_no",
	"asks_fees", "wants_resume_first", "wants_call_first", "skeptical",
	"wrong_person", "out_of_office", "unsubscribe", "already_signed",
	"done_all_set", "has_question",
}

// BuildPrompt renders the classification prompt for one message. The model
// is asked for strict JSON; the llm package repairs drift.
func BuildPrompt(msg *models.Message) string {
	var b strings.Builder

	b.WriteString("You classify replies to a recruiting cold-outreach campaign.\n")
	b.WriteString("Given the reply below, choose exactly one template label, list any signals present, ")
	b.WriteString("and extract optional fields.\n\n")

	fmt.Fprintf(&b, "Template labels: %s\n\n", strings.Join(templateCatalog, ", "))
	fmt.Fprintf(&b, "Signals: %s\n\n", strings.Join(signalVocabulary, ", "))

	b.WriteString("Extractions (all optional): role (job title the lead is hiring for), ")
	b.WriteString("new_contact_email (address of the person to contact instead).\n\n")

	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Reply:\n---\n")
	b.WriteString(msg.Body)
	b.WriteString("\n---\n\n")

	b.WriteString(`Respond with ONLY a JSON object, no prose:
{"template": "<label>", "signals": ["<signal>", ...], "extractions": {"role": "...", "new_contact_email": "..."}}`)

	return b.String()
}
