package models

// Domain models shared between the webhook layer, the classifier and the
// decision core. Inbound messages are ephemeral: nothing here is persisted
// beyond the current delivery.

// Message is a single inbound reply event as delivered by the email provider
// webhook. Every field except MessageID is optional; a missing ThreadID falls
// back to the message identifier as the thread key.
type Message struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// ThreadEntry is one prior message in the conversation, supplied by the
// provider alongside the reply event. Position 1 is the original campaign
// email. Outbound entries carry the automation marker when they were sent by
// the autoresponder.
type ThreadEntry struct {
	Position  int    `json:"position"`
	From      string `json:"from"`
	Outbound  bool   `json:"outbound"`
	Automated bool   `json:"automated"`
	SentAt    string `json:"sent_at"` // RFC3339, may be empty
	Body      string `json:"body"`
}

// Classification is the output of the external intent classifier, treated as
// a black box. Template is an open string label; Signals and Extractions may
// both be empty.
type Classification struct {
	Template    string            `json:"template"`
	Signals     []string          `json:"signals"`
	Extractions map[string]string `json:"extractions"`
}

// Role returns the extracted job role, if the classifier found one.
func (c *Classification) Role() string {
	if c.Extractions == nil {
		return ""
	}
	return c.Extractions["role"]
}

// NewContactEmail returns the referred contact address for wrong-person
// replies, if the classifier extracted one.
func (c *Classification) NewContactEmail() string {
	if c.Extractions == nil {
		return ""
	}
	return c.Extractions["new_contact_email"]
}
