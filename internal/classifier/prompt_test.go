package classifier

import (
	"strings"
	"testing"

	"github.com/replypilot/pkg/models"
)

func TestBuildPrompt_IncludesMessageAndCatalog(t *testing.T) {
	msg := &models.Message{
		Subject: "Re: hiring for your clinic",
		Body:    "yes, send it over",
	}

	prompt := BuildPrompt(msg)

	if !strings.Contains(prompt, "yes, send it over") {
		t.Error("prompt missing reply body")
	}
	if !strings.Contains(prompt, "Re: hiring for your clinic") {
		t.Error("prompt missing subject")
	}
	for _, label := range []string{"YES_SEND", "UNSUBSCRIBE", "WRONG_PERSON"} {
		if !strings.Contains(prompt, label) {
			t.Errorf("prompt missing template label %s", label)
		}
	}
	if !strings.Contains(prompt, `"template"`) {
		t.Error("prompt missing JSON response instructions")
	}
}
