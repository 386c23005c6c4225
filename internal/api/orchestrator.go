package api

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/replypilot/internal/alerts"
	"github.com/replypilot/internal/audit"
	"github.com/replypilot/internal/config"
	"github.com/replypilot/internal/engine"
	"github.com/replypilot/internal/esign"
	"github.com/replypilot/internal/logging"
	"github.com/replypilot/internal/mailer"
	"github.com/replypilot/internal/signals"
	"github.com/replypilot/internal/state"
	"github.com/replypilot/pkg/models"
)

// ClassifierService classifies one inbound message into a template plus
// signals and extractions.
type ClassifierService interface {
	Classify(ctx context.Context, msg *models.Message) (*models.Classification, error)
}

// AgreementDispatcher sends the service agreement for signature.
type AgreementDispatcher = esign.Dispatcher

// Alerter delivers or enqueues operator alerts.
type Alerter interface {
	QueueAlert(ctx context.Context, alert alerts.Alert) error
}

// SinkAlerter adapts a synchronous alert sink to the Alerter interface so
// deployments without a database still get alerts.
type SinkAlerter struct {
	Sink alerts.Sink
}

func (a SinkAlerter) QueueAlert(ctx context.Context, alert alerts.Alert) error {
	return a.Sink.Notify(ctx, alert)
}

// Orchestrator owns the webhook delivery pipeline: dedupe, classify, decide,
// act, record. It is the only component that mutates conversation state.
type Orchestrator struct {
	cfg        *config.Config
	store      *state.Store
	classifier ClassifierService
	sender     mailer.Sender
	esign      AgreementDispatcher
	alerter    Alerter
	recorder   audit.Recorder
}

// NewOrchestrator wires the delivery pipeline.
func NewOrchestrator(cfg *config.Config, store *state.Store, classifier ClassifierService,
	sender mailer.Sender, dispatcher AgreementDispatcher, alerter Alerter, recorder audit.Recorder) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		sender:     sender,
		esign:      dispatcher,
		alerter:    alerter,
		recorder:   recorder,
	}
}

// ProcessDelivery runs one webhook delivery end to end. Deliveries for the
// same thread are serialized through the store's thread lock; distinct
// threads proceed in parallel.
func (o *Orchestrator) ProcessDelivery(ctx context.Context, msg *models.Message, history []models.ThreadEntry) error {
	deliveryID := uuid.New().String()[:8]

	threadID := msg.ThreadID
	if threadID == "" {
		threadID = msg.MessageID
	}

	logger, err := logging.StartDeliveryLogging(deliveryID, threadID)
	if err != nil {
		log.Printf("[WARN] Could not start delivery logging: %v", err)
	}
	defer logger.Close()

	unlock := o.store.LockThread(threadID)
	defer unlock()

	log.Printf("[INFO] Processing delivery %s: message=%s thread=%s from=%s",
		deliveryID, msg.MessageID, threadID, msg.From)

	// Do-not-contact gate: an unsubscribed address never gets another
	// automated message, on any thread.
	if o.store.IsUnsubscribed(msg.From) {
		logger.Log("Sender %s is on the do-not-contact list, skipping", msg.From)
		o.store.MarkProcessed(threadID, msg.MessageID)
		return nil
	}

	// Idempotency gate. Some providers reuse the thread id as the message id
	// for the first reply; with the collision allowance on, those deliveries
	// bypass the processed-set check instead of being swallowed as dupes.
	collision := msg.MessageID == threadID && o.cfg.Policy.AllowThreadIDCollision
	if !collision && o.store.IsProcessed(threadID, msg.MessageID) {
		logger.Log("Message %s already processed, skipping", msg.MessageID)
		return nil
	}

	o.scanManualOwnership(threadID, history, logger)

	// Classify. A classifier failure is a blocked delivery, never a guess.
	// The message stays out of the processed set so the provider's
	// redelivery gets another attempt.
	classification, err := o.classifier.Classify(ctx, msg)
	if err != nil {
		logger.LogError("classification", err)
		o.raiseAlert(ctx, msg, threadID, "", []string{"classification_failed"},
			fmt.Sprintf("Classifier error: %v", err), logger)
		o.record(ctx, deliveryID, threadID, msg, "", 0, false, []string{"classification_failed"})
		return fmt.Errorf("classification failed: %w", err)
	}

	snap := o.store.Snapshot(threadID)
	input := engine.Input{
		Template:     engine.Template(classification.Template),
		Body:         msg.Body,
		ModelSignals: toSignals(classification.Signals),
		Thread: engine.ThreadState{
			AutoRepliesSent:  snap.AutoRepliesSent,
			AgreementSent:    snap.AgreementSent,
			ManualOwner:      snap.ManualOwner,
			LastTemplate:     engine.Template(snap.LastTemplate),
			LockedRoles:      snap.LockedRoles,
			MessageProcessed: containsString(snap.ProcessedMsgIDs, msg.MessageID) && !collision,
		},
		Roles:              classificationRoles(classification),
		Threshold:          o.cfg.Policy.DefaultThreshold,
		AgreementThreshold: o.cfg.Policy.AgreementThreshold,
		MaxAutoReplies:     o.cfg.Policy.MaxAutoReplies,
	}

	result := engine.Decide(input)
	logger.LogDecision(string(result.EffectiveTemplate), result.OKToAutoRespond, result.Confidence, result.BlockingReasons)

	// Track the latest human sender. Bounces and blank autoresponders never
	// overwrite it; the agreement redirect depends on that.
	if !result.Signals.HasAny(signals.SignalAutoReplyBlank, signals.SignalOutOfOffice) {
		o.store.SetLastFrom(threadID, msg.From)
	}

	if containsString(result.BlockingReasons, engine.ReasonUnsubscribe) {
		o.store.MarkUnsubscribed(msg.From)
		logger.Log("Added %s to the do-not-contact list", msg.From)
	}

	autoSent := false
	if result.OKToAutoRespond {
		sent, actErr := o.act(ctx, msg, threadID, classification, result, snap, logger)
		if actErr != nil {
			// Send failures leave the message unprocessed: the provider
			// redelivers and the reply gets another attempt.
			o.record(ctx, deliveryID, threadID, msg, string(result.EffectiveTemplate),
				result.Confidence, false, []string{"send_failed"})
			return actErr
		}
		autoSent = sent
	} else if !result.HardStop {
		// Soft blocks mean a human should pick this up. Hard stops are
		// terminal states nobody needs to act on.
		o.raiseAlert(ctx, msg, threadID, string(result.EffectiveTemplate), result.BlockingReasons,
			summarize(msg.Body), logger)
	}

	o.record(ctx, deliveryID, threadID, msg, string(result.EffectiveTemplate), result.Confidence, autoSent, result.BlockingReasons)
	o.store.MarkProcessed(threadID, msg.MessageID)

	log.Printf("[INFO] Delivery %s complete: template=%s auto_sent=%v", deliveryID, result.EffectiveTemplate, autoSent)
	return nil
}

// act sends the reply and runs the post-send bookkeeping. Returns true when
// a reply actually went out; a non-nil error means the send failed in a way
// a redelivery should retry.
func (o *Orchestrator) act(ctx context.Context, msg *models.Message, threadID string,
	classification *models.Classification, result engine.Result, snap state.Snapshot, logger *logging.DeliveryLogger) (bool, error) {

	template := string(result.EffectiveTemplate)

	// A render failure is deterministic (missing catalog entry or unfilled
	// placeholder); retrying would fail identically, so the delivery
	// completes with just the alert.
	body, err := mailer.Render(template, classification.Extractions)
	if err != nil {
		logger.LogError("render", err)
		o.raiseAlert(ctx, msg, threadID, template, []string{"render_failed"}, err.Error(), logger)
		return false, nil
	}

	_, err = o.sender.SendReply(ctx, mailer.SendRequest{
		ThreadID: threadID,
		To:       msg.From,
		Subject:  mailer.ReplySubject(msg),
		Body:     body,
		Template: template,
	})
	if err != nil {
		logger.LogError("send_reply", err)
		o.raiseAlert(ctx, msg, threadID, template, []string{"send_failed"}, err.Error(), logger)
		return false, fmt.Errorf("send reply: %w", err)
	}

	o.store.IncAutoReplies(threadID)
	o.store.SetLastTemplate(threadID, template)

	if result.EffectiveTemplate == engine.TemplateMoreInfo {
		o.store.IncMoreInfoLoop(threadID)
	}
	if result.EffectiveTemplate == engine.TemplateRoleConfirmed {
		if role := classification.Role(); role != "" {
			o.store.LockRole(threadID, role)
		}
	}

	if engine.IsAgreementTemplate(result.EffectiveTemplate) {
		o.dispatchAgreement(ctx, msg, threadID, classification, result, snap, logger)
	} else if !snap.AgreementSent && result.Signals.Has(signals.SignalAlreadySigned) {
		// The lead says they signed; lock the milestone so no envelope ever
		// goes out, whatever template carried the news.
		logger.Log("Lead reports agreement already signed, recording milestone")
		o.store.MarkAgreementSent(threadID)
	}

	return true, nil
}

// dispatchAgreement sends the e-sign envelope once per thread. A lead that
// says they already signed gets the milestone recorded without a dispatch.
func (o *Orchestrator) dispatchAgreement(ctx context.Context, msg *models.Message, threadID string,
	classification *models.Classification, result engine.Result, snap state.Snapshot, logger *logging.DeliveryLogger) {

	if snap.AgreementSent {
		return
	}
	if result.Signals.Has(signals.SignalAlreadySigned) {
		logger.Log("Lead reports agreement already signed, recording milestone without dispatch")
		o.store.MarkAgreementSent(threadID)
		return
	}

	// Forwarded threads: route the envelope to whoever actually replied
	// last, not the original campaign recipient.
	recipient := o.store.LastFrom(threadID)
	if recipient == "" {
		recipient = msg.From
	}

	company := ""
	if classification.Extractions != nil {
		company = classification.Extractions["company"]
	}

	envelope, err := o.esign.SendAgreement(ctx, esign.AgreementRequest{
		ThreadID:       threadID,
		RecipientEmail: recipient,
		CompanyName:    company,
	})
	if err != nil {
		logger.LogError("send_agreement", err)
		o.raiseAlert(ctx, msg, threadID, string(result.EffectiveTemplate),
			[]string{"agreement_dispatch_failed"}, err.Error(), logger)
		return
	}

	logger.LogAction("agreement_sent", fmt.Sprintf("to=%s envelope=%s", recipient, envelope.EnvelopeID))
	o.store.MarkAgreementSent(threadID)
}

// scanManualOwnership walks the provider-supplied thread history looking for
// outbound messages without the automation marker. Position 1 is the
// original outreach and never counts; messages sent before the marker
// rollout date predate the marker and cannot be trusted either way.
func (o *Orchestrator) scanManualOwnership(threadID string, history []models.ThreadEntry, logger *logging.DeliveryLogger) {
	rollout := o.cfg.MarkerRolloutTime()

	for _, entry := range history {
		if !entry.Outbound || entry.Automated || entry.Position <= 1 {
			continue
		}
		if !rollout.IsZero() && entry.SentAt != "" {
			if sentAt, err := time.Parse(time.RFC3339, entry.SentAt); err == nil && sentAt.Before(rollout) {
				continue
			}
		}
		logger.Log("Manual outbound message at position %d, marking thread human-owned", entry.Position)
		o.store.SetManualOwner(threadID)
		return
	}
}

func (o *Orchestrator) raiseAlert(ctx context.Context, msg *models.Message, threadID, template string,
	reasons []string, summary string, logger *logging.DeliveryLogger) {

	err := o.alerter.QueueAlert(ctx, alerts.Alert{
		ThreadID:  threadID,
		MessageID: msg.MessageID,
		From:      msg.From,
		Template:  template,
		Reasons:   reasons,
		Summary:   summary,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logger.LogError("alert", err)
		log.Printf("[ERROR] Failed to raise alert for thread %s: %v", threadID, err)
		return
	}
	logger.LogAction("alert_raised", strings.Join(reasons, ", "))
}

func (o *Orchestrator) record(ctx context.Context, deliveryID, threadID string, msg *models.Message,
	template string, confidence float64, autoSent bool, reasons []string) {

	err := o.recorder.Record(ctx, audit.Entry{
		DeliveryID: deliveryID,
		ThreadID:   threadID,
		MessageID:  msg.MessageID,
		From:       msg.From,
		Template:   template,
		Confidence: confidence,
		AutoSent:   autoSent,
		Reasons:    reasons,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to record decision for thread %s: %v", threadID, err)
	}
}

func toSignals(raw []string) []signals.Signal {
	out := make([]signals.Signal, 0, len(raw))
	for _, s := range raw {
		out = append(out, signals.Signal(s))
	}
	return out
}

func classificationRoles(c *models.Classification) []string {
	if role := c.Role(); role != "" {
		return []string{role}
	}
	return nil
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func summarize(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		return body[:200] + "..."
	}
	return body
}
