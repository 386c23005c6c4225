package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// EventSink receives structured events about a delivery for operator
// dashboards. All methods are best-effort; emit failures never affect the
// delivery itself.
type EventSink interface {
	EmitStatusEvent(deliveryID, status string)
	EmitDecisionEvent(deliveryID, threadID, template string, ok bool, confidence float64, reasons []string)
	EmitActionEvent(deliveryID, threadID, action, detail string)
}

// DeliveryLogger manages the trace log for a single webhook delivery. Every
// delivery gets its own file under delivery_logs/ so a misfired auto-reply
// can be reconstructed step by step.
type DeliveryLogger struct {
	deliveryID string
	threadID   string
	logFile    *os.File
	mutex      sync.Mutex
	startTime  time.Time
	eventSink  EventSink
}

var (
	currentLogger *DeliveryLogger
	loggerMutex   sync.Mutex
)

// StartDeliveryLogging initializes the trace log for a new webhook delivery.
func StartDeliveryLogging(deliveryID, threadID string) (*DeliveryLogger, error) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join("delivery_logs", fmt.Sprintf("delivery_%s_%s.log", deliveryID, timestamp))

	if err := os.MkdirAll("delivery_logs", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &DeliveryLogger{
		deliveryID: deliveryID,
		threadID:   threadID,
		logFile:    logFile,
		startTime:  time.Now(),
	}
	currentLogger = logger

	logger.Log("Delivery %s started (thread %s)", deliveryID, threadID)
	return logger, nil
}

// GetCurrentLogger returns the current active logger, nil when no delivery
// is in flight.
func GetCurrentLogger() *DeliveryLogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	return currentLogger
}

// SetEventSink attaches an event sink and emits the initial status event.
func (d *DeliveryLogger) SetEventSink(sink EventSink) {
	if d == nil {
		return
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.eventSink = sink
	if sink != nil {
		sink.EmitStatusEvent(d.deliveryID, "started")
	}
}

// Log writes a timestamped message to the delivery log.
func (d *DeliveryLogger) Log(format string, args ...interface{}) {
	if d == nil {
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.logFile == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(d.startTime).Round(time.Millisecond)
	d.logFile.WriteString(fmt.Sprintf("[%s] [+%v] %s\n", timestamp, elapsed, fmt.Sprintf(format, args...)))
	d.logFile.Sync()
}

// LogSection writes a section header.
func (d *DeliveryLogger) LogSection(title string) {
	if d == nil {
		return
	}
	separator := strings.Repeat("=", 72)
	d.Log("%s", separator)
	d.Log("= %s", title)
	d.Log("%s", separator)
}

// LogError logs an error with its context.
func (d *DeliveryLogger) LogError(context string, err error) {
	if d == nil {
		return
	}
	d.Log("ERROR in %s: %v", context, err)
}

// LogClassification records the raw classifier exchange.
func (d *DeliveryLogger) LogClassification(prompt, response string) {
	if d == nil {
		return
	}
	d.LogSection("CLASSIFICATION")
	d.Log("Prompt length: %d characters", len(prompt))
	d.Log("Response length: %d characters", len(response))
	d.Log("--- RESPONSE START ---")
	d.mutex.Lock()
	if d.logFile != nil {
		d.logFile.WriteString(response + "\n")
	}
	d.mutex.Unlock()
	d.Log("--- RESPONSE END ---")
}

// LogDecision records the engine verdict and emits the decision event.
func (d *DeliveryLogger) LogDecision(template string, ok bool, confidence float64, reasons []string) {
	if d == nil {
		return
	}
	d.LogSection("DECISION")
	d.Log("Template: %s", template)
	d.Log("OK to auto-respond: %v (confidence %.2f)", ok, confidence)
	if len(reasons) > 0 {
		d.Log("Blocking reasons: %s", strings.Join(reasons, ", "))
	}

	d.mutex.Lock()
	sink := d.eventSink
	d.mutex.Unlock()
	if sink != nil {
		sink.EmitDecisionEvent(d.deliveryID, d.threadID, template, ok, confidence, reasons)
	}
}

// LogAction records a side effect (reply sent, agreement dispatched, alert
// raised) and emits the action event.
func (d *DeliveryLogger) LogAction(action, detail string) {
	if d == nil {
		return
	}
	d.Log("ACTION %s: %s", action, detail)

	d.mutex.Lock()
	sink := d.eventSink
	d.mutex.Unlock()
	if sink != nil {
		sink.EmitActionEvent(d.deliveryID, d.threadID, action, detail)
	}
}

// Close finalizes the log file.
func (d *DeliveryLogger) Close() {
	if d == nil {
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.logFile != nil {
		elapsed := time.Since(d.startTime).Round(time.Millisecond)
		d.logFile.WriteString(fmt.Sprintf("Delivery completed in %v\n", elapsed))
		d.logFile.Sync()
		if d.eventSink != nil {
			d.eventSink.EmitStatusEvent(d.deliveryID, "completed")
		}
		d.logFile.Close()
		d.logFile = nil
	}

	loggerMutex.Lock()
	if currentLogger == d {
		currentLogger = nil
	}
	loggerMutex.Unlock()
}
