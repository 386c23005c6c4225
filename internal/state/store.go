// Package state holds per-conversation milestones for the autoresponder:
// reply depth, agreement dispatch, manual ownership, role locks and the
// processed-message set, plus a per-address do-not-contact namespace. State
// is process-lifetime only; unknown keys read as zero values.
package state

import (
	"strings"
	"sync"
)

type threadState struct {
	autoRepliesSent int
	moreInfoLoops   int
	agreementSent   bool
	manualOwner     bool
	lastTemplate    string
	lastFrom        string
	lockedRoles     []string
	processedMsgIDs map[string]struct{}
}

// Snapshot is a point-in-time copy of one thread's state, safe to hand to
// the decision engine without holding the store lock.
type Snapshot struct {
	AutoRepliesSent int
	MoreInfoLoops   int
	AgreementSent   bool
	ManualOwner     bool
	LastTemplate    string
	LastFrom        string
	LockedRoles     []string
	ProcessedMsgIDs []string
}

// Store is the conversation state store. All accessors are safe for
// concurrent use across threads; callers processing the same thread must
// additionally serialize through LockThread so read-decide-send-write
// sequences do not interleave.
type Store struct {
	mu           sync.RWMutex
	threads      map[string]*threadState
	unsubscribed map[string]struct{} // keyed by normalized address

	locks keyedLocker
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		threads:      make(map[string]*threadState),
		unsubscribed: make(map[string]struct{}),
	}
}

// LockThread acquires the per-thread mutex and returns the unlock func.
// Deliveries for distinct threads proceed in parallel.
func (s *Store) LockThread(threadID string) func() {
	return s.locks.lock(threadID)
}

// thread returns the state record for id, creating it lazily. Callers must
// hold s.mu.
func (s *Store) thread(id string) *threadState {
	ts, ok := s.threads[id]
	if !ok {
		ts = &threadState{processedMsgIDs: make(map[string]struct{})}
		s.threads[id] = ts
	}
	return ts
}

// MarkProcessed records that a message id was acted upon. Set semantics:
// marking twice is a no-op.
func (s *Store) MarkProcessed(threadID, messageID string) {
	if messageID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread(threadID).processedMsgIDs[messageID] = struct{}{}
}

// IsProcessed reports whether a message id was already acted upon.
func (s *Store) IsProcessed(threadID, messageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.threads[threadID]
	if !ok {
		return false
	}
	_, done := ts.processedMsgIDs[messageID]
	return done
}

// IncAutoReplies increments the automated reply counter and returns the new
// value. Called only after a send has been confirmed.
func (s *Store) IncAutoReplies(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.thread(threadID)
	ts.autoRepliesSent++
	return ts.autoRepliesSent
}

// IncMoreInfoLoop increments the more-info loop counter and returns the new
// value.
func (s *Store) IncMoreInfoLoop(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.thread(threadID)
	ts.moreInfoLoops++
	return ts.moreInfoLoops
}

// MarkAgreementSent flips the agreement milestone. Monotonic: there is no
// unset operation.
func (s *Store) MarkAgreementSent(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread(threadID).agreementSent = true
}

// AgreementSent reports whether the agreement has gone out for this thread.
func (s *Store) AgreementSent(threadID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.threads[threadID]
	return ok && ts.agreementSent
}

// SetManualOwner marks the thread as owned by a human.
func (s *Store) SetManualOwner(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread(threadID).manualOwner = true
}

// ResetManualOwner clears the manual-owner flag. Exists because the
// detection has a known false-positive mode: the original campaign email
// carries no automation marker and can be mistaken for a manual reply.
func (s *Store) ResetManualOwner(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts, ok := s.threads[threadID]; ok {
		ts.manualOwner = false
	}
}

// ManualOwner reports whether the thread is human-owned.
func (s *Store) ManualOwner(threadID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.threads[threadID]
	return ok && ts.manualOwner
}

// SetLastTemplate records the most recently sent template for back-to-back
// duplicate suppression.
func (s *Store) SetLastTemplate(threadID, template string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread(threadID).lastTemplate = template
}

// LastTemplate returns the most recently sent template, empty for new
// threads.
func (s *Store) LastTemplate(threadID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.threads[threadID]
	if !ok {
		return ""
	}
	return ts.lastTemplate
}

// LockRole appends a confirmed role to the thread's lock set. Membership is
// case- and whitespace-insensitive; the set is append-only.
func (s *Store) LockRole(threadID, role string) {
	norm := normalizeRole(role)
	if norm == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.thread(threadID)
	for _, existing := range ts.lockedRoles {
		if existing == norm {
			return
		}
	}
	ts.lockedRoles = append(ts.lockedRoles, norm)
}

// RolesLocked returns a copy of the locked role set.
func (s *Store) RolesLocked(threadID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.threads[threadID]
	if !ok {
		return nil
	}
	out := make([]string, len(ts.lockedRoles))
	copy(out, ts.lockedRoles)
	return out
}

// SetLastFrom records the most recent human sender in the thread, used to
// redirect agreement delivery on forwarded threads.
func (s *Store) SetLastFrom(threadID, address string) {
	addr := normalizeAddress(address)
	if addr == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread(threadID).lastFrom = addr
}

// LastFrom returns the most recent human sender address, empty for new
// threads.
func (s *Store) LastFrom(threadID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.threads[threadID]
	if !ok {
		return ""
	}
	return ts.lastFrom
}

// MarkUnsubscribed adds an address to the do-not-contact set. Monotonic.
func (s *Store) MarkUnsubscribed(address string) {
	addr := normalizeAddress(address)
	if addr == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed[addr] = struct{}{}
}

// IsUnsubscribed reports whether an address opted out.
func (s *Store) IsUnsubscribed(address string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, out := s.unsubscribed[normalizeAddress(address)]
	return out
}

// Snapshot copies the thread's current state. Unknown threads return the
// zero snapshot.
func (s *Store) Snapshot(threadID string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.threads[threadID]
	if !ok {
		return Snapshot{}
	}
	snap := Snapshot{
		AutoRepliesSent: ts.autoRepliesSent,
		MoreInfoLoops:   ts.moreInfoLoops,
		AgreementSent:   ts.agreementSent,
		ManualOwner:     ts.manualOwner,
		LastTemplate:    ts.lastTemplate,
		LastFrom:        ts.lastFrom,
	}
	snap.LockedRoles = make([]string, len(ts.lockedRoles))
	copy(snap.LockedRoles, ts.lockedRoles)
	for id := range ts.processedMsgIDs {
		snap.ProcessedMsgIDs = append(snap.ProcessedMsgIDs, id)
	}
	return snap
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.Join(strings.Fields(role), " "))
}
