package state

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_UnknownKeysReadZero(t *testing.T) {
	s := NewStore()

	if s.AgreementSent("t1") {
		t.Error("unknown thread reported agreement sent")
	}
	if s.ManualOwner("t1") {
		t.Error("unknown thread reported manual owner")
	}
	if s.IsProcessed("t1", "m1") {
		t.Error("unknown message reported processed")
	}
	if s.LastTemplate("t1") != "" || s.LastFrom("t1") != "" {
		t.Error("unknown thread has non-empty fields")
	}
	if got := s.RolesLocked("t1"); len(got) != 0 {
		t.Errorf("unknown thread has roles %v", got)
	}
	if s.IsUnsubscribed("lead@example.com") {
		t.Error("unknown address reported unsubscribed")
	}
	snap := s.Snapshot("t1")
	if snap.AutoRepliesSent != 0 || snap.AgreementSent {
		t.Errorf("unknown thread snapshot not zero: %+v", snap)
	}
}

func TestStore_MarkProcessedIdempotent(t *testing.T) {
	s := NewStore()
	s.MarkProcessed("t1", "m1")
	s.MarkProcessed("t1", "m1")

	if !s.IsProcessed("t1", "m1") {
		t.Fatal("message not marked processed")
	}
	snap := s.Snapshot("t1")
	if len(snap.ProcessedMsgIDs) != 1 {
		t.Errorf("set semantics violated: %v", snap.ProcessedMsgIDs)
	}
	if s.IsProcessed("t2", "m1") {
		t.Error("processed set leaked across threads")
	}
}

func TestStore_MonotonicCounters(t *testing.T) {
	s := NewStore()
	if got := s.IncAutoReplies("t1"); got != 1 {
		t.Errorf("first increment = %d", got)
	}
	if got := s.IncAutoReplies("t1"); got != 2 {
		t.Errorf("second increment = %d", got)
	}
	if got := s.IncMoreInfoLoop("t1"); got != 1 {
		t.Errorf("more-info increment = %d", got)
	}
}

func TestStore_SetOnceBooleans(t *testing.T) {
	s := NewStore()

	s.MarkAgreementSent("t1")
	s.MarkAgreementSent("t1")
	if !s.AgreementSent("t1") {
		t.Fatal("agreement not sticky")
	}

	s.MarkUnsubscribed("Lead@Example.com ")
	if !s.IsUnsubscribed("lead@example.com") {
		t.Error("unsubscribe lookup not address-normalized")
	}
}

func TestStore_ManualOwnerResettable(t *testing.T) {
	s := NewStore()
	s.SetManualOwner("t1")
	if !s.ManualOwner("t1") {
		t.Fatal("manual owner not set")
	}
	s.ResetManualOwner("t1")
	if s.ManualOwner("t1") {
		t.Error("manual owner not reset")
	}
	// Reset on an unknown thread must not create state.
	s.ResetManualOwner("t2")
	if s.ManualOwner("t2") {
		t.Error("reset created state")
	}
}

func TestStore_RoleLockNormalized(t *testing.T) {
	s := NewStore()
	s.LockRole("t1", "  Software   Engineer ")
	s.LockRole("t1", "software engineer")
	s.LockRole("t1", "Nurse")
	s.LockRole("t1", "")

	got := s.RolesLocked("t1")
	if len(got) != 2 {
		t.Fatalf("expected 2 locked roles, got %v", got)
	}
	if got[0] != "software engineer" || got[1] != "nurse" {
		t.Errorf("roles not normalized: %v", got)
	}
}

func TestStore_LastFromOverwrites(t *testing.T) {
	s := NewStore()
	s.SetLastFrom("t1", "First@Example.com")
	s.SetLastFrom("t1", "second@example.com")
	s.SetLastFrom("t1", "")

	if got := s.LastFrom("t1"); got != "second@example.com" {
		t.Errorf("last from = %q", got)
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.LockRole("t1", "nurse")
	snap := s.Snapshot("t1")
	snap.LockedRoles[0] = "mutated"

	if got := s.RolesLocked("t1"); got[0] != "nurse" {
		t.Errorf("snapshot aliased store state: %v", got)
	}
}

func TestStore_ConcurrentDistinctThreads(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("thread-%d", i%10)
			unlock := s.LockThread(id)
			s.IncAutoReplies(id)
			s.MarkProcessed(id, fmt.Sprintf("msg-%d", i))
			unlock()
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 10; i++ {
		total += s.Snapshot(fmt.Sprintf("thread-%d", i)).AutoRepliesSent
	}
	if total != 50 {
		t.Errorf("lost increments: total = %d", total)
	}
}

func TestStore_PerThreadSerialization(t *testing.T) {
	s := NewStore()
	const workers = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.LockThread("t1")
			defer unlock()
			// Read-then-write under the thread lock; interleaving would
			// lose updates.
			n := s.Snapshot("t1").AutoRepliesSent
			s.IncAutoReplies("t1")
			if got := s.Snapshot("t1").AutoRepliesSent; got != n+1 {
				t.Errorf("interleaved read-modify-write: %d -> %d", n, got)
			}
		}()
	}
	wg.Wait()

	if got := s.Snapshot("t1").AutoRepliesSent; got != workers {
		t.Errorf("auto replies = %d, want %d", got, workers)
	}
}
