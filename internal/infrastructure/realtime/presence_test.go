package realtime

import (
	"reflect"
	"testing"
)

func TestJoinViewIdempotent(t *testing.T) {
	p := NewPresenceRegistry()

	if count := p.JoinView("t1", "u1", "Alice"); count != 1 {
		t.Fatalf("expected count 1 after first join, got %d", count)
	}
	if count := p.JoinView("t1", "u1", "Alice"); count != 1 {
		t.Fatalf("expected count 1 after duplicate join, got %d", count)
	}
	if count := p.JoinView("t1", "u2", "Bob"); count != 2 {
		t.Fatalf("expected count 2 after second user, got %d", count)
	}
}

func TestLeaveViewPrunesEmptyThreads(t *testing.T) {
	p := NewPresenceRegistry()

	p.JoinView("t1", "u1", "Alice")
	if count := p.LeaveView("t1", "u1"); count != 0 {
		t.Fatalf("expected count 0 after leave, got %d", count)
	}

	if active := p.ActiveThreads(); len(active) != 0 {
		t.Fatalf("expected no active threads after prune, got %v", active)
	}
}

func TestLeaveViewUnknownIsNoop(t *testing.T) {
	p := NewPresenceRegistry()

	if count := p.LeaveView("t1", "u1"); count != 0 {
		t.Fatalf("expected count 0 for unknown thread, got %d", count)
	}

	p.JoinView("t1", "u1", "Alice")
	if count := p.LeaveView("t1", "u2"); count != 1 {
		t.Fatalf("expected count 1 after non-member leave, got %d", count)
	}
}

func TestViewersSorted(t *testing.T) {
	p := NewPresenceRegistry()

	p.JoinView("t1", "u3", "Carol")
	p.JoinView("t1", "u1", "Alice")
	p.JoinView("t1", "u2", "Bob")

	got := p.Viewers("t1")
	want := []string{"u1", "u2", "u3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected viewers %v, got %v", want, got)
	}
}
