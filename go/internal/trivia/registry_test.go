package trivia

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
)

func TestRegistryCreateDuplicate(t *testing.T) {
	r := NewRegistry(clockwork.NewFakeClock())

	if _, err := r.Create("room", "Host", "h1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Create("room", "Other", "h2"); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}

	s, ok := r.Get("room")
	if !ok || *s.HostID != "h1" {
		t.Fatal("original session should be untouched")
	}
	if len(r.SessionsFor("h2")) != 0 {
		t.Error("losing creator should not be tracked")
	}
}

func TestRegistryConcurrentCreate(t *testing.T) {
	r := NewRegistry(nil)

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Create("room", "Host", fmt.Sprintf("conn-%d", i))
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else if !errors.Is(err, ErrDuplicateSession) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one successful create, got %d", winners)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one live session, got %d", r.Len())
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(nil)
	s, _ := r.Create("room", "Host", "h")
	s.Join("Ada", "a", 3)
	r.Track("a", "room")

	timer := &countingTimer{}
	s.Lock()
	s.SetActiveTimer(timer)
	r.Remove(s)
	s.Unlock()

	if _, ok := r.Get("room"); ok {
		t.Error("session should be gone")
	}
	if !s.Closed() {
		t.Error("removed session should be closed")
	}
	if timer.cancels != 1 {
		t.Errorf("pending timer should be cancelled, got %d cancels", timer.cancels)
	}
	if len(r.SessionsFor("a")) != 0 || len(r.SessionsFor("h")) != 0 {
		t.Error("connections should be untracked")
	}

	// The id is free again
	if _, err := r.Create("room", "Host", "h"); err != nil {
		t.Errorf("id should be reusable: %v", err)
	}
}

func TestRegistrySessionsFor(t *testing.T) {
	r := NewRegistry(nil)
	r.Create("one", "Host", "h")
	r.Create("two", "Host", "h")
	r.Create("three", "Other", "x")

	if got := len(r.SessionsFor("h")); got != 2 {
		t.Errorf("expected 2 sessions for h, got %d", got)
	}
	r.Untrack("h", "one")
	if got := r.SessionsFor("h"); len(got) != 1 || got[0].ID != "two" {
		t.Errorf("unexpected sessions after untrack: %v", got)
	}
}
