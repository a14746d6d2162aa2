package core

import "testing"

func TestSession_AddEventAndCopyOnRead(t *testing.T) {
	s := NewSession("s1", "user-1")
	s.AddEvent(NewUserMessageEvent("inv-1", "hi"))
	s.AddEvent(NewMessageEvent("agent", "hello"))

	all := s.GetEvents()
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
	orig := all[0].Author
	all[0].Author = "changed"
	if s.GetEvents()[0].Author != orig {
		t.Error("events slice should be copied on read")
	}
}

func TestSession_HistoryFiltersPartialsAndControls(t *testing.T) {
	s := NewSession("s2", "user-1")
	s.AddEvent(NewUserMessageEvent("inv-1", "question"))
	s.AddEvent(NewControlEvent("agent"))
	s.AddEvent(NewPartialEvent("agent", "ans"))
	s.AddEvent(NewPartialEvent("agent", "wer"))
	s.AddEvent(NewMessageEvent("agent", "answer"))

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected user message + final answer, got %d events", len(history))
	}
	if history[0].Text() != "question" || history[1].Text() != "answer" {
		t.Errorf("history content mismatch: %q %q", history[0].Text(), history[1].Text())
	}
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := NewSession("s3", "user-1")
	s.AddEvent(NewMessageEvent("agent", "original"))

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}
	clone.AddEvent(NewMessageEvent("agent", "extra"))
	if len(s.GetEvents()) != 1 {
		t.Error("original should not see clone's new event")
	}
	if clone.UserID != s.UserID || clone.ID != s.ID {
		t.Error("clone should preserve identifiers")
	}
}
