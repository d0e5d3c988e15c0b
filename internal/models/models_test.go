package models

import "testing"

func TestSessionAllCompleted(t *testing.T) {
	var empty Session
	if empty.AllCompleted() {
		t.Fatal("session without participants must not be complete")
	}

	s := Session{Participants: []Participant{
		{Role: RoleChild, IsCompleted: true},
		{Role: RoleParent},
	}}
	if s.AllCompleted() {
		t.Fatal("expected incomplete while the parent has not submitted")
	}
	s.Participants[1].IsCompleted = true
	if !s.AllCompleted() {
		t.Fatal("expected complete once both submitted")
	}
}

func TestSessionFind(t *testing.T) {
	s := Session{Participants: []Participant{{ID: "c", Role: RoleChild}}}
	if p := s.Find(RoleChild); p == nil || p.ID != "c" {
		t.Fatalf("Find(Child) = %+v", p)
	}
	if p := s.Find(RoleParent); p != nil {
		t.Fatalf("Find(Parent) = %+v, want nil", p)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleParent, RoleChild} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Role{"", "parent", "Teacher"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}
