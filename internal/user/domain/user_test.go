package domain

import "testing"

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	if id.String() != "42" {
		t.Errorf("expected \"42\", got %q", id.String())
	}
	if _, err := ParseID("abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestUser_HasPassword(t *testing.T) {
	empty := ""
	hash := "$2a$12$abc"

	if (User{}).HasPassword() {
		t.Error("nil hash must report no password")
	}
	if (User{PasswordHash: &empty}).HasPassword() {
		t.Error("empty hash must report no password")
	}
	if !(User{PasswordHash: &hash}).HasPassword() {
		t.Error("expected password")
	}
}
