package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewHostTokens("test-secret", time.Hour)
	tok, err := tokens.Issue("room1234", "host-secret")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tokens.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.RoomID != "room1234" || claims.HostSecret != "host-secret" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	tokens := NewHostTokens("test-secret", time.Hour)
	other := NewHostTokens("other-secret", time.Hour)
	tok, _ := other.Issue("room1234", "host-secret")
	if _, err := tokens.Parse(tok); err == nil {
		t.Fatalf("token signed with another key was accepted")
	}

	expired := NewHostTokens("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _ = expired.Issue("room1234", "host-secret")
	if _, err := tokens.Parse(tok); err == nil {
		t.Fatalf("expired token was accepted")
	}

	if _, err := tokens.Parse("not-a-token"); err == nil {
		t.Fatalf("garbage was accepted")
	}
}
