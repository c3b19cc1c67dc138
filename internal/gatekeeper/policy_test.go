package gatekeeper

import "testing"

func TestCombineAllEmpty(t *testing.T) {
	result := CombineAll()
	if !result.Allowed || result.ReasonCode != ReasonOK {
		t.Fatalf("empty combination must allow, got %+v", result)
	}
}

func TestCombineAllAllPass(t *testing.T) {
	result := CombineAll(allow(), allow(), allow())
	if !result.Allowed {
		t.Fatalf("expected allowed, got %+v", result)
	}
}

// The first failing check wins; its reason code survives combination.
func TestCombineAllFirstFailureWins(t *testing.T) {
	result := CombineAll(
		allow(),
		deny(ReasonYouTubeNotSubscribed),
		deny(ReasonTwitchNotFollowing),
	)
	if result.Allowed {
		t.Fatal("expected denial")
	}
	if result.ReasonCode != ReasonYouTubeNotSubscribed {
		t.Fatalf("expected first failure's reason, got %s", result.ReasonCode)
	}
}

func TestCombineAllKeepsDetails(t *testing.T) {
	result := CombineAll(denyWithDetails(ReasonYouTubeVerificationFailed, "quota exceeded"))
	if result.Details != "quota exceeded" {
		t.Fatalf("details lost: %+v", result)
	}
}
