package common

import "testing"

func TestCalculateHash(t *testing.T) {
	first := CalculateHash("key", "user-1", []byte("google"))
	second := CalculateHash("key", "user-1", []byte("google"))
	if first != second {
		t.Fatal("same inputs must hash identically")
	}
	if other := CalculateHash("key", "user-2", []byte("google")); other == first {
		t.Fatal("different inputs must not collide")
	}
	if other := CalculateHash("other-key", "user-1", []byte("google")); other == first {
		t.Fatal("different keys must not collide")
	}
	if CalculateHash("key") != "" {
		t.Fatal("no inputs must hash to the empty string")
	}
}
