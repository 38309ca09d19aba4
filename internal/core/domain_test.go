package core

import "testing"

func TestSignedImpact(t *testing.T) {
	if got := SignedImpact(KindExpense, 150); got != -150 {
		t.Fatalf("expense impact = %d", got)
	}
	if got := (Transaction{Kind: KindIncome, Amount: 150}).Impact(); got != 150 {
		t.Fatalf("income impact = %d", got)
	}
}

func TestValidID(t *testing.T) {
	id := NewID()
	if !ValidID(id) {
		t.Fatalf("fresh id %q rejected", id)
	}
	for _, bad := range []string{"", "123", "not-a-uuid-but-36-characters-long!!!", "{" + id[:34] + "}"} {
		if ValidID(bad) {
			t.Fatalf("ValidID(%q) = true", bad)
		}
	}
}
