package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTransitionsAreLinear(t *testing.T) {
	tests := []struct {
		action   ClaimAction
		from, to ClaimStatus
	}{
		{ActionVerify, StatusCreated, StatusVerified},
		{ActionLogBilty, StatusVerified, StatusBiltyLogged},
		{ActionApprove, StatusBiltyLogged, StatusApproved},
	}

	for _, tt := range tests {
		from, to, ok := Transition(tt.action)
		if !ok {
			t.Fatalf("Transition(%q): unknown action", tt.action)
		}
		if from != tt.from || to != tt.to {
			t.Errorf("Transition(%q) = %s -> %s, want %s -> %s", tt.action, from, to, tt.from, tt.to)
		}
	}

	if _, _, ok := Transition("reopen"); ok {
		t.Error("expected unknown action to be rejected")
	}
}

func TestClaimStatusPredicates(t *testing.T) {
	if StatusCreated.Verified() {
		t.Error("created claim must not report verified")
	}
	for _, s := range []ClaimStatus{StatusVerified, StatusBiltyLogged, StatusApproved} {
		if !s.Verified() {
			t.Errorf("%s should report verified", s)
		}
		if s.Editable() {
			t.Errorf("%s should not be editable", s)
		}
	}
	if StatusApproved.Deletable() {
		t.Error("approved claim must not be deletable")
	}
	if !StatusBiltyLogged.Deletable() {
		t.Error("bilty_logged claim should be deletable")
	}
	if ClaimStatus("archived").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestIDJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		ID ID `json:"id"`
	}{ID: 42})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"id":"42"}` {
		t.Errorf("unexpected encoding %s", data)
	}

	var line ClaimLine
	if err := json.Unmarshal([]byte(`{"item_id":7,"quantity":1}`), &line); err != nil {
		t.Fatalf("bare number: %v", err)
	}
	if line.ItemID != 7 {
		t.Errorf("expected item 7, got %d", line.ItemID)
	}
	if err := json.Unmarshal([]byte(`{"item_id":"8","quantity":1}`), &line); err != nil {
		t.Fatalf("quoted number: %v", err)
	}
	if line.ItemID != 8 {
		t.Errorf("expected item 8, got %d", line.ItemID)
	}
	if err := json.Unmarshal([]byte(`{"item_id":"abc"}`), &line); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	inputs := []any{
		want,
		&want,
		"2024-01-15T00:00:00Z",
		"2024-01-15T00:00:00",
		"2024-01-15T05:00:00+05:00",
		"2024-01-15 00:00:00",
		"2024-01-15 00:00:00 +0000 UTC",
		"2024-01-15",
		[]byte("2024-01-15T00:00:00Z"),
	}
	for _, in := range inputs {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Errorf("ParseTimestamp(%v): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%v) = %v, want %v", in, got, want)
		}
	}

	for _, bad := range []any{nil, "", "yesterday", 12345, time.Time{}} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%v): expected error", bad)
		}
	}
}
