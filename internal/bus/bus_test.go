package bus

import (
	"encoding/json"
	"testing"
)

func TestTopicsFor(t *testing.T) {
	t.Parallel()

	topics := TopicsFor("Mavics")

	if topics.Status != "rfid/Mavics/card/status" {
		t.Fatalf("status topic: %s", topics.Status)
	}
	if topics.Balance != "rfid/Mavics/card/balance" {
		t.Fatalf("balance topic: %s", topics.Balance)
	}
	if topics.Topup != "rfid/Mavics/card/topup" {
		t.Fatalf("topup topic: %s", topics.Topup)
	}
}

// The readers parse amount as a bare JSON number; a quoted string would brick
// their display.
func TestBalanceChanged_WireFormat(t *testing.T) {
	t.Parallel()

	got, err := json.Marshal(BalanceChanged{UID: "ab12cd34", Amount: json.Number("70.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"uid":"ab12cd34","amount":70.5}`
	if string(got) != want {
		t.Fatalf("wire format: want %s, got %s", want, got)
	}
}
