// Package bus wraps the MQTT connection to the card fleet's broker.
package bus

import "encoding/json"

// Publisher is the outbound side of the bus. Implementations marshal the
// payload to JSON and attempt delivery at least once; callers decide whether
// a failure is fatal (the ledger treats it as log-and-continue).
type Publisher interface {
	Publish(topic string, payload any) error
}

// Topics are the team-scoped MQTT topics the card fleet uses. Status and
// balance originate on the device side; topup is published by the ledger
// after a committed adjustment.
type Topics struct {
	Status  string
	Balance string
	Topup   string
}

func TopicsFor(teamID string) Topics {
	base := "rfid/" + teamID + "/card/"

	return Topics{
		Status:  base + "status",
		Balance: base + "balance",
		Topup:   base + "topup",
	}
}

// BalanceChanged is the payload published to the topup topic after a commit.
// Amount carries the card's new balance, which is what the reader displays.
// json.Number keeps it a bare number on the wire; the readers parse floats.
type BalanceChanged struct {
	UID    string      `json:"uid"`
	Amount json.Number `json:"amount"`
}
