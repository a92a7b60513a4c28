package onchain

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// RawLog is one undecoded log as delivered by the webhook provider.
type RawLog struct {
	TxHash  string
	Topics  []string
	Data    string
	Address string
}

// EventData is the decoded payload of a known streak contract event.
type EventData interface {
	// Args returns the event arguments with bigint values rendered as plain
	// JSON numbers, suitable for storage.
	Args() map[string]json.RawMessage
}

// CheckInData is the decoded CheckIn event payload.
type CheckInData struct {
	User      string
	Streak    *big.Int
	Timestamp *big.Int
}

func (d CheckInData) Args() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"user":      jsonString(d.User),
		"streak":    jsonNumber(d.Streak),
		"timestamp": jsonNumber(d.Timestamp),
	}
}

// StreakResetData is the decoded StreakReset event payload.
type StreakResetData struct {
	User      string
	Timestamp *big.Int
}

func (d StreakResetData) Args() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"user":      jsonString(d.User),
		"timestamp": jsonNumber(d.Timestamp),
	}
}

// Event is one decoded contract log.
type Event struct {
	// TxHash is the lowercase transaction hash, the unit of idempotency.
	TxHash      string
	Name        string
	Signature   string
	Address     string
	BlockNumber uint64
	Data        EventData
}

// ArgsJSON serializes the decoded arguments for the transactions table.
func (e Event) ArgsJSON() ([]byte, error) {
	return json.Marshal(e.Data.Args())
}

func jsonNumber(v *big.Int) json.RawMessage {
	if v == nil {
		return json.RawMessage("0")
	}
	return json.RawMessage(v.String())
}

func jsonString(v string) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf("%q", v))
	}
	return b
}
