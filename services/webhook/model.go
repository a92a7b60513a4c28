package webhook

import (
	"encoding/json"

	"arkada-rewards/pkg/errutil"
	"arkada-rewards/services/onchain"
)

// Delivery is one inbound notification from the indexing provider. It lives
// only until the job carrying it is durably queued.
type Delivery struct {
	ID        string        `json:"id"`
	CreatedAt string        `json:"createdAt"`
	Type      string        `json:"type"`
	Event     DeliveryEvent `json:"event"`
}

type DeliveryEvent struct {
	Data    DeliveryData `json:"data"`
	Network string       `json:"network"`
}

type DeliveryData struct {
	Block Block `json:"block"`
}

type Block struct {
	Number uint64     `json:"number"`
	Logs   []BlockLog `json:"logs"`
}

type BlockLog struct {
	Transaction struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
	Topics []string `json:"topics"`
	Data   string   `json:"data"`
	Account struct {
		Address string `json:"address"`
	} `json:"account"`
}

// ParseDelivery decodes a raw webhook body. A body whose block carries no log
// list is malformed; there is nothing to process and the job must be rejected
// rather than silently ignored.
func ParseDelivery(raw []byte) (*Delivery, error) {
	var delivery Delivery
	if err := json.Unmarshal(raw, &delivery); err != nil {
		return nil, errutil.BadRequest("malformed webhook payload", err)
	}

	if len(delivery.Event.Data.Block.Logs) == 0 {
		return nil, errutil.BadRequest("webhook payload has no logs", nil)
	}

	return &delivery, nil
}

// RawLogs converts the delivery's logs into the decoder's input shape.
func (d *Delivery) RawLogs() []onchain.RawLog {
	logs := make([]onchain.RawLog, 0, len(d.Event.Data.Block.Logs))
	for _, log := range d.Event.Data.Block.Logs {
		logs = append(logs, onchain.RawLog{
			TxHash:  log.Transaction.Hash,
			Topics:  log.Topics,
			Data:    log.Data,
			Address: log.Account.Address,
		})
	}
	return logs
}
