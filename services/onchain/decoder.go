package onchain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"arkada-rewards/pkg/errutil"
)

// Decoder decodes streak contract logs into typed events.
type Decoder struct {
	contractABI abi.ABI
	topicToName map[string]string
}

// NewDecoder builds a decoder over the streak contract ABI.
func NewDecoder() (*Decoder, error) {
	contractABI, err := StreakABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[string]string{
		strings.ToLower(contractABI.Events["CheckIn"].ID.Hex()):     "CheckIn",
		strings.ToLower(contractABI.Events["StreakReset"].ID.Hex()): "StreakReset",
	}

	return &Decoder{
		contractABI: contractABI,
		topicToName: topicToName,
	}, nil
}

// DecodeBlock decodes a block's logs. A log that does not match the contract
// interface is dropped with a warning; it never aborts the batch. The returned
// events preserve the relative order of the input logs and all carry
// blockNumber, which the provider reports once per block.
func (d *Decoder) DecodeBlock(logs []RawLog, blockNumber uint64) ([]Event, error) {
	if len(logs) == 0 {
		return nil, errutil.BadRequest("block payload contains no logs", nil)
	}

	events := make([]Event, 0, len(logs))
	for _, log := range logs {
		event, err := d.decodeLog(log, blockNumber)
		if err != nil {
			zap.L().Warn("skipping undecodable log",
				zap.String("tx_hash", log.TxHash),
				zap.Uint64("block_number", blockNumber),
				zap.Error(err),
			)
			continue
		}
		events = append(events, *event)
	}

	return events, nil
}

func (d *Decoder) decodeLog(log RawLog, blockNumber uint64) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}

	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}

	event := Event{
		TxHash:      strings.ToLower(log.TxHash),
		Name:        name,
		Address:     log.Address,
		BlockNumber: blockNumber,
	}

	switch name {
	case "CheckIn":
		data, err := d.decodeCheckIn(log)
		if err != nil {
			return nil, err
		}
		event.Signature = SigCheckIn
		event.Data = data
	case "StreakReset":
		data, err := d.decodeStreakReset(log)
		if err != nil {
			return nil, err
		}
		event.Signature = SigStreakReset
		event.Data = data
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}

	return &event, nil
}

func (d *Decoder) decodeCheckIn(log RawLog) (CheckInData, error) {
	event := d.contractABI.Events["CheckIn"]

	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return CheckInData{}, err
	}

	var indexed struct {
		User common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return CheckInData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return CheckInData{}, err
	}
	if len(values) != 2 {
		return CheckInData{}, fmt.Errorf("unexpected checkin values: %d", len(values))
	}

	streak, err := asBigInt(values[0])
	if err != nil {
		return CheckInData{}, err
	}
	timestamp, err := asBigInt(values[1])
	if err != nil {
		return CheckInData{}, err
	}

	return CheckInData{
		User:      indexed.User.Hex(),
		Streak:    streak,
		Timestamp: timestamp,
	}, nil
}

func (d *Decoder) decodeStreakReset(log RawLog) (StreakResetData, error) {
	event := d.contractABI.Events["StreakReset"]

	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return StreakResetData{}, err
	}

	var indexed struct {
		User common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return StreakResetData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return StreakResetData{}, err
	}
	if len(values) != 1 {
		return StreakResetData{}, fmt.Errorf("unexpected reset values: %d", len(values))
	}

	timestamp, err := asBigInt(values[0])
	if err != nil {
		return StreakResetData{}, err
	}

	return StreakResetData{
		User:      indexed.User.Hex(),
		Timestamp: timestamp,
	}, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asBigInt(v interface{}) (*big.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", v)
	}
	return b, nil
}
