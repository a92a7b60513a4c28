package onchain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const streakABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "streak", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
    ],
    "name": "CheckIn",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
    ],
    "name": "StreakReset",
    "type": "event"
  }
]`

// Canonical event signatures of the streak contract. Route configuration and
// queue payload tags use these values.
const (
	SigCheckIn     = "CheckIn(address,uint256,uint256)"
	SigStreakReset = "StreakReset(address,uint256)"
)

var (
	streakABI     abi.ABI
	streakABIOnce sync.Once
	streakABIErr  error
)

// StreakABI returns the parsed streak contract ABI.
func StreakABI() (abi.ABI, error) {
	streakABIOnce.Do(func() {
		streakABI, streakABIErr = abi.JSON(strings.NewReader(streakABIJSON))
	})
	return streakABI, streakABIErr
}
