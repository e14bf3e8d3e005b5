package ledger

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RawAccount is a read-only snapshot of an on-chain account.
type RawAccount struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
	Slot     uint64
}

// Anchor is the recent blockhash a transaction cites, together with the last
// block height at which the ledger still accepts it.
type Anchor struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Expired reports whether height is past the anchor's validity window.
func (a Anchor) Expired(height uint64) bool {
	return height > a.LastValidBlockHeight
}

type SimulationResult struct {
	Err           any
	Logs          []string
	UnitsConsumed uint64
}

type SignatureStatus struct {
	Slot               uint64
	ConfirmationStatus rpc.ConfirmationStatusType
	Err                any
}

// Reached reports whether the status is at least as durable as level.
func (s *SignatureStatus) Reached(level rpc.ConfirmationStatusType) bool {
	if s == nil {
		return false
	}
	return confirmationRank(s.ConfirmationStatus) >= confirmationRank(level)
}

func confirmationRank(level rpc.ConfirmationStatusType) int {
	switch level {
	case rpc.ConfirmationStatusProcessed:
		return 1
	case rpc.ConfirmationStatusConfirmed:
		return 2
	case rpc.ConfirmationStatusFinalized:
		return 3
	default:
		return 0
	}
}
