// Package ledger provides the Solana JSON-RPC client used by the favorite
// color packages. It fetches account data, recent blockhashes ("anchors"),
// block heights and signature statuses, simulates transactions, and
// broadcasts signed transactions, all at a single commitment level.
//
// The package translates solana-go RPC responses into small value types
// (RawAccount, Anchor, SimulationResult, SignatureStatus) so that callers can
// substitute an in-memory ledger in tests.
package ledger
