// The Favorite Color SDK for Go stores a user's favorite color in a Solana
// program account and reads it back. It provides packages for deriving the
// per-user storage address, encoding the Anchor account and instruction
// layouts, and submitting writes through a simulate, submit and confirm
// pipeline with bounded retries.
//
// # Packages
//
//   - pkg/favcolor: address derivation, codec, instruction builder, pipeline and client
//   - pkg/favcolor/favcolortest: in-memory ledger running the program's rules
//   - pkg/ledger: Solana JSON-RPC adapter
//   - pkg/shared: network, environment and keypair configuration, logging
//
// # Example
//
//	go run ./examples/favorite-color set "ocean blue"
//	go run ./examples/favorite-color get
//
// # Installation
//
//	go get github.com/hashgraph-online/favorite-color-sdk-go@latest
package favorite_color_sdk_go
