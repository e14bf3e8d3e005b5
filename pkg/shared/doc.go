// Package shared provides common utilities used across the Favorite Color SDK
// for Go. It includes cluster normalization and RPC endpoint resolution,
// environment and .env configuration loading, operator key parsing, Solana
// Explorer links, and logger construction.
//
// This package is typically used by the example commands and by callers that
// want configuration resolved from the environment before constructing a
// favcolor.Client. The library packages themselves never read the
// environment.
//
// # Environment Variables
//
//   - SOLANA_NETWORK: devnet (default), testnet, mainnet-beta, localnet
//   - SOLANA_RPC_ENDPOINT / SOLANA_RPC_URL: explicit JSON-RPC endpoint
//   - FAVORITE_COLOR_PROGRAM_ID: program address override
//   - SOLANA_KEYPAIR_PATH: solana-keygen keypair file
//   - SOLANA_PRIVATE_KEY: inline base58 or JSON byte array key
//   - FAVORITE_COLOR_LOG_LEVEL: debug, info, warn, error
package shared
