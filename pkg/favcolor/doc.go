// Package favcolor reads and writes a user's favorite color stored in a
// Solana program account.
//
// Each owner has one record at the program-derived address with seeds
// ["user-color", owner]. The record layout is
//
//	[8 discriminator][32 owner][4 little-endian length][length bytes color]
//
// and colors are limited to 50 UTF-8 bytes.
//
// Client.Write probes the address, picks the initialize or update_color
// instruction, and runs it through a Pipeline:
//
//	Built -> Simulated -> Accepted|Rejected -> Submitted -> Confirmed|Expired|Failed
//
// The probe is not atomic with the write. Two concurrent first writes for the
// same owner both choose initialize and the second fails on-ledger; callers
// re-probe and retry. An Expired or cancelled-after-submit outcome may still
// have landed, see IsAmbiguous.
package favcolor
