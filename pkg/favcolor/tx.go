package favcolor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/hashgraph-online/favorite-color-sdk-go/pkg/ledger"
)

var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

// BuildInstructions returns the unit-limit hint, the unit-price hint and the
// domain instruction for params.Mode, in that order.
func BuildInstructions(params InstructionParams) ([]solana.Instruction, error) {
	budget := params.Budget.withDefaults()

	var (
		unitLimit uint32
		domain    solana.Instruction
		err       error
	)
	switch params.Mode {
	case ModeCreate:
		unitLimit = budget.CreateUnitLimit
		domain, err = BuildInitializeInstruction(params.ProgramID, params.Owner, params.Color)
	case ModeUpdate:
		unitLimit = budget.UpdateUnitLimit
		domain, err = BuildUpdateInstruction(params.ProgramID, params.Owner, params.Color)
	default:
		return nil, fmt.Errorf("unsupported write mode %q", params.Mode)
	}
	if err != nil {
		return nil, err
	}

	limitInstruction, err := computebudget.NewSetComputeUnitLimitInstruction(unitLimit).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build compute unit limit instruction: %w", err)
	}
	priceInstruction, err := computebudget.NewSetComputeUnitPriceInstruction(budget.UnitPriceMicroLamports).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build compute unit price instruction: %w", err)
	}

	return []solana.Instruction{limitInstruction, priceInstruction, domain}, nil
}

// BuildInitializeInstruction builds the create-path instruction.
func BuildInitializeInstruction(program solana.PublicKey, owner solana.PublicKey, color string) (solana.Instruction, error) {
	address, _, err := DeriveAddress(owner, program)
	if err != nil {
		return nil, err
	}
	data, err := EncodeInitializePayload(color)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(program, solana.AccountMetaSlice{
		solana.NewAccountMeta(address, true, false),
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, data), nil
}

// BuildUpdateInstruction builds the update-path instruction. It carries no
// system program reference.
func BuildUpdateInstruction(program solana.PublicKey, owner solana.PublicKey, color string) (solana.Instruction, error) {
	address, _, err := DeriveAddress(owner, program)
	if err != nil {
		return nil, err
	}
	data, err := EncodeUpdatePayload(color)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(program, solana.AccountMetaSlice{
		solana.NewAccountMeta(address, true, false),
		solana.NewAccountMeta(owner, true, true),
	}, data), nil
}

// BuildTransaction binds instructions to anchor with payer as fee payer. The
// result is unsigned.
func BuildTransaction(instructions []solana.Instruction, payer solana.PublicKey, anchor ledger.Anchor) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("at least one instruction is required")
	}
	if payer.IsZero() {
		return nil, newError(ErrorCodeInvalidIdentity, "fee payer is required")
	}
	tx, err := solana.NewTransaction(instructions, anchor.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return tx, nil
}
