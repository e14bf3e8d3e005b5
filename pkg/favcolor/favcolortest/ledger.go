// Package favcolortest provides an in-memory Solana ledger that runs the
// favorite color program's rules, for tests of code built on package favcolor.
package favcolortest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/hashgraph-online/favorite-color-sdk-go/pkg/ledger"
)

const (
	DefaultValidityWindow uint64 = 150
	StartHeight           uint64 = 1_000

	// Program error codes surfaced as {"Custom": code}.
	CodeAccountAlreadyInUse     = 0
	CodeConstraintSeeds         = 2006
	CodeAccountNotSigner        = 3010
	CodeAccountNotInitialized   = 3012
	CodeInstructionUnrecognized = 101
	CodeInstructionMalformed    = 102
	CodeColorTooLong            = 6000

	accountSpace   = 8 + 32 + 4 + 50
	createUnits    = 11_204
	updateUnits    = 4_512
	budgetUnits    = 150
	maxColorLength = 50
)

var (
	computeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

	accountDiscriminator    = anchorDiscriminator("account:UserColor")
	initializeDiscriminator = anchorDiscriminator("global:initialize")
	updateDiscriminator     = anchorDiscriminator("global:update_color")
)

// ErrUnknownBlockhash is returned by Simulate for envelopes citing a
// blockhash the ledger never issued.
var ErrUnknownBlockhash = errors.New("blockhash not found")

type storedAccount struct {
	owner    solana.PublicKey
	lamports uint64
	data     []byte
}

// Ledger is safe for concurrent use. SendHook runs without the ledger lock
// held and may call back into the Ledger.
type Ledger struct {
	programID solana.PublicKey

	// ValidityWindow is the number of blocks an issued blockhash stays valid.
	ValidityWindow uint64
	// HeightStep is added to the block height after every GetBlockHeight.
	HeightStep uint64
	// DropSubmissions accepts envelopes without ever executing them.
	DropSubmissions bool
	// SendHook runs before each send. A non-nil error fails the send.
	SendHook func(tx *solana.Transaction) error

	mutex       sync.Mutex
	height      uint64
	sequence    uint64
	accounts    map[solana.PublicKey]storedAccount
	blockhashes map[solana.Hash]uint64
	statuses    map[solana.Signature]*ledger.SignatureStatus
	sent        [][]byte
	calls       map[string]int
}

// NewLedger creates an empty ledger hosting programID.
func NewLedger(programID solana.PublicKey) *Ledger {
	return &Ledger{
		programID:      programID,
		ValidityWindow: DefaultValidityWindow,
		height:         StartHeight,
		accounts:       map[solana.PublicKey]storedAccount{},
		blockhashes:    map[solana.Hash]uint64{},
		statuses:       map[solana.Signature]*ledger.SignatureStatus{},
		calls:          map[string]int{},
	}
}

// ProgramID returns the hosted program.
func (l *Ledger) ProgramID() solana.PublicKey {
	return l.programID
}

// RecordAddress derives owner's record address the way the program does.
func (l *Ledger) RecordAddress(owner solana.PublicKey) solana.PublicKey {
	address, _, err := solana.FindProgramAddress([][]byte{[]byte("user-color"), owner.Bytes()}, l.programID)
	if err != nil {
		panic(fmt.Sprintf("derive record address: %v", err))
	}
	return address
}

// SeedColor stores a record for owner as a confirmed initialize would.
func (l *Ledger) SeedColor(owner solana.PublicKey, color string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.accounts[l.RecordAddress(owner)] = storedAccount{
		owner:    l.programID,
		lamports: rentExempt(accountSpace),
		data:     encodeRecord(owner, color),
	}
}

// PutAccount stores arbitrary data at address under accountOwner.
func (l *Ledger) PutAccount(address solana.PublicKey, accountOwner solana.PublicKey, data []byte) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.accounts[address] = storedAccount{
		owner:    accountOwner,
		lamports: rentExempt(len(data)),
		data:     append([]byte(nil), data...),
	}
}

// AccountData returns a copy of the data stored at address.
func (l *Ledger) AccountData(address solana.PublicKey) ([]byte, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	account, ok := l.accounts[address]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), account.data...), true
}

// AdvanceHeight moves the block height forward by blocks.
func (l *Ledger) AdvanceHeight(blocks uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.height += blocks
}

func (l *Ledger) Height() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.height
}

// Sent returns the wire bytes of every envelope handed to SendTransaction,
// including failed sends.
func (l *Ledger) Sent() [][]byte {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	out := make([][]byte, len(l.sent))
	for index, envelope := range l.sent {
		out[index] = append([]byte(nil), envelope...)
	}
	return out
}

// Calls returns how many times method was invoked.
func (l *Ledger) Calls(method string) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.calls[method]
}

// Land executes tx immediately as if a send had reached the leader.
func (l *Ledger) Land(tx *solana.Transaction) solana.Signature {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.land(tx)
}

func (l *Ledger) GetAccountInfo(_ context.Context, address solana.PublicKey) (*ledger.RawAccount, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls["getAccountInfo"]++

	account, ok := l.accounts[address]
	if !ok {
		return nil, nil
	}
	return &ledger.RawAccount{
		Address:  address,
		Owner:    account.owner,
		Lamports: account.lamports,
		Data:     append([]byte(nil), account.data...),
		Slot:     l.height,
	}, nil
}

func (l *Ledger) GetLatestAnchor(_ context.Context) (ledger.Anchor, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls["getLatestBlockhash"]++

	l.sequence++
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], l.sequence)
	blockhash := solana.Hash(sha256.Sum256(append([]byte("favcolortest-blockhash"), seed[:]...)))

	anchor := ledger.Anchor{
		Blockhash:            blockhash,
		LastValidBlockHeight: l.height + l.ValidityWindow,
	}
	l.blockhashes[blockhash] = anchor.LastValidBlockHeight
	return anchor, nil
}

func (l *Ledger) GetBlockHeight(_ context.Context) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls["getBlockHeight"]++

	height := l.height
	l.height += l.HeightStep
	return height, nil
}

func (l *Ledger) Simulate(_ context.Context, tx *solana.Transaction) (*ledger.SimulationResult, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls["simulateTransaction"]++

	lastValid, ok := l.blockhashes[tx.Message.RecentBlockhash]
	if !ok {
		return nil, ErrUnknownBlockhash
	}
	if l.height > lastValid {
		return &ledger.SimulationResult{Err: "BlockhashNotFound"}, nil
	}

	execution := l.execute(tx)
	return &ledger.SimulationResult{
		Err:           execution.err,
		Logs:          execution.logs,
		UnitsConsumed: execution.units,
	}, nil
}

func (l *Ledger) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if hook := l.SendHook; hook != nil {
		if err := hook(tx); err != nil {
			l.recordSend(tx)
			return solana.Signature{}, err
		}
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls["sendTransaction"]++
	l.sent = append(l.sent, mustMarshal(tx))

	if len(tx.Signatures) == 0 {
		return solana.Signature{}, fmt.Errorf("transaction has no signatures")
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("transaction signature verification failure: %w", err)
	}
	signature := tx.Signatures[0]
	if _, seen := l.statuses[signature]; seen {
		return signature, nil
	}
	if l.DropSubmissions {
		return signature, nil
	}
	lastValid, ok := l.blockhashes[tx.Message.RecentBlockhash]
	if !ok || l.height > lastValid {
		return signature, nil
	}
	return l.land(tx), nil
}

func (l *Ledger) GetSignatureStatus(_ context.Context, signature solana.Signature) (*ledger.SignatureStatus, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls["getSignatureStatuses"]++

	status, ok := l.statuses[signature]
	if !ok {
		return nil, nil
	}
	copied := *status
	return &copied, nil
}

func (l *Ledger) recordSend(tx *solana.Transaction) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls["sendTransaction"]++
	l.sent = append(l.sent, mustMarshal(tx))
}

// land executes tx and commits its effects. Callers hold the lock.
func (l *Ledger) land(tx *solana.Transaction) solana.Signature {
	signature := tx.Signatures[0]
	if _, seen := l.statuses[signature]; seen {
		return signature
	}

	execution := l.execute(tx)
	status := &ledger.SignatureStatus{
		Slot:               l.height,
		ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		Err:                execution.err,
	}
	if execution.err == nil {
		for address, account := range execution.writes {
			l.accounts[address] = account
		}
	}
	l.statuses[signature] = status
	return signature
}

type execution struct {
	err    any
	logs   []string
	units  uint64
	writes map[solana.PublicKey]storedAccount
}

func (l *Ledger) execute(tx *solana.Transaction) execution {
	result := execution{writes: map[solana.PublicKey]storedAccount{}}
	message := tx.Message
	keys := message.AccountKeys

	for index, instruction := range message.Instructions {
		if int(instruction.ProgramIDIndex) >= len(keys) {
			result.err = instructionError(index, "InvalidAccountIndex")
			return result
		}
		program := keys[instruction.ProgramIDIndex]
		accounts := make([]solana.PublicKey, 0, len(instruction.Accounts))
		signers := make([]bool, 0, len(instruction.Accounts))
		for _, accountIndex := range instruction.Accounts {
			if int(accountIndex) >= len(keys) {
				result.err = instructionError(index, "InvalidAccountIndex")
				return result
			}
			accounts = append(accounts, keys[accountIndex])
			signers = append(signers, int(accountIndex) < int(message.Header.NumRequiredSignatures))
		}

		switch {
		case program.Equals(computeBudgetProgramID):
			result.units += budgetUnits
			result.logs = append(result.logs,
				fmt.Sprintf("Program %s invoke [1]", program),
				fmt.Sprintf("Program %s success", program),
			)
		case program.Equals(l.programID):
			if failure := l.runProgram(index, accounts, signers, instruction.Data, &result); failure != nil {
				result.err = failure
				result.logs = append(result.logs, fmt.Sprintf("Program %s failed: custom program error", program))
				return result
			}
			result.logs = append(result.logs, fmt.Sprintf("Program %s success", program))
		default:
			result.err = instructionError(index, "UnsupportedProgramId")
			return result
		}
	}
	return result
}

func (l *Ledger) runProgram(index int, accounts []solana.PublicKey, signers []bool, data []byte, result *execution) any {
	result.logs = append(result.logs, fmt.Sprintf("Program %s invoke [1]", l.programID))
	if len(data) < 8 {
		return customError(index, CodeInstructionUnrecognized)
	}
	color, ok := decodeColorArgument(data[8:])
	if !ok {
		return customError(index, CodeInstructionMalformed)
	}

	switch {
	case bytes.Equal(data[:8], initializeDiscriminator[:]):
		result.logs = append(result.logs, "Program log: Instruction: Initialize")
		if len(accounts) < 3 {
			return instructionError(index, "NotEnoughAccountKeys")
		}
		record, user := accounts[0], accounts[1]
		if !signers[1] {
			return customError(index, CodeAccountNotSigner)
		}
		if !record.Equals(l.RecordAddress(user)) {
			return customError(index, CodeConstraintSeeds)
		}
		if !accounts[2].Equals(solana.SystemProgramID) {
			return instructionError(index, "IncorrectProgramId")
		}
		if _, exists := l.accounts[record]; exists {
			result.logs = append(result.logs, fmt.Sprintf("Allocate: account Address { address: %s, base: None } already in use", record))
			return customError(index, CodeAccountAlreadyInUse)
		}
		if len(color) > maxColorLength {
			result.logs = append(result.logs, "Program log: AnchorError occurred. Error Code: ColorTooLong. Error Number: 6000. Error Message: Color is too long.")
			return customError(index, CodeColorTooLong)
		}
		result.units += createUnits
		result.writes[record] = storedAccount{
			owner:    l.programID,
			lamports: rentExempt(accountSpace),
			data:     encodeRecord(user, color),
		}
		result.logs = append(result.logs, "Program log: User's favorite color set to: "+color)
		return nil

	case bytes.Equal(data[:8], updateDiscriminator[:]):
		result.logs = append(result.logs, "Program log: Instruction: UpdateColor")
		if len(accounts) < 2 {
			return instructionError(index, "NotEnoughAccountKeys")
		}
		record, user := accounts[0], accounts[1]
		if !signers[1] {
			return customError(index, CodeAccountNotSigner)
		}
		stored, exists := result.writes[record]
		if !exists {
			stored, exists = l.accounts[record]
		}
		if !exists || !stored.owner.Equals(l.programID) || !bytes.HasPrefix(stored.data, accountDiscriminator[:]) {
			return customError(index, CodeAccountNotInitialized)
		}
		if !record.Equals(l.RecordAddress(user)) {
			return customError(index, CodeConstraintSeeds)
		}
		if len(color) > maxColorLength {
			result.logs = append(result.logs, "Program log: AnchorError occurred. Error Code: ColorTooLong. Error Number: 6000. Error Message: Color is too long.")
			return customError(index, CodeColorTooLong)
		}
		result.units += updateUnits
		updated := stored
		updated.data = encodeRecord(user, color)
		result.writes[record] = updated
		result.logs = append(result.logs, "Program log: User's favorite color updated to: "+color)
		return nil
	}
	return customError(index, CodeInstructionUnrecognized)
}

func decodeColorArgument(raw []byte) (string, bool) {
	decoder := bin.NewBorshDecoder(raw)
	length, err := decoder.ReadUint32(binary.LittleEndian)
	if err != nil || int(length) != decoder.Remaining() {
		return "", false
	}
	color, err := decoder.ReadNBytes(int(length))
	if err != nil || !utf8.Valid(color) {
		return "", false
	}
	return string(color), true
}

// encodeRecord lays out a record inside the program's fixed allocation, so
// short colors leave zeroed slack at the end.
func encodeRecord(owner solana.PublicKey, color string) []byte {
	size := accountSpace
	if needed := 8 + 32 + 4 + len(color); needed > size {
		size = needed
	}
	data := make([]byte, size)
	copy(data[0:8], accountDiscriminator[:])
	copy(data[8:40], owner.Bytes())
	binary.LittleEndian.PutUint32(data[40:44], uint32(len(color)))
	copy(data[44:], color)
	return data
}

func anchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte(name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func instructionError(index int, kind string) map[string]any {
	return map[string]any{"InstructionError": []any{index, kind}}
}

func customError(index int, code int) map[string]any {
	return map[string]any{"InstructionError": []any{index, map[string]any{"Custom": code}}}
}

func rentExempt(size int) uint64 {
	return uint64(128+size) * 6_960
}

func mustMarshal(tx *solana.Transaction) []byte {
	encoded, err := tx.MarshalBinary()
	if err != nil {
		return nil
	}
	return encoded
}
