package favcolor

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/hashgraph-online/favorite-color-sdk-go/pkg/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	SeedTag                              = "user-color"
	MaxColorBytes                        = 50
	DiscriminatorSize                    = 8
	AccountHeaderSize                    = DiscriminatorSize + solana.PublicKeyLength + 4
	AccountSpace                         = AccountHeaderSize + MaxColorBytes
	DefaultCreateUnitLimit        uint32 = 400_000
	DefaultUpdateUnitLimit        uint32 = 200_000
	DefaultUnitPriceMicroLamports uint64 = 1_000
	DefaultMaxSubmitAttempts             = 3
	DefaultMaxRebuilds                   = 2
	DefaultPollInterval                  = 500 * time.Millisecond
	DefaultMaxPollErrors                 = 10
	DefaultReadConcurrency               = 8
)

// Mode selects the domain instruction for a write.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

type PipelineState string

const (
	StateBuilt     PipelineState = "built"
	StateSimulated PipelineState = "simulated"
	StateAccepted  PipelineState = "accepted"
	StateRejected  PipelineState = "rejected"
	StateSubmitted PipelineState = "submitted"
	StateConfirmed PipelineState = "confirmed"
	StateExpired   PipelineState = "expired"
	StateFailed    PipelineState = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s PipelineState) Terminal() bool {
	switch s {
	case StateRejected, StateConfirmed, StateExpired, StateFailed:
		return true
	default:
		return false
	}
}

// ColorAccount is a decoded snapshot of a stored favorite color record.
type ColorAccount struct {
	Discriminator [DiscriminatorSize]byte
	Owner         solana.PublicKey
	Color         string
}

type BudgetConfig struct {
	CreateUnitLimit        uint32
	UpdateUnitLimit        uint32
	UnitPriceMicroLamports uint64
}

type PipelineConfig struct {
	MaxSubmitAttempts int
	// MaxRebuilds bounds fresh-anchor restarts. A negative value disables them.
	MaxRebuilds   int
	PollInterval  time.Duration
	MaxPollErrors int
	// InitialBackoff overrides the first retry delay between submit attempts.
	InitialBackoff time.Duration
}

// ClientConfig configures NewClient. Network and RPCEndpoint are resolved
// through shared.ResolveRPCEndpoint.
type ClientConfig struct {
	Network           string
	RPCEndpoint       string
	ProgramID         string
	Signer            Signer
	Keypair           solana.PrivateKey
	Logger            *zap.Logger
	MetricsRegisterer prometheus.Registerer
	Budget            BudgetConfig
	Pipeline          PipelineConfig
	ReadConcurrency   int
}

type InstructionParams struct {
	Mode      Mode
	ProgramID solana.PublicKey
	Owner     solana.PublicKey
	Color     string
	Budget    BudgetConfig
}

// Transition is one step recorded by the pipeline.
type Transition struct {
	State PipelineState
	At    time.Time
}

type Outcome struct {
	State         PipelineState
	Signature     solana.Signature
	Anchor        ledger.Anchor
	UnitsConsumed uint64
	Logs          []string
	Attempts      int
	Rebuilds      int
	Transitions   []Transition
}

type WriteResult struct {
	Mode     Mode
	Address  solana.PublicKey
	Previous *ColorAccount
	Outcome  Outcome
}

// ReadResult pairs an owner with the outcome of reading its record.
type ReadResult struct {
	Owner   solana.PublicKey
	Address solana.PublicKey
	Account *ColorAccount
	Err     error
}

func (b BudgetConfig) withDefaults() BudgetConfig {
	if b.CreateUnitLimit == 0 {
		b.CreateUnitLimit = DefaultCreateUnitLimit
	}
	if b.UpdateUnitLimit == 0 {
		b.UpdateUnitLimit = DefaultUpdateUnitLimit
	}
	if b.UnitPriceMicroLamports == 0 {
		b.UnitPriceMicroLamports = DefaultUnitPriceMicroLamports
	}
	return b
}

func (p PipelineConfig) withDefaults() PipelineConfig {
	if p.MaxSubmitAttempts <= 0 {
		p.MaxSubmitAttempts = DefaultMaxSubmitAttempts
	}
	if p.MaxRebuilds < 0 {
		p.MaxRebuilds = 0
	} else if p.MaxRebuilds == 0 {
		p.MaxRebuilds = DefaultMaxRebuilds
	}
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.MaxPollErrors <= 0 {
		p.MaxPollErrors = DefaultMaxPollErrors
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 250 * time.Millisecond
	}
	return p
}
