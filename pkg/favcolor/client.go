package favcolor

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/hashgraph-online/favorite-color-sdk-go/pkg/ledger"
	"github.com/hashgraph-online/favorite-color-sdk-go/pkg/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Client struct {
	ledger          Ledger
	signer          Signer
	pipeline        *Pipeline
	programID       solana.PublicKey
	budget          BudgetConfig
	logger          *zap.Logger
	readConcurrency int
}

// NewClient creates a new Client backed by a JSON-RPC ledger client. When
// config.Signer is nil and config.Keypair is set, writes are signed locally
// with that key.
func NewClient(config ClientConfig) (*Client, error) {
	ledgerClient, err := ledger.NewClient(ledger.Config{
		Network:  config.Network,
		Endpoint: config.RPCEndpoint,
	})
	if err != nil {
		return nil, err
	}

	signer := config.Signer
	if signer == nil && len(config.Keypair) > 0 {
		keypairSigner, err := NewKeypairSigner(config.Keypair, ledgerClient)
		if err != nil {
			return nil, err
		}
		signer = keypairSigner
	}
	return NewClientWithLedger(ledgerClient, signer, config)
}

// NewClientWithLedger composes a Client from an existing ledger. signer may be
// nil for read-only use.
func NewClientWithLedger(ledger Ledger, signer Signer, config ClientConfig) (*Client, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	rawProgramID := strings.TrimSpace(config.ProgramID)
	if rawProgramID == "" {
		rawProgramID = shared.DefaultProgramID
	}
	programID, err := ParseIdentity(rawProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics, err := NewMetrics(config.MetricsRegisterer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	readConcurrency := config.ReadConcurrency
	if readConcurrency <= 0 {
		readConcurrency = DefaultReadConcurrency
	}

	client := &Client{
		ledger:          ledger,
		signer:          signer,
		programID:       programID,
		budget:          config.Budget.withDefaults(),
		logger:          logger,
		readConcurrency: readConcurrency,
	}
	if signer != nil {
		client.pipeline, err = NewPipeline(ledger, signer, config.Pipeline, logger, metrics)
		if err != nil {
			return nil, err
		}
	}
	return client, nil
}

// ProgramID returns the program that owns color records.
func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

// StorageAddress returns the derived record address for owner.
func (c *Client) StorageAddress(owner solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := DeriveAddress(owner, c.programID)
	return address, err
}

// Read fetches owner's record. It returns nil and no error when the record
// has never been written.
func (c *Client) Read(ctx context.Context, owner solana.PublicKey) (*ColorAccount, error) {
	address, err := c.StorageAddress(owner)
	if err != nil {
		return nil, err
	}
	return c.readAt(ctx, owner, address)
}

func (c *Client) readAt(ctx context.Context, owner solana.PublicKey, address solana.PublicKey) (*ColorAccount, error) {
	raw, err := c.ledger.GetAccountInfo(ctx, address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, canceled(ctx.Err(), false)
		}
		return nil, &Error{
			Code:    ErrorCodeLedgerUnavailable,
			Message: fmt.Sprintf("fetch account %s failed", address),
			Cause:   err,
		}
	}
	if raw == nil {
		return nil, nil
	}
	if !raw.Owner.Equals(c.programID) {
		return nil, newError(
			ErrorCodeCorruptAccount,
			"account %s is owned by %s, not program %s",
			address,
			raw.Owner,
			c.programID,
		)
	}
	return DecodeAccountFor(raw.Data, owner)
}

// Probe decides the write mode for owner from current ledger state. The
// answer can be stale by the time a write lands.
func (c *Client) Probe(ctx context.Context, owner solana.PublicKey) (Mode, *ColorAccount, error) {
	account, err := c.Read(ctx, owner)
	if err != nil {
		return "", nil, err
	}
	if account == nil {
		return ModeCreate, nil, nil
	}
	return ModeUpdate, account, nil
}

// Write stores color as owner's favorite color. The Outcome in the result
// is populated even on failure.
func (c *Client) Write(ctx context.Context, owner solana.PublicKey, color string) (WriteResult, error) {
	if err := ValidateColor(color); err != nil {
		return WriteResult{}, err
	}
	if c.pipeline == nil {
		return WriteResult{}, fmt.Errorf("a signer is required to write")
	}
	address, err := c.StorageAddress(owner)
	if err != nil {
		return WriteResult{}, err
	}
	result := WriteResult{Address: address}

	mode, previous, err := c.Probe(ctx, owner)
	if err != nil {
		return result, err
	}
	result.Mode = mode
	result.Previous = previous

	instructions, err := BuildInstructions(InstructionParams{
		Mode:      mode,
		ProgramID: c.programID,
		Owner:     owner,
		Color:     color,
		Budget:    c.budget,
	})
	if err != nil {
		return result, err
	}

	logger := c.logger.With(
		zap.String("owner", owner.String()),
		zap.String("address", address.String()),
		zap.String("mode", string(mode)),
	)
	logger.Debug("writing favorite color", zap.Int("color_bytes", len(color)))

	outcome, err := c.pipeline.Execute(ctx, owner, instructions)
	result.Outcome = outcome
	if err != nil {
		logger.Info("favorite color write did not confirm",
			zap.String("state", string(outcome.State)),
			zap.Bool("ambiguous", IsAmbiguous(err)),
			zap.Error(err),
		)
		return result, err
	}
	logger.Debug("favorite color confirmed", zap.String("signature", outcome.Signature.String()))
	return result, nil
}

// ReadMany reads the records of several owners concurrently. Per-owner
// failures land in ReadResult.Err; the returned error is reserved for
// cancellation.
func (c *Client) ReadMany(ctx context.Context, owners []solana.PublicKey) ([]ReadResult, error) {
	results := make([]ReadResult, len(owners))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.readConcurrency)

	for index, owner := range owners {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			result := ReadResult{Owner: owner}
			result.Address, result.Err = c.StorageAddress(owner)
			if result.Err == nil {
				result.Account, result.Err = c.readAt(groupCtx, owner, result.Address)
			}
			results[index] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return results, canceled(err, false)
	}
	if err := ctx.Err(); err != nil {
		return results, canceled(err, false)
	}
	return results, nil
}
