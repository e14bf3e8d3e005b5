package favcolor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/hashgraph-online/favorite-color-sdk-go/pkg/ledger"
	"go.uber.org/zap"
)

// Ledger is the read, simulate and confirm surface the client needs from a
// Solana node. *ledger.Client satisfies it.
type Ledger interface {
	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*ledger.RawAccount, error)
	GetLatestAnchor(ctx context.Context) (ledger.Anchor, error)
	Simulate(ctx context.Context, tx *solana.Transaction) (*ledger.SimulationResult, error)
	GetSignatureStatus(ctx context.Context, signature solana.Signature) (*ledger.SignatureStatus, error)
	GetBlockHeight(ctx context.Context) (uint64, error)
}

var errAnchorExpired = errors.New("anchor expired before submission succeeded")

// Pipeline drives one write through build, simulate, submit and confirm.
// It holds no per-call state and may be shared by concurrent callers.
type Pipeline struct {
	ledger  Ledger
	signer  Signer
	config  PipelineConfig
	logger  *zap.Logger
	metrics *Metrics
}

// NewPipeline creates a new Pipeline.
func NewPipeline(ledger Ledger, signer Signer, config PipelineConfig, logger *zap.Logger, metrics *Metrics) (*Pipeline, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		ledger:  ledger,
		signer:  signer,
		config:  config.withDefaults(),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Execute runs instructions to a terminal state with payer as fee payer.
// The returned Outcome is populated even when err is non-nil.
func (p *Pipeline) Execute(ctx context.Context, payer solana.PublicKey, instructions []solana.Instruction) (Outcome, error) {
	outcome := Outcome{}

	for {
		if err := ctx.Err(); err != nil {
			return outcome, canceled(err, false)
		}

		anchor, err := p.ledger.GetLatestAnchor(ctx)
		if err != nil {
			return outcome, p.unavailable(ctx, "fetch anchor", err)
		}
		tx, err := BuildTransaction(instructions, payer, anchor)
		if err != nil {
			return outcome, err
		}
		outcome.Anchor = anchor
		p.transition(&outcome, StateBuilt,
			zap.String("blockhash", anchor.Blockhash.String()),
			zap.Uint64("last_valid_block_height", anchor.LastValidBlockHeight),
		)

		simulation, err := p.ledger.Simulate(ctx, simulationEnvelope(tx))
		if err != nil {
			return outcome, p.unavailable(ctx, "simulate", err)
		}
		outcome.UnitsConsumed = simulation.UnitsConsumed
		outcome.Logs = simulation.Logs
		p.transition(&outcome, StateSimulated, zap.Uint64("units_consumed", simulation.UnitsConsumed))

		if simulation.Err != nil {
			p.transition(&outcome, StateRejected)
			p.logger.Info("simulation rejected transaction", zap.Any("error", simulation.Err))
			return outcome, &Error{
				Code:    ErrorCodeRejected,
				Message: "simulation reported an error",
				Detail:  simulation.Err,
				Logs:    simulation.Logs,
			}
		}
		p.transition(&outcome, StateAccepted)

		signature, err := p.submit(ctx, tx, anchor, &outcome)
		if errors.Is(err, errAnchorExpired) {
			landed, landedErr := p.landed(ctx, tx)
			if landedErr != nil {
				return p.unknownFate(ctx, &outcome, tx, "anchor expired and the previous envelope could not be looked up", landedErr)
			}
			if landed {
				signature = tx.Signatures[0]
				err = nil
			} else if outcome.Rebuilds >= p.config.MaxRebuilds {
				p.logger.Info("anchor expired with no rebuilds left", zap.Int("rebuilds", outcome.Rebuilds))
				return outcome, &Error{
					Code:    ErrorCodeSubmissionError,
					Message: fmt.Sprintf("anchor expired after %d submit attempts and %d rebuilds", outcome.Attempts, outcome.Rebuilds),
					Cause:   err,
				}
			} else {
				outcome.Rebuilds++
				p.metrics.observeRebuild()
				p.logger.Warn("anchor expired before submission, rebuilding",
					zap.Int("rebuild", outcome.Rebuilds),
					zap.Uint64("last_valid_block_height", anchor.LastValidBlockHeight),
				)
				continue
			}
		}
		var typed *Error
		if errors.As(err, &typed) && typed.Submitted {
			outcome.Signature = typed.Signature
			p.transition(&outcome, StateSubmitted, zap.String("signature", typed.Signature.String()))
			return outcome, err
		}
		if err != nil {
			return outcome, err
		}

		outcome.Signature = signature
		p.transition(&outcome, StateSubmitted, zap.String("signature", signature.String()))
		return p.confirm(ctx, signature, anchor, outcome)
	}
}

func (p *Pipeline) submit(ctx context.Context, tx *solana.Transaction, anchor ledger.Anchor, outcome *Outcome) (solana.Signature, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.config.InitialBackoff
	policy.MaxElapsedTime = 0
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.config.MaxSubmitAttempts-1)), ctx)

	signature, err := backoff.RetryWithData(func() (solana.Signature, error) {
		if p.anchorExpired(ctx, anchor) {
			return solana.Signature{}, backoff.Permanent(errAnchorExpired)
		}

		outcome.Attempts++
		p.metrics.observeAttempt()
		signature, err := p.signer.SignAndSend(ctx, tx)
		if err == nil {
			return signature, nil
		}
		if errors.Is(err, ErrSignerMismatch) {
			return solana.Signature{}, backoff.Permanent(&Error{
				Code:    ErrorCodeInvalidIdentity,
				Message: "signer cannot sign for the owner",
				Cause:   err,
			})
		}
		if ctx.Err() != nil {
			return solana.Signature{}, backoff.Permanent(ctx.Err())
		}
		p.logger.Warn("submission attempt failed",
			zap.Int("attempt", outcome.Attempts),
			zap.Int("max_attempts", p.config.MaxSubmitAttempts),
			zap.Error(err),
		)
		return solana.Signature{}, err
	}, retry)
	if err == nil {
		return signature, nil
	}

	var typed *Error
	switch {
	case errors.Is(err, errAnchorExpired):
		return solana.Signature{}, err
	case errors.As(err, &typed):
		return solana.Signature{}, typed
	case ctx.Err() != nil:
		if signature, ok := envelopeSignature(tx); ok {
			return solana.Signature{}, canceledAfterSubmit(ctx.Err(), signature)
		}
		return solana.Signature{}, canceled(ctx.Err(), false)
	}
	// A failed send does not prove the ledger never saw the envelope.
	landed, landedErr := p.landed(ctx, tx)
	if landedErr == nil && landed {
		p.logger.Info("sends failed but the ledger has the transaction", zap.String("signature", tx.Signatures[0].String()))
		return tx.Signatures[0], nil
	}
	p.logger.Info("submission attempts exhausted", zap.Int("attempts", outcome.Attempts), zap.Error(err))
	failure := &Error{
		Code:    ErrorCodeSubmissionError,
		Message: fmt.Sprintf("submission failed after %d attempts", outcome.Attempts),
		Cause:   err,
	}
	if signature, ok := envelopeSignature(tx); ok {
		failure.Signature = signature
		failure.Submitted = true
	}
	return solana.Signature{}, failure
}

// unknownFate reports a sent envelope whose outcome cannot be determined.
func (p *Pipeline) unknownFate(ctx context.Context, outcome *Outcome, tx *solana.Transaction, message string, cause error) (Outcome, error) {
	signature, _ := envelopeSignature(tx)
	if ctx.Err() != nil {
		return *outcome, canceledAfterSubmit(ctx.Err(), signature)
	}
	outcome.Signature = signature
	p.transition(outcome, StateSubmitted, zap.String("signature", signature.String()))
	p.logger.Info(message, zap.String("signature", signature.String()), zap.Error(cause))
	return *outcome, &Error{
		Code:      ErrorCodeLedgerUnavailable,
		Message:   message,
		Signature: signature,
		Submitted: true,
		Cause:     cause,
	}
}

func envelopeSignature(tx *solana.Transaction) (solana.Signature, bool) {
	if tx == nil || len(tx.Signatures) == 0 || tx.Signatures[0].IsZero() {
		return solana.Signature{}, false
	}
	return tx.Signatures[0], true
}

// anchorExpired treats an unreadable block height as still valid; a stale
// envelope is refused by the ledger anyway.
func (p *Pipeline) anchorExpired(ctx context.Context, anchor ledger.Anchor) bool {
	height, err := p.ledger.GetBlockHeight(ctx)
	if err != nil {
		p.logger.Debug("block height unavailable before submit", zap.Error(err))
		return false
	}
	return anchor.Expired(height)
}

// landed reports whether an envelope whose sends all errored was seen by the
// ledger anyway.
func (p *Pipeline) landed(ctx context.Context, tx *solana.Transaction) (bool, error) {
	signature, ok := envelopeSignature(tx)
	if !ok {
		return false, nil
	}
	status, err := p.ledger.GetSignatureStatus(ctx, signature)
	if err != nil {
		return false, err
	}
	return status != nil, nil
}

func (p *Pipeline) confirm(ctx context.Context, signature solana.Signature, anchor ledger.Anchor, outcome Outcome) (Outcome, error) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	pollErrors := 0
	var lastErr error
	for {
		status, err := p.ledger.GetSignatureStatus(ctx, signature)
		if err == nil && status.Reached(rpc.ConfirmationStatusConfirmed) {
			return p.resolve(outcome, signature, status)
		}

		if err == nil {
			var height uint64
			height, err = p.ledger.GetBlockHeight(ctx)
			if err == nil && anchor.Expired(height) {
				status, err = p.ledger.GetSignatureStatus(ctx, signature)
				if err == nil && status.Reached(rpc.ConfirmationStatusConfirmed) {
					return p.resolve(outcome, signature, status)
				}
				p.transition(&outcome, StateExpired, zap.Uint64("block_height", height))
				p.logger.Info("transaction expired before confirmation", zap.String("signature", signature.String()))
				return outcome, &Error{
					Code:      ErrorCodeExpired,
					Message:   fmt.Sprintf("block height %d passed last valid height %d without confirmation", height, anchor.LastValidBlockHeight),
					Signature: signature,
					Submitted: true,
				}
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return outcome, canceledAfterSubmit(ctx.Err(), signature)
			}
			pollErrors++
			lastErr = err
			p.logger.Warn("confirmation poll failed", zap.Int("consecutive_errors", pollErrors), zap.Error(err))
			if pollErrors >= p.config.MaxPollErrors {
				return outcome, &Error{
					Code:      ErrorCodeLedgerUnavailable,
					Message:   fmt.Sprintf("confirmation polling failed %d times in a row", pollErrors),
					Signature: signature,
					Submitted: true,
					Cause:     lastErr,
				}
			}
		} else {
			pollErrors = 0
		}

		select {
		case <-ctx.Done():
			return outcome, canceledAfterSubmit(ctx.Err(), signature)
		case <-ticker.C:
		}
	}
}

func (p *Pipeline) resolve(outcome Outcome, signature solana.Signature, status *ledger.SignatureStatus) (Outcome, error) {
	if status.Err != nil {
		p.transition(&outcome, StateFailed, zap.Any("error", status.Err))
		p.logger.Info("transaction failed on-ledger", zap.String("signature", signature.String()), zap.Any("error", status.Err))
		return outcome, &Error{
			Code:      ErrorCodeFailed,
			Message:   "transaction executed with an error",
			Signature: signature,
			Detail:    status.Err,
			Submitted: true,
		}
	}
	p.transition(&outcome, StateConfirmed, zap.Uint64("slot", status.Slot))
	return outcome, nil
}

func (p *Pipeline) transition(outcome *Outcome, state PipelineState, fields ...zap.Field) {
	outcome.State = state
	outcome.Transitions = append(outcome.Transitions, Transition{State: state, At: time.Now()})
	p.logger.Debug("pipeline transition", append([]zap.Field{zap.String("state", string(state))}, fields...)...)
	if state.Terminal() {
		p.metrics.observeOutcome(state)
	}
}

func (p *Pipeline) unavailable(ctx context.Context, step string, cause error) error {
	if ctx.Err() != nil {
		return canceled(ctx.Err(), false)
	}
	return &Error{
		Code:    ErrorCodeLedgerUnavailable,
		Message: step + " failed",
		Cause:   cause,
	}
}

// simulationEnvelope copies tx with zeroed signatures; simulation runs with
// signature verification off.
func simulationEnvelope(tx *solana.Transaction) *solana.Transaction {
	envelope := *tx
	envelope.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	return &envelope
}

func canceled(cause error, submitted bool) *Error {
	return &Error{
		Code:      ErrorCodeCanceled,
		Message:   "operation abandoned by caller",
		Submitted: submitted,
		Cause:     cause,
	}
}

func canceledAfterSubmit(cause error, signature solana.Signature) *Error {
	err := canceled(cause, true)
	err.Signature = signature
	return err
}
