package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/hashgraph-online/favorite-color-sdk-go/pkg/shared"
)

type Config struct {
	Network    string
	Endpoint   string
	HTTPClient *http.Client
	Headers    map[string]string
	Commitment rpc.CommitmentType
}

// Client talks to a Solana JSON-RPC node. Every read and every confirmation
// check uses a single commitment level, "confirmed" unless configured.
type Client struct {
	endpoint   string
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	endpoint, err := shared.ResolveRPCEndpoint(config.Network, config.Endpoint)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := map[string]string{}
	for key, value := range config.Headers {
		headers[key] = value
	}

	commitment := config.Commitment
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}

	rpcClient := rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient:    httpClient,
		CustomHeaders: headers,
	}))

	return &Client{
		endpoint:   endpoint,
		rpc:        rpcClient,
		commitment: commitment,
	}, nil
}

// Endpoint returns the resolved JSON-RPC endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Commitment returns the commitment level used for reads and confirmation.
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// GetAccountInfo returns the account stored at address, or nil when no
// account exists there.
func (c *Client) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*RawAccount, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getAccountInfo %s failed: %w", address, err)
	}
	if result == nil || result.Value == nil {
		return nil, nil
	}

	account := &RawAccount{
		Address:  address,
		Owner:    result.Value.Owner,
		Lamports: result.Value.Lamports,
		Slot:     result.Context.Slot,
	}
	if result.Value.Data != nil {
		account.Data = result.Value.Data.GetBinary()
	}
	return account, nil
}

// GetLatestAnchor fetches the most recent blockhash and its expiry height.
func (c *Client) GetLatestAnchor(ctx context.Context) (Anchor, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return Anchor{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	if result == nil || result.Value == nil {
		return Anchor{}, fmt.Errorf("getLatestBlockhash returned no value")
	}

	return Anchor{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// Simulate dry-runs tx against current state without signature verification.
func (c *Client) Simulate(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	result, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             c.commitment,
		ReplaceRecentBlockhash: false,
	})
	if err != nil {
		return nil, fmt.Errorf("simulateTransaction failed: %w", err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("simulateTransaction returned no value")
	}

	simulation := &SimulationResult{
		Err:  result.Value.Err,
		Logs: result.Value.Logs,
	}
	if result.Value.UnitsConsumed != nil {
		simulation.UnitsConsumed = *result.Value.UnitsConsumed
	}
	return simulation, nil
}

// SendTransaction broadcasts a signed transaction. Preflight is skipped
// because callers simulate explicitly before sending. MaxRetries is left
// unset so the node keeps rebroadcasting until the blockhash expires.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	signature, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction failed: %w", err)
	}
	return signature, nil
}

// GetSignatureStatus returns the status of signature, or nil when the node
// has not seen it.
func (c *Client) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses failed: %w", err)
	}
	if result == nil || len(result.Value) == 0 || result.Value[0] == nil {
		return nil, nil
	}

	value := result.Value[0]
	return &SignatureStatus{
		Slot:               value.Slot,
		ConfirmationStatus: value.ConfirmationStatus,
		Err:                value.Err,
	}, nil
}

// GetBlockHeight returns the current block height.
func (c *Client) GetBlockHeight(ctx context.Context) (uint64, error) {
	height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("getBlockHeight failed: %w", err)
	}
	return height, nil
}
