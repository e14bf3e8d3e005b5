package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcServer struct {
	*httptest.Server

	mutex    sync.Mutex
	requests []rpcRequest
}

func newRPCServer(t *testing.T, results map[string]any) *rpcServer {
	t.Helper()

	server := &rpcServer{}
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		server.mutex.Lock()
		server.requests = append(server.requests, request)
		server.mutex.Unlock()

		response := map[string]any{"jsonrpc": "2.0", "id": request.ID}
		result, ok := results[request.Method]
		switch {
		case !ok:
			response["error"] = rpcFailure{Code: -32601, Message: "method not found: " + request.Method}
		default:
			if failure, isFailure := result.(rpcFailure); isFailure {
				response["error"] = failure
			} else {
				response["result"] = result
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server
}

func (s *rpcServer) lastRequest(t *testing.T) rpcRequest {
	t.Helper()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func newTestClient(t *testing.T, server *rpcServer) *Client {
	t.Helper()
	client, err := NewClient(Config{Endpoint: server.URL})
	require.NoError(t, err)
	return client
}

func sampleTransaction(t *testing.T, payer solana.PrivateKey) *solana.Transaction {
	t.Helper()

	program := solana.NewWallet().PublicKey()
	instruction := solana.NewInstruction(
		program,
		solana.AccountMetaSlice{solana.NewAccountMeta(payer.PublicKey(), true, true)},
		[]byte{1, 2, 3},
	)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		solana.Hash{9, 9, 9},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	return tx
}

func signedTransaction(t *testing.T, payer solana.PrivateKey) *solana.Transaction {
	t.Helper()

	tx := sampleTransaction(t, payer)
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	})
	require.NoError(t, err)
	return tx
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)
	require.Equal(t, rpc.DevNet_RPC, client.Endpoint())
	require.Equal(t, rpc.CommitmentConfirmed, client.Commitment())
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "ws://example.com"})
	require.Error(t, err)

	_, err = NewClient(Config{Network: "moonnet"})
	require.Error(t, err)
}

func TestGetAccountInfoFound(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	data := []byte("favorite-color-account")

	server := newRPCServer(t, map[string]any{
		"getAccountInfo": map[string]any{
			"context": map[string]any{"slot": 42},
			"value": map[string]any{
				"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"executable": false,
				"lamports":   1_238_880,
				"owner":      owner.String(),
				"rentEpoch":  0,
			},
		},
	})
	client := newTestClient(t, server)

	address := solana.NewWallet().PublicKey()
	account, err := client.GetAccountInfo(context.Background(), address)
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Equal(t, address, account.Address)
	require.Equal(t, owner, account.Owner)
	require.Equal(t, data, account.Data)
	require.Equal(t, uint64(42), account.Slot)
	require.Equal(t, uint64(1_238_880), account.Lamports)

	request := server.lastRequest(t)
	require.Equal(t, "getAccountInfo", request.Method)
	require.Contains(t, string(request.Params), `"commitment":"confirmed"`)
	require.Contains(t, string(request.Params), `"encoding":"base64"`)
}

func TestGetAccountInfoAbsent(t *testing.T) {
	server := newRPCServer(t, map[string]any{
		"getAccountInfo": map[string]any{
			"context": map[string]any{"slot": 42},
			"value":   nil,
		},
	})
	client := newTestClient(t, server)

	account, err := client.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.Nil(t, account)
}

func TestGetAccountInfoRPCError(t *testing.T) {
	server := newRPCServer(t, map[string]any{
		"getAccountInfo": rpcFailure{Code: -32005, Message: "node is behind"},
	})
	client := newTestClient(t, server)

	_, err := client.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	require.Contains(t, err.Error(), "node is behind")
}

func TestGetLatestAnchor(t *testing.T) {
	blockhash := solana.Hash{1, 2, 3, 4}
	server := newRPCServer(t, map[string]any{
		"getLatestBlockhash": map[string]any{
			"context": map[string]any{"slot": 7},
			"value": map[string]any{
				"blockhash":            blockhash.String(),
				"lastValidBlockHeight": 1150,
			},
		},
	})
	client := newTestClient(t, server)

	anchor, err := client.GetLatestAnchor(context.Background())
	require.NoError(t, err)
	require.Equal(t, blockhash, anchor.Blockhash)
	require.Equal(t, uint64(1150), anchor.LastValidBlockHeight)
	require.False(t, anchor.Expired(1150))
	require.True(t, anchor.Expired(1151))
}

func TestGetBlockHeight(t *testing.T) {
	server := newRPCServer(t, map[string]any{"getBlockHeight": 1001})
	client := newTestClient(t, server)

	height, err := client.GetBlockHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1001), height)
}

func TestSimulateReportsProgramError(t *testing.T) {
	server := newRPCServer(t, map[string]any{
		"simulateTransaction": map[string]any{
			"context": map[string]any{"slot": 7},
			"value": map[string]any{
				"err": map[string]any{
					"InstructionError": []any{2, map[string]any{"Custom": 6000}},
				},
				"logs":          []string{"Program log: AnchorError: Color is too long"},
				"unitsConsumed": 4321,
			},
		},
	})
	client := newTestClient(t, server)

	tx := sampleTransaction(t, solana.NewWallet().PrivateKey)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	result, err := client.Simulate(context.Background(), tx)
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	require.Equal(t, uint64(4321), result.UnitsConsumed)
	require.Len(t, result.Logs, 1)

	request := server.lastRequest(t)
	require.Equal(t, "simulateTransaction", request.Method)
	require.Contains(t, string(request.Params), `"commitment":"confirmed"`)
}

func TestSendTransaction(t *testing.T) {
	tx := signedTransaction(t, solana.NewWallet().PrivateKey)

	server := newRPCServer(t, map[string]any{"sendTransaction": tx.Signatures[0].String()})
	client := newTestClient(t, server)

	signature, err := client.SendTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, tx.Signatures[0], signature)

	request := server.lastRequest(t)
	require.Equal(t, "sendTransaction", request.Method)
	require.Contains(t, string(request.Params), `"skipPreflight":true`)
	require.NotContains(t, string(request.Params), "maxRetries")
}

func TestSendTransactionNetworkFailure(t *testing.T) {
	server := newRPCServer(t, map[string]any{})
	server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.SendTransaction(context.Background(), signedTransaction(t, solana.NewWallet().PrivateKey))
	require.Error(t, err)
	require.Contains(t, err.Error(), "sendTransaction failed")
}

func TestGetSignatureStatus(t *testing.T) {
	server := newRPCServer(t, map[string]any{
		"getSignatureStatuses": map[string]any{
			"context": map[string]any{"slot": 9},
			"value": []any{
				map[string]any{
					"slot":               8,
					"confirmations":      nil,
					"err":                nil,
					"confirmationStatus": "confirmed",
				},
			},
		},
	})
	client := newTestClient(t, server)

	status, err := client.GetSignatureStatus(context.Background(), solana.Signature{1})
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, uint64(8), status.Slot)
	require.Nil(t, status.Err)
	require.True(t, status.Reached(rpc.ConfirmationStatusConfirmed))
	require.False(t, status.Reached(rpc.ConfirmationStatusFinalized))
}

func TestGetSignatureStatusUnknown(t *testing.T) {
	server := newRPCServer(t, map[string]any{
		"getSignatureStatuses": map[string]any{
			"context": map[string]any{"slot": 9},
			"value":   []any{nil},
		},
	})
	client := newTestClient(t, server)

	status, err := client.GetSignatureStatus(context.Background(), solana.Signature{1})
	require.NoError(t, err)
	require.Nil(t, status)
	require.False(t, status.Reached(rpc.ConfirmationStatusProcessed))
}
