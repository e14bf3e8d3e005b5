package shared

import (
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
)

func TestNormalizeNetworkDevnet(t *testing.T) {
	result, err := NormalizeNetwork("devnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != NetworkDevnet {
		t.Fatalf("expected %q, got %q", NetworkDevnet, result)
	}
}

func TestNormalizeNetworkAliases(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"MAINNET", NetworkMainnetBeta},
		{"mainnet-beta", NetworkMainnetBeta},
		{"Testnet", NetworkTestnet},
		{"  devnet  ", NetworkDevnet},
		{"localhost", NetworkLocalnet},
		{"LOCALNET", NetworkLocalnet},
	}

	for _, tc := range cases {
		result, err := NormalizeNetwork(tc.input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if result != tc.expected {
			t.Fatalf("expected %q for input %q, got %q", tc.expected, tc.input, result)
		}
	}
}

func TestNormalizeNetworkEmpty(t *testing.T) {
	for _, input := range []string{"", "   "} {
		result, err := NormalizeNetwork(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != NetworkDevnet {
			t.Fatalf("expected %q for %q, got %q", NetworkDevnet, input, result)
		}
	}
}

func TestNormalizeNetworkUnsupported(t *testing.T) {
	_, err := NormalizeNetwork("previewnet")
	if err == nil {
		t.Fatal("expected error for unsupported network")
	}
}

func TestResolveRPCEndpointDefaults(t *testing.T) {
	cases := map[string]string{
		"":             rpc.DevNet_RPC,
		"devnet":       rpc.DevNet_RPC,
		"testnet":      rpc.TestNet_RPC,
		"mainnet-beta": rpc.MainNetBeta_RPC,
		"localnet":     rpc.LocalNet_RPC,
	}
	for network, expected := range cases {
		endpoint, err := ResolveRPCEndpoint(network, "")
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", network, err)
		}
		if endpoint != expected {
			t.Fatalf("expected %q for %q, got %q", expected, network, endpoint)
		}
	}
}

func TestResolveRPCEndpointOverride(t *testing.T) {
	endpoint, err := ResolveRPCEndpoint("mainnet", "https://rpc.example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if endpoint != "https://rpc.example.com" {
		t.Fatalf("unexpected endpoint: %s", endpoint)
	}
}

func TestResolveRPCEndpointInvalidOverride(t *testing.T) {
	for _, override := range []string{"ftp://rpc.example.com", "https://", "::bad"} {
		if _, err := ResolveRPCEndpoint("devnet", override); err == nil {
			t.Fatalf("expected error for override %q", override)
		}
	}
}

func TestExplorerURLs(t *testing.T) {
	address := "AMt9tGcfKDkFEVQKAHjLc6Tcs9eSPfwziinE7nFZtAMv"

	devnet := ExplorerAddressURL("devnet", address)
	if devnet != "https://explorer.solana.com/address/"+address+"?cluster=devnet" {
		t.Fatalf("unexpected devnet URL: %s", devnet)
	}

	mainnet := ExplorerTxURL("mainnet", "sig")
	if mainnet != "https://explorer.solana.com/tx/sig" {
		t.Fatalf("unexpected mainnet URL: %s", mainnet)
	}

	local := ExplorerAddressURL("localnet", address)
	if !strings.Contains(local, "cluster=custom") {
		t.Fatalf("expected custom cluster for localnet: %s", local)
	}

	fallback := ExplorerAddressURL("unknown", address)
	if !strings.HasSuffix(fallback, "?cluster=devnet") {
		t.Fatalf("expected devnet fallback: %s", fallback)
	}
}
