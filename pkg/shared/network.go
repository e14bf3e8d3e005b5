package shared

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
)

const (
	NetworkDevnet      = "devnet"
	NetworkTestnet     = "testnet"
	NetworkMainnetBeta = "mainnet-beta"
	NetworkLocalnet    = "localnet"
)

const explorerBaseURL = "https://explorer.solana.com"

// NormalizeNetwork returns the canonical cluster name for network. An empty
// value selects devnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkDevnet, nil
	}

	switch normalized {
	case NetworkDevnet, NetworkTestnet, NetworkMainnetBeta, NetworkLocalnet:
		return normalized, nil
	case "mainnet":
		return NetworkMainnetBeta, nil
	case "localhost":
		return NetworkLocalnet, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// ResolveRPCEndpoint returns override when it is set, otherwise the public
// JSON-RPC endpoint of network.
func ResolveRPCEndpoint(network string, override string) (string, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return "", err
	}

	if endpoint := strings.TrimSpace(override); endpoint != "" {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return "", fmt.Errorf("invalid RPC endpoint: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return "", fmt.Errorf("invalid RPC endpoint: scheme must be http or https")
		}
		if strings.TrimSpace(parsed.Host) == "" {
			return "", fmt.Errorf("invalid RPC endpoint: host is required")
		}
		return strings.TrimRight(parsed.String(), "/"), nil
	}

	switch normalized {
	case NetworkMainnetBeta:
		return rpc.MainNetBeta_RPC, nil
	case NetworkTestnet:
		return rpc.TestNet_RPC, nil
	case NetworkLocalnet:
		return rpc.LocalNet_RPC, nil
	default:
		return rpc.DevNet_RPC, nil
	}
}

// ExplorerAddressURL returns the Solana Explorer page for address on network.
func ExplorerAddressURL(network string, address string) string {
	return explorerURL(network, "address", address)
}

// ExplorerTxURL returns the Solana Explorer page for a transaction signature.
func ExplorerTxURL(network string, signature string) string {
	return explorerURL(network, "tx", signature)
}

func explorerURL(network string, kind string, value string) string {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		normalized = NetworkDevnet
	}

	link := fmt.Sprintf("%s/%s/%s", explorerBaseURL, kind, url.PathEscape(value))
	switch normalized {
	case NetworkMainnetBeta:
		return link
	case NetworkLocalnet:
		return link + "?cluster=custom&customUrl=" + url.QueryEscape(rpc.LocalNet_RPC)
	default:
		return link + "?cluster=" + normalized
	}
}
