package shared

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultProgramID is the deployed favorite-color program.
const DefaultProgramID = "AMt9tGcfKDkFEVQKAHjLc6Tcs9eSPfwziinE7nFZtAMv"

type Config struct {
	Network     string
	RPCEndpoint string
	ProgramID   string
	KeypairPath string
	PrivateKey  string
	LogLevel    string
}

var dotenvLoadOnce sync.Once

// ConfigFromEnv resolves client configuration from the process environment,
// loading the nearest .env file first. Values already present in the
// environment win over .env entries.
func ConfigFromEnv() (Config, error) {
	loadDotEnvIfPresent()

	network, err := NormalizeNetwork(firstNonEmptyEnv("SOLANA_NETWORK", "SOLANA_CLUSTER", "NETWORK"))
	if err != nil {
		return Config{}, err
	}

	endpoint := firstNonEmptyEnv("SOLANA_RPC_ENDPOINT", "SOLANA_RPC_URL", "RPC_URL")
	switch network {
	case NetworkMainnetBeta:
		if scoped := firstNonEmptyEnv("MAINNET_SOLANA_RPC_ENDPOINT", "MAINNET_RPC_URL"); scoped != "" {
			endpoint = scoped
		}
	case NetworkDevnet:
		if scoped := firstNonEmptyEnv("DEVNET_SOLANA_RPC_ENDPOINT", "DEVNET_RPC_URL"); scoped != "" {
			endpoint = scoped
		}
	}
	endpoint, err = ResolveRPCEndpoint(network, endpoint)
	if err != nil {
		return Config{}, err
	}

	programID := firstNonEmptyEnv("FAVORITE_COLOR_PROGRAM_ID", "PROGRAM_ID")
	if programID == "" {
		programID = DefaultProgramID
	}

	keypairPath := firstNonEmptyEnv("SOLANA_KEYPAIR_PATH", "SOLANA_KEYPAIR", "KEYPAIR_PATH")
	if keypairPath == "" {
		keypairPath = defaultKeypairPath()
	}

	return Config{
		Network:     network,
		RPCEndpoint: endpoint,
		ProgramID:   programID,
		KeypairPath: expandHome(keypairPath),
		PrivateKey:  firstNonEmptyEnv("SOLANA_PRIVATE_KEY", "PRIVATE_KEY"),
		LogLevel:    firstNonEmptyEnv("FAVORITE_COLOR_LOG_LEVEL", "LOG_LEVEL"),
	}, nil
}

func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func loadDotEnvIfPresent() {
	dotenvLoadOnce.Do(func() {
		startPaths := make([]string, 0, 2)
		if cwd, err := os.Getwd(); err == nil {
			startPaths = append(startPaths, cwd)
		}
		if _, currentFile, _, ok := runtime.Caller(0); ok {
			startPaths = append(startPaths, filepath.Dir(currentFile))
		}

		if path := findDotEnv(startPaths...); path != "" {
			// godotenv.Load never overrides variables that are already set.
			_ = godotenv.Load(path)
		}
	})
}

// findDotEnv walks up from each start directory and returns the first .env
// file found, or "" when there is none.
func findDotEnv(starts ...string) string {
	seen := make(map[string]struct{})
	for _, start := range starts {
		current := start
		for {
			candidate := filepath.Join(current, ".env")
			if _, exists := seen[candidate]; !exists {
				seen[candidate] = struct{}{}
				if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
					return candidate
				}
			}

			parent := filepath.Dir(current)
			if parent == current {
				break
			}
			current = parent
		}
	}
	return ""
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}
