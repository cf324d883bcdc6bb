package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

const (
	// APIKeyEnv is read when the project file sets no verification credential
	APIKeyEnv = "ETHERSCAN_API_KEY"
	// PrivateKeyEnv is read when the project file sets no deployer key
	PrivateKeyEnv = "PRIVATE_KEY"
)

// LoadProjectConfig loads .env files and govdeploy.toml from the project root.
// A missing project file yields an empty configuration.
func LoadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	// Existing environment variables take precedence over both files
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(projectRoot, name)
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", name, err)
			}
		}
	}

	cfg := &config.ProjectConfig{}
	path := filepath.Join(projectRoot, ProjectFile)
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.ConfigurationError{Subject: ProjectFile, Reason: "failed to parse", Err: err}
	}

	expandProjectConfig(cfg)
	applyEnvDefaults(cfg)

	if err := validateProjectConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandProjectConfig replaces ${VAR} references in every string value
func expandProjectConfig(cfg *config.ProjectConfig) {
	networks := make(map[string]config.NetworkConfig, len(cfg.Networks))
	for name, nc := range cfg.Networks {
		nc.RPCURL = os.ExpandEnv(nc.RPCURL)
		nc.ExplorerURL = os.ExpandEnv(nc.ExplorerURL)
		nc.ExplorerAPIURL = os.ExpandEnv(nc.ExplorerAPIURL)
		networks[name] = nc
	}
	cfg.Networks = networks

	cfg.Deployer.Name = os.ExpandEnv(cfg.Deployer.Name)
	cfg.Deployer.PrivateKey = os.ExpandEnv(cfg.Deployer.PrivateKey)
	cfg.Deployer.Address = os.ExpandEnv(cfg.Deployer.Address)
	cfg.Verification.APIKey = os.ExpandEnv(cfg.Verification.APIKey)
	cfg.Plan = os.ExpandEnv(cfg.Plan)
	for i, dir := range cfg.Artifacts.Dirs {
		cfg.Artifacts.Dirs[i] = os.ExpandEnv(dir)
	}
}

// applyEnvDefaults fills values the project file left empty from conventional
// environment variables.
func applyEnvDefaults(cfg *config.ProjectConfig) {
	if cfg.Verification.APIKey == "" {
		cfg.Verification.APIKey = os.Getenv(APIKeyEnv)
	}
	if cfg.Deployer.PrivateKey == "" && cfg.Deployer.Address == "" {
		cfg.Deployer.PrivateKey = os.Getenv(PrivateKeyEnv)
	}
	for name, nc := range cfg.Networks {
		if nc.RPCURL == "" {
			nc.RPCURL = os.Getenv(RPCURLEnvName(name))
			cfg.Networks[name] = nc
		}
	}
}

func validateProjectConfig(cfg *config.ProjectConfig) error {
	for name, nc := range cfg.Networks {
		if nc.Confirmations < 0 {
			return &domain.ConfigurationError{
				Subject: name,
				Reason:  fmt.Sprintf("confirmations must not be negative (got %d)", nc.Confirmations),
			}
		}
	}
	return nil
}

// RPCURLEnvName returns the conventional env var holding a network's RPC URL.
// Examples: sepolia -> SEPOLIA_RPC_URL, base-sepolia -> BASE_SEPOLIA_RPC_URL
func RPCURLEnvName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}
