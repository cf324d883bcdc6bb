package config

// ProjectConfig represents govdeploy.toml after environment expansion
type ProjectConfig struct {
	Networks     map[string]NetworkConfig `toml:"networks"`
	Deployer     DeployerConfig           `toml:"deployer"`
	Verification VerificationConfig       `toml:"verification"`
	Artifacts    ArtifactsConfig          `toml:"artifacts"`
	Plan         string                   `toml:"plan,omitempty"`
}

// NetworkConfig is one [networks.<id>] table. Verify is nil when the key is
// absent, leaving the choice to the network's defaults.
type NetworkConfig struct {
	RPCURL         string `toml:"rpc_url"`
	ChainID        uint64 `toml:"chain_id,omitempty"`
	Confirmations  int64  `toml:"confirmations,omitempty"`
	Verify         *bool  `toml:"verify,omitempty"`
	Development    bool   `toml:"development,omitempty"`
	ExplorerURL    string `toml:"explorer_url,omitempty"`
	ExplorerAPIURL string `toml:"explorer_api_url,omitempty"`
}

// DeployerConfig identifies the signer. PrivateKey normally holds a ${VAR} reference.
type DeployerConfig struct {
	Name       string `toml:"name,omitempty"`
	PrivateKey string `toml:"private_key,omitempty"` //nolint:gosec // holds env var reference, not a literal secret
	Address    string `toml:"address,omitempty"`
}

// VerificationConfig carries the explorer credential
type VerificationConfig struct {
	APIKey string `toml:"api_key,omitempty"`
}

// ArtifactsConfig locates compiled contract artifacts
type ArtifactsConfig struct {
	Dirs []string `toml:"dirs,omitempty"`
}
