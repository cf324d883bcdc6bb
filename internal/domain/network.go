package domain

// DefaultConfirmations is used when a network profile does not set a confirmation depth
const DefaultConfirmations uint64 = 1

// NetworkProfile holds the operational parameters for one target network.
// It is resolved once per run and never re-read from the environment.
type NetworkProfile struct {
	NetworkID             string `json:"networkId"`
	ChainID               uint64 `json:"chainId,omitempty"`
	RPCURL                string `json:"-"`
	RequiredConfirmations uint64 `json:"requiredConfirmations"`
	VerificationEnabled   bool   `json:"verificationEnabled"`
	Development           bool   `json:"development"`
	ExplorerURL           string `json:"explorerUrl,omitempty"`
	ExplorerAPIURL        string `json:"explorerApiUrl,omitempty"`
}
