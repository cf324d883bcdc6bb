package blockchain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

// Keyring maps deployer identities to already-authorized private keys
type Keyring struct {
	keys map[common.Address]*ecdsa.PrivateKey

	// address of the key loaded from the project's deployer config
	configured common.Address
}

// NewKeyring creates a keyring holding the configured deployer key, if any
func NewKeyring(cfg *config.RuntimeConfig) (*Keyring, error) {
	k := &Keyring{keys: make(map[common.Address]*ecdsa.PrivateKey)}
	if cfg.Project == nil || cfg.Project.Deployer.PrivateKey == "" {
		return k, nil
	}
	address, err := k.Add(cfg.Project.Deployer.PrivateKey)
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: "deployer", Reason: "invalid private key", Err: err}
	}
	k.configured = address
	return k, nil
}

// Add parses a hex private key and returns the address it signs for
func (k *Keyring) Add(privateKeyHex string) (common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return common.Address{}, err
	}
	address := crypto.PubkeyToAddress(key.PublicKey)
	k.keys[address] = key
	return address, nil
}

// Key returns the key for an identity
func (k *Keyring) Key(id domain.Identity) (*ecdsa.PrivateKey, error) {
	if !common.IsHexAddress(id.Address) {
		return nil, fmt.Errorf("deployer %q has no valid address", id.Name)
	}
	key, ok := k.keys[common.HexToAddress(id.Address)]
	if !ok {
		return nil, fmt.Errorf("no key loaded for deployer %s", id.Address)
	}
	return key, nil
}

// Identity returns the deployer identity described by the configuration. With a
// private key the address is the one NewKeyring derived; a configured address must match.
func (k *Keyring) Identity(cfg *config.RuntimeConfig) (domain.Identity, error) {
	id := domain.Identity{Name: "deployer"}
	if cfg.Project == nil {
		return id, nil
	}
	dc := cfg.Project.Deployer
	if dc.Name != "" {
		id.Name = dc.Name
	}

	if dc.PrivateKey != "" {
		if _, ok := k.keys[k.configured]; !ok {
			return id, &domain.ConfigurationError{Subject: "deployer", Reason: "private key was not loaded"}
		}
		derived := k.configured
		if dc.Address != "" && !strings.EqualFold(common.HexToAddress(dc.Address).Hex(), derived.Hex()) {
			return id, &domain.ConfigurationError{
				Subject: "deployer",
				Reason:  fmt.Sprintf("address %s does not match private key (%s)", dc.Address, derived.Hex()),
			}
		}
		id.Address = derived.Hex()
		return id, nil
	}

	if dc.Address != "" {
		if !common.IsHexAddress(dc.Address) {
			return id, &domain.ConfigurationError{Subject: "deployer", Reason: fmt.Sprintf("invalid address %q", dc.Address)}
		}
		id.Address = common.HexToAddress(dc.Address).Hex()
	}
	return id, nil
}
