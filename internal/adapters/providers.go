package adapters

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/trebuchet-org/govdeploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/govdeploy/internal/adapters/blockchain"
	"github.com/trebuchet-org/govdeploy/internal/adapters/fs"
	"github.com/trebuchet-org/govdeploy/internal/adapters/interactive"
	"github.com/trebuchet-org/govdeploy/internal/adapters/network"
	"github.com/trebuchet-org/govdeploy/internal/adapters/verification"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// ProvideDeployer resolves the deployer identity from the configured key or address
func ProvideDeployer(keys *blockchain.Keyring, cfg *config.RuntimeConfig) (domain.Identity, error) {
	return keys.Identity(cfg)
}

// ProvideBackend creates the chain backend; cleanup closes its RPC connections
func ProvideBackend(repo *artifacts.Repository, keys *blockchain.Keyring, log *slog.Logger) (*blockchain.Backend, func()) {
	backend := blockchain.NewBackend(repo, keys, log)
	return backend, backend.Close
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewRecordStoreAdapter,
	wire.Bind(new(usecase.RecordStore), new(*fs.RecordStoreAdapter)),

	artifacts.NewRepository,
)

// NetworkSet provides the network profile table
var NetworkSet = wire.NewSet(
	network.NewResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*network.Resolver)),
)

// BlockchainSet provides go-ethereum based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewKeyring,
	ProvideBackend,
	ProvideDeployer,
	wire.Bind(new(usecase.ChainBackend), new(*blockchain.Backend)),
)

// VerificationSet provides explorer verification
var VerificationSet = wire.NewSet(
	verification.NewEtherscanVerifier,
	wire.Bind(new(usecase.SourceVerifier), new(*verification.EtherscanVerifier)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.SelectorAdapter)),
	wire.Bind(new(usecase.NetworkSelector), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	NetworkSet,
	BlockchainSet,
	VerificationSet,
	InteractiveSet,
)
