package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/govdeploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// DefaultPollInterval is how often new heads are checked while waiting for depth
const DefaultPollInterval = 2 * time.Second

// Client is the subset of ethclient.Client the backend uses
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// Dialer opens a client for an RPC endpoint
type Dialer func(ctx context.Context, rpcURL string) (Client, error)

// ArtifactSource provides compiled contracts by name
type ArtifactSource interface {
	Load(name string) (*artifacts.Artifact, error)
}

func dialEthclient(ctx context.Context, rpcURL string) (Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Backend implements usecase.ChainBackend with go-ethereum
type Backend struct {
	artifacts    ArtifactSource
	keys         *Keyring
	dial         Dialer
	pollInterval time.Duration
	log          *slog.Logger

	mu      sync.Mutex
	clients map[string]Client
	pending map[common.Hash]*types.Transaction
}

// NewBackend creates a chain backend
func NewBackend(repo *artifacts.Repository, keys *Keyring, log *slog.Logger) *Backend {
	return NewBackendWithDialer(repo, keys, dialEthclient, log)
}

// NewBackendWithDialer creates a chain backend using dial to open clients
func NewBackendWithDialer(source ArtifactSource, keys *Keyring, dial Dialer, log *slog.Logger) *Backend {
	return &Backend{
		artifacts:    source,
		keys:         keys,
		dial:         dial,
		pollInterval: DefaultPollInterval,
		log:          log.With("component", "chain"),
		clients:      make(map[string]Client),
		pending:      make(map[common.Hash]*types.Transaction),
	}
}

// SubmitDeployment signs and sends a contract-creation transaction
func (b *Backend) SubmitDeployment(ctx context.Context, network *domain.NetworkProfile, req usecase.DeploymentRequest) (*usecase.TxHandle, error) {
	artifact, err := b.artifacts.Load(req.Artifact)
	if err != nil {
		return nil, err
	}
	if len(artifact.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s has no creation bytecode (abstract contract or interface?)", req.Artifact)
	}

	args, err := CoerceArgs(artifact.ABI.Constructor.Inputs, req.Args)
	if err != nil {
		return nil, fmt.Errorf("constructor of %s: %w", req.Artifact, err)
	}

	client, err := b.client(ctx, network)
	if err != nil {
		return nil, err
	}
	opts, err := b.transactor(ctx, client, req.From)
	if err != nil {
		return nil, err
	}

	address, tx, _, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, client, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy contract: %w", err)
	}
	b.track(tx)

	b.log.Info("contract deployment transaction sent",
		"name", req.Component,
		"address", address.Hex(),
		"tx_hash", tx.Hash().Hex(),
	)

	return &usecase.TxHandle{Hash: tx.Hash().Hex(), ContractAddress: address.Hex()}, nil
}

// SubmitCall signs and sends a state-changing call to a deployed contract
func (b *Backend) SubmitCall(ctx context.Context, network *domain.NetworkProfile, req usecase.CallRequest) (*usecase.TxHandle, error) {
	artifact, err := b.artifacts.Load(req.Artifact)
	if err != nil {
		return nil, err
	}
	method, ok := artifact.ABI.Methods[req.Method]
	if !ok {
		return nil, fmt.Errorf("artifact %s has no method %s", req.Artifact, req.Method)
	}
	if !common.IsHexAddress(req.Address) {
		return nil, fmt.Errorf("invalid contract address %q", req.Address)
	}

	args, err := CoerceArgs(method.Inputs, req.Args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", req.Artifact, req.Method, err)
	}

	client, err := b.client(ctx, network)
	if err != nil {
		return nil, err
	}
	opts, err := b.transactor(ctx, client, req.From)
	if err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(common.HexToAddress(req.Address), artifact.ABI, client, client, client)
	tx, err := contract.Transact(opts, req.Method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", req.Method, err)
	}
	b.track(tx)

	b.log.Info("call transaction sent",
		"name", req.Component,
		"method", req.Method,
		"address", req.Address,
		"tx_hash", tx.Hash().Hex(),
	)

	return &usecase.TxHandle{Hash: tx.Hash().Hex()}, nil
}

// AwaitConfirmations waits until the transaction is mined and buried under
// confirmations-1 further blocks.
func (b *Backend) AwaitConfirmations(ctx context.Context, network *domain.NetworkProfile, handle *usecase.TxHandle, confirmations uint64) (*usecase.Receipt, error) {
	if confirmations == 0 {
		confirmations = domain.DefaultConfirmations
	}

	client, err := b.client(ctx, network)
	if err != nil {
		return nil, err
	}

	tx, err := b.transaction(ctx, client, common.HexToHash(handle.Hash))
	if err != nil {
		return nil, err
	}

	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s in block %d", domain.ErrTransactionReverted, handle.Hash, receipt.BlockNumber.Uint64())
	}

	block := receipt.BlockNumber.Uint64()
	observed, err := waitForDepth(ctx, client, block, confirmations, b.pollInterval)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	delete(b.pending, tx.Hash())
	b.mu.Unlock()

	result := &usecase.Receipt{
		TxHash:        handle.Hash,
		BlockNumber:   block,
		Confirmations: observed,
	}
	if receipt.ContractAddress != (common.Address{}) {
		result.ContractAddress = receipt.ContractAddress.Hex()
	}
	return result, nil
}

// HeaderSource returns the latest header when number is nil
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// waitForDepth blocks until head - block + 1 >= n and returns the observed depth
func waitForDepth(ctx context.Context, headers HeaderSource, block, n uint64, interval time.Duration) (uint64, error) {
	depth := func() (uint64, error) {
		head, err := headers.HeaderByNumber(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to get latest header: %w", err)
		}
		if head.Number.Uint64() < block {
			return 0, nil
		}
		return head.Number.Uint64() - block + 1, nil
	}

	if n <= 1 {
		return 1, nil
	}

	observed, err := depth()
	if err != nil {
		return 0, err
	}
	if observed >= n {
		return observed, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
			observed, err = depth()
			if err != nil {
				return 0, err
			}
			if observed >= n {
				return observed, nil
			}
		}
	}
}

// Close releases every open RPC connection
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.clients {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
		delete(b.clients, id)
	}
}

func (b *Backend) client(ctx context.Context, network *domain.NetworkProfile) (Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[network.NetworkID]; ok {
		return c, nil
	}
	if network.RPCURL == "" {
		return nil, &domain.ConfigurationError{Subject: network.NetworkID, Reason: "no RPC URL configured"}
	}

	c, err := b.dial(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if network.ChainID != 0 && chainID.Uint64() != network.ChainID {
		return nil, &domain.ConfigurationError{
			Subject: network.NetworkID,
			Reason:  fmt.Sprintf("chain ID mismatch: expected %d, got %d", network.ChainID, chainID.Uint64()),
		}
	}

	b.clients[network.NetworkID] = c
	return c, nil
}

func (b *Backend) transactor(ctx context.Context, client Client, from domain.Identity) (*bind.TransactOpts, error) {
	key, err := b.keys.Key(from)
	if err != nil {
		return nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (b *Backend) track(tx *types.Transaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[tx.Hash()] = tx
}

// transaction returns a transaction submitted by this backend, or fetches it
func (b *Backend) transaction(ctx context.Context, client Client, hash common.Hash) (*types.Transaction, error) {
	b.mu.Lock()
	tx, ok := b.pending[hash]
	b.mu.Unlock()
	if ok {
		return tx, nil
	}

	tx, _, err := client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("transaction %s: %w", hash.Hex(), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", hash.Hex(), err)
	}
	return tx, nil
}

var _ usecase.ChainBackend = (*Backend)(nil)
