package blockchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/govdeploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// advancingHeads returns a head one block higher on every call
type advancingHeads struct {
	mu    sync.Mutex
	head  uint64
	calls int
	err   error
}

func (h *advancingHeads) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	h.calls++
	n := h.head
	h.head++
	return &types.Header{Number: new(big.Int).SetUint64(n)}, nil
}

func TestWaitForDepth(t *testing.T) {
	ctx := context.Background()

	t.Run("single confirmation returns on inclusion", func(t *testing.T) {
		heads := &advancingHeads{head: 10}
		observed, err := waitForDepth(ctx, heads, 10, 1, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), observed)
		assert.Zero(t, heads.calls)
	})

	t.Run("waits for new heads", func(t *testing.T) {
		heads := &advancingHeads{head: 10}
		observed, err := waitForDepth(ctx, heads, 10, 6, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, uint64(6), observed)
		assert.Equal(t, 6, heads.calls)
	})

	t.Run("already deep enough", func(t *testing.T) {
		heads := &advancingHeads{head: 20}
		observed, err := waitForDepth(ctx, heads, 10, 6, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, uint64(11), observed)
	})

	t.Run("cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		heads := &advancingHeads{head: 0}
		_, err := waitForDepth(ctx, heads, 10, 1000, time.Hour)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("rpc error", func(t *testing.T) {
		heads := &advancingHeads{err: errors.New("connection refused")}
		_, err := waitForDepth(ctx, heads, 10, 3, time.Millisecond)
		assert.ErrorContains(t, err, "connection refused")
	})
}

// counterABI describes a contract whose constructor stores an initial value and
// whose set(uint256) only accepts values above the stored one.
const counterABI = `[
	{"type":"constructor","inputs":[{"name":"initial","type":"uint256"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"set","inputs":[{"name":"value","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

// counterBytecode is hand-assembled: the init code copies the constructor
// argument into slot 0 and returns the runtime, which reverts unless
// calldata[4:36] > slot 0 and then stores it.
const counterBytecode = "0x" +
	"6020602d6000396000516000556014601960003960146000f3" +
	"6004358060005410600f57600080fd5b60005500"

type staticArtifacts map[string]*artifacts.Artifact

func (s staticArtifacts) Load(name string) (*artifacts.Artifact, error) {
	a, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", name, domain.ErrNotFound)
	}
	return a, nil
}

type simulatedChain struct {
	sim     *simulated.Backend
	backend *Backend
	network *domain.NetworkProfile
	from    domain.Identity
}

func newSimulatedChain(t *testing.T) *simulatedChain {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(counterABI))
	require.NoError(t, err)
	source := staticArtifacts{"Counter": {Name: "Counter", ABI: parsed, Bytecode: common.FromHex(counterBytecode)}}

	keys, err := NewKeyring(runtimeWithDeployer(config.DeployerConfig{PrivateKey: anvilKey}))
	require.NoError(t, err)

	sim := simulated.NewBackend(types.GenesisAlloc{
		common.HexToAddress(deployer): {Balance: new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))},
	})
	t.Cleanup(func() { _ = sim.Close() })

	dial := func(ctx context.Context, rpcURL string) (Client, error) {
		return sim.Client(), nil
	}
	backend := NewBackendWithDialer(source, keys, dial, slog.New(slog.NewTextHandler(io.Discard, nil)))
	backend.pollInterval = 10 * time.Millisecond

	return &simulatedChain{
		sim:     sim,
		backend: backend,
		network: &domain.NetworkProfile{
			NetworkID:             "simulated",
			RPCURL:                "simulated",
			ChainID:               1337,
			RequiredConfirmations: 1,
			Development:           true,
		},
		from: domain.Identity{Name: "deployer", Address: deployer},
	}
}

// deploy creates a Counter holding initial and mines it
func (c *simulatedChain) deploy(t *testing.T, ctx context.Context, initial int) string {
	t.Helper()
	tx, err := c.backend.SubmitDeployment(ctx, c.network, usecase.DeploymentRequest{
		Component: "Counter",
		Artifact:  "Counter",
		Args:      []any{initial},
		From:      c.from,
	})
	require.NoError(t, err)
	c.sim.Commit()

	receipt, err := c.backend.AwaitConfirmations(ctx, c.network, tx, 1)
	require.NoError(t, err)
	return receipt.ContractAddress
}

func (c *simulatedChain) set(ctx context.Context, address string, value any) (*usecase.TxHandle, error) {
	return c.backend.SubmitCall(ctx, c.network, usecase.CallRequest{
		Component: "Counter",
		Artifact:  "Counter",
		Address:   address,
		Method:    "set",
		Args:      []any{value},
		From:      c.from,
	})
}

func (c *simulatedChain) stored(t *testing.T, ctx context.Context, address string) *big.Int {
	t.Helper()
	raw, err := c.sim.Client().StorageAt(ctx, common.HexToAddress(address), common.Hash{}, nil)
	require.NoError(t, err)
	return new(big.Int).SetBytes(raw)
}

func TestBackend_SimulatedChain(t *testing.T) {
	t.Run("deploys with constructor arguments", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)

		tx, err := chain.backend.SubmitDeployment(ctx, chain.network, usecase.DeploymentRequest{
			Component: "Counter",
			Artifact:  "Counter",
			Args:      []any{"42"},
			From:      chain.from,
		})
		require.NoError(t, err)
		require.True(t, common.IsHexAddress(tx.ContractAddress))
		chain.sim.Commit()

		receipt, err := chain.backend.AwaitConfirmations(ctx, chain.network, tx, 1)
		require.NoError(t, err)
		assert.Equal(t, tx.ContractAddress, receipt.ContractAddress)
		assert.Equal(t, tx.Hash, receipt.TxHash)
		assert.Equal(t, uint64(1), receipt.BlockNumber)
		assert.Equal(t, uint64(1), receipt.Confirmations)

		code, err := chain.sim.Client().CodeAt(ctx, common.HexToAddress(receipt.ContractAddress), nil)
		require.NoError(t, err)
		assert.NotEmpty(t, code)
		assert.Equal(t, int64(42), chain.stored(t, ctx, receipt.ContractAddress).Int64())
	})

	t.Run("waits for the requested depth", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)

		tx, err := chain.backend.SubmitDeployment(ctx, chain.network, usecase.DeploymentRequest{
			Component: "Counter",
			Artifact:  "Counter",
			Args:      []any{1},
			From:      chain.from,
		})
		require.NoError(t, err)
		chain.sim.Commit()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 3; i++ {
				time.Sleep(20 * time.Millisecond)
				chain.sim.Commit()
			}
		}()

		receipt, err := chain.backend.AwaitConfirmations(ctx, chain.network, tx, 3)
		<-done
		require.NoError(t, err)
		assert.GreaterOrEqual(t, receipt.Confirmations, uint64(3))
		assert.Equal(t, uint64(1), receipt.BlockNumber)
	})

	t.Run("calls a deployed contract", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)
		address := chain.deploy(t, ctx, 1)

		tx, err := chain.set(ctx, address, 5)
		require.NoError(t, err)
		chain.sim.Commit()

		receipt, err := chain.backend.AwaitConfirmations(ctx, chain.network, tx, 1)
		require.NoError(t, err)
		assert.Empty(t, receipt.ContractAddress)
		assert.Equal(t, int64(5), chain.stored(t, ctx, address).Int64())
	})

	t.Run("mined revert is reported as reverted", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)
		address := chain.deploy(t, ctx, 1)

		// Both calls pass gas estimation against slot 0 = 1; mined in order,
		// the second no longer exceeds the stored value.
		first, err := chain.set(ctx, address, 5)
		require.NoError(t, err)
		second, err := chain.set(ctx, address, 3)
		require.NoError(t, err)
		chain.sim.Commit()

		_, err = chain.backend.AwaitConfirmations(ctx, chain.network, first, 1)
		require.NoError(t, err)
		_, err = chain.backend.AwaitConfirmations(ctx, chain.network, second, 1)
		assert.ErrorIs(t, err, domain.ErrTransactionReverted)
		assert.Equal(t, int64(5), chain.stored(t, ctx, address).Int64())
	})

	t.Run("call rejected by gas estimation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)
		address := chain.deploy(t, ctx, 1)

		_, err := chain.set(ctx, address, 0)
		assert.ErrorContains(t, err, "failed to send set")
	})

	t.Run("awaits a transaction sent by another process", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)

		tx, err := chain.backend.SubmitDeployment(ctx, chain.network, usecase.DeploymentRequest{
			Component: "Counter",
			Artifact:  "Counter",
			Args:      []any{1},
			From:      chain.from,
		})
		require.NoError(t, err)
		chain.sim.Commit()

		// A fresh backend has no record of the tx and must look it up by hash
		fresh := NewBackendWithDialer(chain.backend.artifacts, chain.backend.keys, chain.backend.dial, slog.New(slog.NewTextHandler(io.Discard, nil)))
		receipt, err := fresh.AwaitConfirmations(ctx, chain.network, &usecase.TxHandle{Hash: tx.Hash}, 1)
		require.NoError(t, err)
		assert.Equal(t, tx.ContractAddress, receipt.ContractAddress)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)

		_, err := chain.backend.AwaitConfirmations(ctx, chain.network, &usecase.TxHandle{Hash: common.Hash{0x01}.Hex()}, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("chain id mismatch", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chain := newSimulatedChain(t)
		chain.network.ChainID = 11155111

		_, err := chain.backend.SubmitDeployment(ctx, chain.network, usecase.DeploymentRequest{
			Component: "Counter",
			Artifact:  "Counter",
			Args:      []any{1},
			From:      chain.from,
		})
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "chain ID mismatch: expected 11155111, got 1337")
	})

	t.Run("missing rpc url", func(t *testing.T) {
		chain := newSimulatedChain(t)
		chain.network.RPCURL = ""

		_, err := chain.backend.AwaitConfirmations(context.Background(), chain.network, &usecase.TxHandle{Hash: common.Hash{}.Hex()}, 1)
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "no RPC URL")
	})
}
