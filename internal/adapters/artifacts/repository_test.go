package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/govdeploy/internal/domain"
)

const tokenABI = `[{"type":"constructor","inputs":[]},{"type":"function","name":"delegate","inputs":[{"name":"delegatee","type":"address"}],"outputs":[],"stateMutability":"nonpayable"}]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRepository_LoadFoundry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "GovernanceToken.sol"), "contract GovernanceToken {}")

	metadata := `{"compiler":{"version":"0.8.24+commit.e11b9ed9"},"language":"Solidity",` +
		`"settings":{"compilationTarget":{"src/GovernanceToken.sol":"GovernanceToken"},"evmVersion":"paris",` +
		`"optimizer":{"enabled":true,"runs":200},"remappings":["@oz/=lib/oz/"]},` +
		`"sources":{"src/GovernanceToken.sol":{"keccak256":"0x00"}}}`
	artifact, err := json.Marshal(map[string]any{
		"abi":         json.RawMessage(tokenABI),
		"bytecode":    map[string]string{"object": "0x6080"},
		"rawMetadata": metadata,
	})
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "out", "GovernanceToken.sol", "GovernanceToken.json"), string(artifact))

	repo := NewRepositoryAt(root, DefaultDirs)
	a, err := repo.Load("GovernanceToken")
	require.NoError(t, err)

	assert.Equal(t, []byte{0x60, 0x80}, a.Bytecode)
	assert.Contains(t, a.ABI.Methods, "delegate")
	assert.Equal(t, "v0.8.24+commit.e11b9ed9", a.CompilerVersion)
	assert.Equal(t, "src/GovernanceToken.sol:GovernanceToken", a.FullyQualifiedName())

	var input struct {
		Language string                       `json:"language"`
		Sources  map[string]map[string]string `json:"sources"`
		Settings map[string]json.RawMessage   `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(a.StandardInput, &input))
	assert.Equal(t, "Solidity", input.Language)
	assert.Equal(t, "contract GovernanceToken {}", input.Sources["src/GovernanceToken.sol"]["content"])
	assert.JSONEq(t, `{"enabled":true,"runs":200}`, string(input.Settings["optimizer"]))
	assert.JSONEq(t, `"paris"`, string(input.Settings["evmVersion"]))

	again, err := repo.Load("GovernanceToken")
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestRepository_LoadHardhat(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "artifacts", "contracts", "TimeLock.sol")

	artifact, err := json.Marshal(map[string]any{
		"contractName": "TimeLock",
		"sourceName":   "contracts/TimeLock.sol",
		"abi":          json.RawMessage(`[]`),
		"bytecode":     "0x6001",
	})
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "TimeLock.json"), string(artifact))
	writeFile(t, filepath.Join(dir, "TimeLock.dbg.json"), `{"buildInfo":"../../build-info/abc.json"}`)
	writeFile(t, filepath.Join(root, "artifacts", "build-info", "abc.json"),
		`{"solcLongVersion":"0.8.24+commit.e11b9ed9","input":{"language":"Solidity","sources":{"contracts/TimeLock.sol":{"content":"x"}}}}`)

	a, err := NewRepositoryAt(root, DefaultDirs).Load("TimeLock")
	require.NoError(t, err)

	assert.Equal(t, []byte{0x60, 0x01}, a.Bytecode)
	assert.Equal(t, "contracts/TimeLock.sol:TimeLock", a.FullyQualifiedName())
	assert.Equal(t, "v0.8.24+commit.e11b9ed9", a.CompilerVersion)
	assert.JSONEq(t, `{"language":"Solidity","sources":{"contracts/TimeLock.sol":{"content":"x"}}}`, string(a.StandardInput))
}

func TestRepository_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		_, err := NewRepositoryAt(t.TempDir(), DefaultDirs).Load("Missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ambiguous", func(t *testing.T) {
		root := t.TempDir()
		body := `{"abi":[],"bytecode":"0x"}`
		writeFile(t, filepath.Join(root, "out", "A.sol", "Token.json"), body)
		writeFile(t, filepath.Join(root, "out", "B.sol", "Token.json"), body)

		_, err := NewRepositoryAt(root, DefaultDirs).Load("Token")
		assert.ErrorContains(t, err, "ambiguous")
	})

	t.Run("unlinked libraries", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "out", "Lib.sol", "Uses.json"),
			`{"abi":[],"bytecode":{"object":"0x6080__$abcdef$__"}}`)

		_, err := NewRepositoryAt(root, DefaultDirs).Load("Uses")
		assert.ErrorContains(t, err, "unlinked library")
	})
}
