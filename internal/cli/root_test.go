package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command in a fresh project directory
func runCLI(t *testing.T, projectToml string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	if projectToml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "govdeploy.toml"), []byte(projectToml), 0644))
	}
	t.Chdir(dir)
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("ETHERSCAN_API_KEY", "")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"deploy", "show", "networks", "version"})

	deploy, _, err := cmd.Find([]string{"deploy"})
	require.NoError(t, err)
	for _, flag := range []string{"plan", "resume", "timeout"} {
		assert.NotNil(t, deploy.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("network"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("non-interactive"))
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "govdeploy version dev")
}

func TestNetworksCmd(t *testing.T) {
	out, err := runCLI(t, `
[networks.sepolia]
rpc_url = "https://sepolia.example/rpc"
verify = true
`, "networks", "--non-interactive")
	require.NoError(t, err)

	assert.Contains(t, out, "sepolia")
	assert.Contains(t, out, "Chain ID: 11155111")
	assert.Contains(t, out, "hardhat")
	assert.Contains(t, out, "development")
}

func TestDeployCmdRequiresNetworkWhenNonInteractive(t *testing.T) {
	_, err := runCLI(t, "", "deploy", "--non-interactive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--network is required")
}

func TestDeployCmdRequiresDeployer(t *testing.T) {
	_, err := runCLI(t, "", "deploy", "--network", "hardhat", "--non-interactive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no deployer configured")
}

func TestShowCmdWithoutRunOutput(t *testing.T) {
	_, err := runCLI(t, "", "show", "--network", "sepolia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExecuteReleasesAfterFailure(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("ETHERSCAN_API_KEY", "")

	var order []string
	registered := 0
	rel := &releaser{}
	rel.add(func() {
		order = append(order, "first")
		registered = len(rel.fns)
	})

	cmd := newRootCmd(rel)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"deploy", "--network", "hardhat", "--non-interactive"})

	err := execute(context.Background(), cmd, rel)
	require.ErrorContains(t, err, "no deployer configured")

	// The app registered its cleanup after ours; all of them ran
	assert.Equal(t, []string{"first"}, order)
	assert.GreaterOrEqual(t, registered, 2)
	assert.Empty(t, rel.fns)

	rel.release()
	assert.Equal(t, []string{"first"}, order)
}

func TestReleaserRunsInReverseOrder(t *testing.T) {
	var order []string
	rel := &releaser{}
	rel.add(func() { order = append(order, "backend") })
	rel.add(func() { order = append(order, "timeout") })

	rel.release()
	rel.release()
	assert.Equal(t, []string{"timeout", "backend"}, order)
}
