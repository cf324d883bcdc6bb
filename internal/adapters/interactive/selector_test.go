package interactive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

func TestCreateFuzzySearchFunc(t *testing.T) {
	items := []string{"sepolia", "mainnet", "localhost"}
	search := createFuzzySearchFunc(items)

	assert.True(t, search("", 0))
	assert.True(t, search("SEP", 0))
	assert.True(t, search("mnt", 1))
	assert.False(t, search("xyz", 2))
}

func TestSelectorAdapter_NonInteractive(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})

	ok, err := s.Confirm(context.Background(), "Deploy?")
	assert.NoError(t, err)
	assert.True(t, ok)

	_, err = s.SelectNetwork(context.Background(), []string{"sepolia", "mainnet"})
	assert.Error(t, err)
}
