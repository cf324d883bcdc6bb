package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{
		Subject:     "sepola",
		Err:         ErrUnknownNetwork,
		Suggestions: []string{"sepolia"},
	}
	assert.Equal(t, "configuration error (sepola): unknown network (did you mean: sepolia?)", err.Error())
	assert.ErrorIs(t, err, ErrUnknownNetwork)

	plain := &ConfigurationError{Subject: "plan", Reason: "plan has no components"}
	assert.Equal(t, "configuration error (plan): plan has no components", plain.Error())
}

func TestDeploymentErrorMessage(t *testing.T) {
	err := &DeploymentError{Component: "Token", TxHash: "0xabc", Err: ErrTransactionReverted}
	assert.Equal(t, "deployment of Token failed (tx 0xabc): transaction reverted", err.Error())
	assert.ErrorIs(t, err, ErrTransactionReverted)

	noTx := &DeploymentError{Component: "Token", Err: errors.New("insufficient funds")}
	assert.Equal(t, "deployment of Token failed: insufficient funds", noTx.Error())
}

func TestDeploymentErrorPending(t *testing.T) {
	unconfirmed := &DeploymentError{Component: "Token", TxHash: "0xabc", Address: "0xdef", Err: fmt.Errorf("waiting: %w", context.DeadlineExceeded)}
	assert.True(t, unconfirmed.Pending())

	reverted := &DeploymentError{Component: "Token", TxHash: "0xabc", Address: "0xdef", Err: fmt.Errorf("receipt: %w", ErrTransactionReverted)}
	assert.False(t, reverted.Pending())

	rejected := &DeploymentError{Component: "Token", Err: errors.New("insufficient funds")}
	assert.False(t, rejected.Pending())
}
