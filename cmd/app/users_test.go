package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantAdminHelpExplainsCacheScope(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"users", "grant-admin"})
	require.NoError(t, err)
	assert.Equal(t, grantAdminCmd, cmd)
	assert.Contains(t, cmd.Long, "REDIS_URL")
	assert.Contains(t, cmd.Long, "5 minutes")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{{"serve"}, {"subscriptions", "downgrade"}, {"users", "grant-admin"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
