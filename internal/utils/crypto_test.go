package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckMPIN(t *testing.T) {
	hash, err := HashMPIN("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	assert.True(t, CheckMPIN("1234", hash))
	assert.False(t, CheckMPIN("4321", hash))
	assert.False(t, CheckMPIN("1234", "not-a-hash"))
}
