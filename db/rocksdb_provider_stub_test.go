//go:build !rocksdb

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRocksDBProviderNotBuiltIn(t *testing.T) {
	provider, err := NewRocksDBProvider("data/chain")
	require.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "data/chain")
	assert.Contains(t, err.Error(), "-tags rocksdb")
}
