package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *LevelDBProvider {
	t.Helper()
	p, err := NewMemLevelDBProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestLevelDBGetMissingKey(t *testing.T) {
	p := newTestProvider(t)

	value, err := p.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, value)

	ok, err := p.Has([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLevelDBPutDelete(t *testing.T) {
	p := newTestProvider(t)

	require.NoError(t, p.Put([]byte("k"), []byte("v")))
	value, err := p.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, p.Delete([]byte("k")))
	ok, err := p.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIteratePrefix(t *testing.T) {
	p := newTestProvider(t)
	require.NoError(t, p.Put([]byte("aux:a"), []byte("1")))
	require.NoError(t, p.Put([]byte("aux:b"), []byte("2")))
	require.NoError(t, p.Put([]byte("hdr:c"), []byte("3")))

	var keys []string
	require.NoError(t, p.IteratePrefix([]byte("aux:"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	}))
	assert.Equal(t, []string{"aux:a", "aux:b"}, keys)

	count := 0
	require.NoError(t, p.IteratePrefix([]byte("aux:"), func(key, value []byte) bool {
		count++
		return false
	}))
	assert.Equal(t, 1, count)
}

func TestWithBatchCommitsOrDiscards(t *testing.T) {
	p := newTestProvider(t)
	tm := NewDBTxManager(p)

	require.NoError(t, tm.WithBatch(func(b DatabaseBatch) error {
		b.Put([]byte("a"), []byte("1"))
		b.Put([]byte("b"), []byte("2"))
		return nil
	}))
	value, err := p.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), value)

	boom := errors.New("boom")
	err = tm.WithBatch(func(b DatabaseBatch) error {
		b.Put([]byte("c"), []byte("3"))
		b.Delete([]byte("a"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	ok, err := p.Has([]byte("c"))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = p.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisKeyConversion(t *testing.T) {
	key := append([]byte("hdr:"), 0x00, 0xff)
	redisKey := toRedisKey(key)
	assert.Equal(t, "hdr:00ff", redisKey)
	assert.Equal(t, key, fromRedisKey(redisKey))

	assert.Equal(t, "meta:best", toRedisKey([]byte("meta:best")))
	assert.Equal(t, []byte("meta:best"), fromRedisKey("meta:best"))
}
