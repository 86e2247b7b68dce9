package syncstate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/lightsync/jsonx"
)

func testState(t *testing.T) *LightSyncState {
	return &LightSyncState{
		FinalizedBlockHeader:     testHeader(),
		BabeEpochChanges:         testEpochChanges(t).Snapshot(),
		BabeFinalizedBlockWeight: 7,
		GrandpaAuthoritySet:      testAuthoritySet(t).CloneInner(),
	}
}

func TestEncodeFieldOrder(t *testing.T) {
	value, err := Encode(testState(t))
	require.NoError(t, err)

	s := string(value)
	header := strings.Index(s, `"finalizedBlockHeader":"0x`)
	epochs := strings.Index(s, `"babeEpochChanges":"0x`)
	weight := strings.Index(s, `"babeFinalizedBlockWeight":7`)
	authorities := strings.Index(s, `"grandpaAuthoritySet":"0x`)
	require.True(t, header >= 0 && epochs >= 0 && weight >= 0 && authorities >= 0, s)
	assert.Less(t, header, epochs)
	assert.Less(t, epochs, weight)
	assert.Less(t, weight, authorities)
}

func TestDecodeLightSyncState(t *testing.T) {
	state := testState(t)
	value, err := Encode(state)
	require.NoError(t, err)

	decoded, err := DecodeLightSyncState(value)
	require.NoError(t, err)

	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(value), string(again))
	assert.Equal(t, uint(42), decoded.FinalizedBlockHeader.Number)
}

func TestDecodeLightSyncStateRejectsBadInput(t *testing.T) {
	inputs := []string{
		`null`,
		`{"finalizedBlockHeader":"aa"}`,
		`{"finalizedBlockHeader":"0xzz"}`,
		`[1,2]`,
	}
	for _, in := range inputs {
		_, err := DecodeLightSyncState(jsonx.RawMessage(in))
		assert.Error(t, err, in)
	}
}
