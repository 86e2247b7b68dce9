package rpcmethods

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lserrors "github.com/mezonai/lightsync/errors"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		policy Policy
		addr   string
		want   DenyUnsafe
	}{
		{PolicyUnsafe, "0.0.0.0:9933", AllowUnsafeCalls},
		{PolicySafe, "127.0.0.1:9933", DenyUnsafeCalls},
		{PolicyAuto, "127.0.0.1:9933", AllowUnsafeCalls},
		{PolicyAuto, "localhost:9933", AllowUnsafeCalls},
		{PolicyAuto, "[::1]:9933", AllowUnsafeCalls},
		{PolicyAuto, "0.0.0.0:9933", DenyUnsafeCalls},
		{PolicyAuto, ":9933", DenyUnsafeCalls},
		{PolicyAuto, "10.1.2.3:9933", DenyUnsafeCalls},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy)+" "+tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.policy, tt.addr))
		})
	}
}

func TestCheckIfSafe(t *testing.T) {
	assert.NoError(t, AllowUnsafeCalls.CheckIfSafe())

	err := DenyUnsafeCalls.CheckIfSafe()
	require.Error(t, err)
	assert.ErrorIs(t, err, lserrors.ErrUnsafeCallRejected)
	assert.Equal(t, "RPC call is unsafe to be called externally", err.Error())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Unsafe")
	require.NoError(t, err)
	assert.Equal(t, PolicyUnsafe, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAuto, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}
