package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/lightsync/jsonx"
)

type fakeHash string

func (h fakeHash) String() string { return string(h) }

func TestIsMatchesByCode(t *testing.T) {
	err := BlockWeightMissing(fakeHash("0xaa"))

	assert.True(t, stderrors.Is(err, ErrBlockWeightMissing))
	assert.False(t, stderrors.Is(err, ErrMissingFinalizedHeader))
	assert.Equal(t, "Failed to load the block weight for block 0xaa", err.Error())
}

func TestWrapKeepsCauseAndExistingKind(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := Wrap(ErrCodeBackend, cause, "failed to read header")

	assert.True(t, stderrors.Is(err, ErrBackend))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "failed to read header: disk on fire", err.Error())

	inner := ExtensionNotFound()
	wrapped := Wrap(ErrCodeBackend, fmt.Errorf("context: %w", inner), "ignored")
	assert.Equal(t, ErrCodeExtensionNotFound, CodeOf(wrapped))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "unsafe", err: UnsafeCallRejected(), want: ErrCodeUnsafeCallRejected},
		{name: "wrapped with fmt", err: fmt.Errorf("rpc: %w", ExtensionNotFound()), want: ErrCodeExtensionNotFound},
		{name: "encoding", err: EncodingFailure("header", fmt.Errorf("bad")), want: ErrCodeEncodingFailure},
		{name: "plain error", err: fmt.Errorf("plain"), want: ""},
		{name: "nil", err: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestJSONWireForm(t *testing.T) {
	e := &SyncStateError{Code: ErrCodeUnsafeCallRejected, Message: ErrMsgUnsafeCallRejected}

	var decoded map[string]string
	require.NoError(t, jsonx.Unmarshal(e.JSON(), &decoded))
	assert.Equal(t, "unsafe_call_rejected", decoded["code"])
	assert.Equal(t, ErrMsgUnsafeCallRejected, decoded["message"])
}
