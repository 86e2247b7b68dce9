package syncstate

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mezonai/lightsync/babe"
	lserrors "github.com/mezonai/lightsync/errors"
	"github.com/mezonai/lightsync/grandpa"
	"github.com/mezonai/lightsync/jsonx"
	"github.com/mezonai/lightsync/types"
)

// lightSyncStateJSON is the extension value. Field order is part of the format.
type lightSyncStateJSON struct {
	FinalizedBlockHeader     string `json:"finalizedBlockHeader"`
	BabeEpochChanges         string `json:"babeEpochChanges"`
	BabeFinalizedBlockWeight uint32 `json:"babeFinalizedBlockWeight"`
	GrandpaAuthoritySet      string `json:"grandpaAuthoritySet"`
}

func encodeHex(what string, encode func() ([]byte, error)) (string, error) {
	data, err := encode()
	if err != nil {
		return "", lserrors.EncodingFailure(what, err)
	}
	return "0x" + hex.EncodeToString(data), nil
}

func decodeHex(what, s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%s: missing 0x prefix", what)
	}
	data, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return data, nil
}

// Encode renders the snapshot as the JSON value of the light sync state extension.
func Encode(state *LightSyncState) (jsonx.RawMessage, error) {
	var (
		out lightSyncStateJSON
		err error
	)

	if out.FinalizedBlockHeader, err = encodeHex("finalized block header", state.FinalizedBlockHeader.Encode); err != nil {
		return nil, err
	}
	if out.BabeEpochChanges, err = encodeHex("babe epoch changes", state.BabeEpochChanges.Encode); err != nil {
		return nil, err
	}
	out.BabeFinalizedBlockWeight = uint32(state.BabeFinalizedBlockWeight)
	if out.GrandpaAuthoritySet, err = encodeHex("grandpa authority set", state.GrandpaAuthoritySet.Encode); err != nil {
		return nil, err
	}

	value, err := jsonx.Marshal(out)
	if err != nil {
		return nil, lserrors.EncodingFailure("light sync state", err)
	}
	return value, nil
}

// DecodeLightSyncState parses an extension value produced by Encode.
func DecodeLightSyncState(value jsonx.RawMessage) (*LightSyncState, error) {
	if jsonx.IsNull(value) {
		return nil, fmt.Errorf("light sync state is empty")
	}

	var in lightSyncStateJSON
	if err := jsonx.Unmarshal(value, &in); err != nil {
		return nil, fmt.Errorf("parse light sync state: %w", err)
	}

	raw, err := decodeHex("finalizedBlockHeader", in.FinalizedBlockHeader)
	if err != nil {
		return nil, err
	}
	header, err := types.DecodeHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("finalizedBlockHeader: %w", err)
	}

	if raw, err = decodeHex("babeEpochChanges", in.BabeEpochChanges); err != nil {
		return nil, err
	}
	epochChanges, err := babe.DecodeEpochChanges(raw)
	if err != nil {
		return nil, fmt.Errorf("babeEpochChanges: %w", err)
	}

	if raw, err = decodeHex("grandpaAuthoritySet", in.GrandpaAuthoritySet); err != nil {
		return nil, err
	}
	authoritySet, err := grandpa.DecodeAuthoritySet(raw)
	if err != nil {
		return nil, fmt.Errorf("grandpaAuthoritySet: %w", err)
	}

	return &LightSyncState{
		FinalizedBlockHeader:     header,
		BabeEpochChanges:         epochChanges,
		BabeFinalizedBlockWeight: babe.BlockWeight(in.BabeFinalizedBlockWeight),
		GrandpaAuthoritySet:      authoritySet,
	}, nil
}
