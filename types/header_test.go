package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() *Header {
	return &Header{
		ParentHash:     Hash{0x01},
		Number:         42,
		StateRoot:      Hash{0x02},
		ExtrinsicsRoot: Hash{0x03},
		Digest: Digest{Logs: []DigestItem{
			{Kind: DigestItemPreRuntime, Engine: BabeEngineID, Data: []byte{1, 2, 3}},
			{Kind: DigestItemSeal, Engine: BabeEngineID, Data: []byte{9}},
		}},
	}
}

func TestHeaderHashIsStable(t *testing.T) {
	h := sampleHeader()

	first, err := h.Hash()
	require.NoError(t, err)
	second, err := h.Clone().Hash()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	h.Number = 43
	changed, err := h.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestHeaderEncodeDecode(t *testing.T) {
	h := sampleHeader()
	enc, err := h.Encode()
	require.NoError(t, err)

	decoded, err := DecodeHeader(enc)
	require.NoError(t, err)
	assert.Equal(t, h.Number, decoded.Number)
	assert.Equal(t, h.ParentHash, decoded.ParentHash)
	require.Len(t, decoded.Digest.Logs, 2)
	assert.Equal(t, []byte{1, 2, 3}, decoded.Digest.Logs[0].Data)

	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, enc, again)
}

func TestCloneIsDeep(t *testing.T) {
	h := sampleHeader()
	c := h.Clone()
	c.Digest.Logs[0].Data[0] = 0xff

	assert.Equal(t, byte(1), h.Digest.Logs[0].Data[0])
}

func TestHashHex(t *testing.T) {
	h := Hash{0xaa}
	s := h.String()
	assert.Equal(t, "0xaa00000000000000000000000000000000000000000000000000000000000000", s)

	parsed, err := HashFromHex(s)
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = HashFromHex("0x1234")
	assert.Error(t, err)
}

func TestAuthorityIDText(t *testing.T) {
	var id AuthorityID
	for i := range id {
		id[i] = byte(200 - i)
	}
	text, err := id.MarshalText()
	require.NoError(t, err)

	var back AuthorityID
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, id, back)

	_, err = ParseAuthorityID("abc")
	assert.Error(t, err)
}
