package types

import (
	"fmt"
	"math"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"golang.org/x/crypto/blake2b"
)

// ConsensusEngineID tags digest items with the engine that produced them.
type ConsensusEngineID [4]byte

var (
	BabeEngineID    = ConsensusEngineID{'B', 'A', 'B', 'E'}
	GrandpaEngineID = ConsensusEngineID{'F', 'R', 'N', 'K'}
)

// DigestItemKind follows the discriminants used on the wire by substrate-based chains.
type DigestItemKind uint8

const (
	DigestItemOther                     DigestItemKind = 0
	DigestItemConsensus                 DigestItemKind = 4
	DigestItemSeal                      DigestItemKind = 5
	DigestItemPreRuntime                DigestItemKind = 6
	DigestItemRuntimeEnvironmentUpdated DigestItemKind = 8
)

type DigestItem struct {
	Kind   DigestItemKind
	Engine ConsensusEngineID
	Data   []byte
}

type Digest struct {
	Logs []DigestItem
}

// Header is a block header. Number is a uint so the codec writes it in compact form.
type Header struct {
	ParentHash     Hash
	Number         uint
	StateRoot      Hash
	ExtrinsicsRoot Hash
	Digest         Digest
}

// Encode returns the canonical encoding of the header.
func (h *Header) Encode() ([]byte, error) {
	return scale.Marshal(*h)
}

// Hash is blake2b-256 over the canonical encoding.
func (h *Header) Hash() (Hash, error) {
	enc, err := h.Encode()
	if err != nil {
		return Hash{}, fmt.Errorf("encode header: %w", err)
	}
	return Hash(blake2b.Sum256(enc)), nil
}

// MaxBlockNumber is the largest header number BlockNumber can hold.
const MaxBlockNumber = math.MaxUint32

// BlockNumber narrows Number. Stores reject headers above MaxBlockNumber, so
// for any stored header the conversion is exact.
func (h *Header) BlockNumber() BlockNumber {
	return BlockNumber(h.Number)
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	if h == nil {
		return nil
	}
	out := *h
	if h.Digest.Logs != nil {
		out.Digest.Logs = make([]DigestItem, len(h.Digest.Logs))
		for i, item := range h.Digest.Logs {
			out.Digest.Logs[i] = DigestItem{
				Kind:   item.Kind,
				Engine: item.Engine,
				Data:   append([]byte(nil), item.Data...),
			}
		}
	}
	return &out
}

// DecodeHeader is the inverse of Encode.
func DecodeHeader(data []byte) (*Header, error) {
	var h Header
	if err := scale.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	return &h, nil
}

// ChainInfo is the backend's view of the chain tips.
type ChainInfo struct {
	GenesisHash     Hash
	BestHash        Hash
	BestNumber      BlockNumber
	FinalizedHash   Hash
	FinalizedNumber BlockNumber
}
