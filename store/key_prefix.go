package store

// Declare database key prefix for objects
const (
	// PrefixHeader + <32-byte hash> => SCALE encoded header
	PrefixHeader = "hdr:"
	// PrefixNumber + <4-byte big-endian number> => 32-byte canonical hash
	PrefixNumber = "num:"
	// PrefixAux + <consensus key> => consensus auxiliary value
	PrefixAux = "aux:"

	PrefixChainMeta       = "meta:"
	ChainMetaKeyGenesis   = "genesis"
	ChainMetaKeyBest      = "best"
	ChainMetaKeyFinalized = "finalized"
)
