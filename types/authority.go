package types

import (
	"github.com/mezonai/lightsync/common"
)

const AuthorityIDLength = 32

// AuthorityID is the public key of a consensus authority. Its text form is base58.
type AuthorityID [AuthorityIDLength]byte

func (a AuthorityID) String() string {
	return common.EncodeBytesToBase58(a[:])
}

func (a AuthorityID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AuthorityID) UnmarshalText(text []byte) error {
	parsed, err := ParseAuthorityID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAuthorityID decodes a base58 public key.
func ParseAuthorityID(s string) (AuthorityID, error) {
	raw, err := common.DecodeBase58Fixed(s, AuthorityIDLength)
	if err != nil {
		return AuthorityID{}, err
	}
	var id AuthorityID
	copy(id[:], raw)
	return id, nil
}
