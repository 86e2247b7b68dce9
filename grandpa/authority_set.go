package grandpa

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/holiman/uint256"

	"github.com/mezonai/lightsync/forktree"
	"github.com/mezonai/lightsync/types"
)

var (
	ErrEmptyAuthorities = errors.New("authority set must not be empty")
	ErrZeroWeight       = errors.New("authority weight must be non-zero")
)

type Authority struct {
	ID     types.AuthorityID
	Weight uint64
}

type DelayKindTag uint8

const (
	// DelayFinalized changes apply once the announcing block plus delay is finalized.
	DelayFinalized DelayKindTag = iota
	// DelayBest changes are forced and apply on the best chain.
	DelayBest
)

type DelayKind struct {
	Tag                 DelayKindTag
	MedianLastFinalized types.BlockNumber
}

// PendingChange is an authority set change announced at CanonHash that enacts after Delay blocks.
type PendingChange struct {
	NextAuthorities []Authority
	Delay           types.BlockNumber
	CanonHeight     types.BlockNumber
	CanonHash       types.Hash
	DelayKind       DelayKind
}

// EffectiveNumber is the block number at which the change is enacted.
func (c *PendingChange) EffectiveNumber() types.BlockNumber {
	return c.CanonHeight + c.Delay
}

func (c PendingChange) Clone() PendingChange {
	out := c
	if c.NextAuthorities != nil {
		out.NextAuthorities = make([]Authority, len(c.NextAuthorities))
		copy(out.NextAuthorities, c.NextAuthorities)
	}
	return out
}

// AuthoritySetChange records that set SetID was enacted at BlockNumber.
type AuthoritySetChange struct {
	SetID       uint64
	BlockNumber types.BlockNumber
}

type AuthoritySet struct {
	CurrentAuthorities     []Authority
	SetID                  uint64
	PendingStandardChanges forktree.Tree[PendingChange]
	PendingForcedChanges   []PendingChange
	AuthoritySetChanges    []AuthoritySetChange
}

// NewGenesisAuthoritySet builds set 0 from the genesis authorities.
func NewGenesisAuthoritySet(authorities []Authority) (*AuthoritySet, error) {
	return NewAuthoritySet(authorities, 0)
}

func NewAuthoritySet(authorities []Authority, setID uint64) (*AuthoritySet, error) {
	if len(authorities) == 0 {
		return nil, ErrEmptyAuthorities
	}
	for _, a := range authorities {
		if a.Weight == 0 {
			return nil, fmt.Errorf("authority %s: %w", a.ID, ErrZeroWeight)
		}
	}
	current := make([]Authority, len(authorities))
	copy(current, authorities)
	return &AuthoritySet{
		CurrentAuthorities:     current,
		SetID:                  setID,
		PendingStandardChanges: forktree.New[PendingChange](),
		PendingForcedChanges:   []PendingChange{},
		AuthoritySetChanges:    []AuthoritySetChange{},
	}, nil
}

// AddPendingChange records an announced change. Forced changes are kept in a
// flat list, standard ones in the fork tree under the announcing block.
func (s *AuthoritySet) AddPendingChange(change PendingChange, isDescendentOf forktree.IsDescendentOf) error {
	if len(change.NextAuthorities) == 0 {
		return ErrEmptyAuthorities
	}
	if change.DelayKind.Tag == DelayBest {
		for _, c := range s.PendingForcedChanges {
			if c.CanonHash == change.CanonHash {
				return forktree.ErrDuplicate
			}
		}
		s.PendingForcedChanges = append(s.PendingForcedChanges, change.Clone())
		return nil
	}
	_, err := s.PendingStandardChanges.Import(change.CanonHash, change.CanonHeight, change.Clone(), isDescendentOf)
	return err
}

// TotalWeight sums the current authority weights without overflow.
func (s *AuthoritySet) TotalWeight() *uint256.Int {
	total := uint256.NewInt(0)
	for _, a := range s.CurrentAuthorities {
		total.Add(total, uint256.NewInt(a.Weight))
	}
	return total
}

// Clone returns a deep copy sharing no memory with s.
func (s *AuthoritySet) Clone() *AuthoritySet {
	out := &AuthoritySet{
		CurrentAuthorities:     append([]Authority(nil), s.CurrentAuthorities...),
		SetID:                  s.SetID,
		PendingStandardChanges: s.PendingStandardChanges.Clone(PendingChange.Clone),
		PendingForcedChanges:   make([]PendingChange, len(s.PendingForcedChanges)),
		AuthoritySetChanges:    append([]AuthoritySetChange(nil), s.AuthoritySetChanges...),
	}
	for i, c := range s.PendingForcedChanges {
		out.PendingForcedChanges[i] = c.Clone()
	}
	return out
}

func (s *AuthoritySet) Encode() ([]byte, error) {
	return scale.Marshal(*s)
}

func DecodeAuthoritySet(data []byte) (*AuthoritySet, error) {
	s := AuthoritySet{}
	if err := scale.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode authority set: %w", err)
	}
	return &s, nil
}

// SharedAuthoritySet guards the live authority set of the voter.
type SharedAuthoritySet struct {
	mu    sync.RWMutex
	inner *AuthoritySet
}

func NewSharedAuthoritySet(set *AuthoritySet) *SharedAuthoritySet {
	return &SharedAuthoritySet{inner: set}
}

// CloneInner deep copies the current set under a read lock.
func (s *SharedAuthoritySet) CloneInner() *AuthoritySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Clone()
}

// SetID reads the current set id.
func (s *SharedAuthoritySet) SetID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.SetID
}

// Update runs fn with exclusive access.
func (s *SharedAuthoritySet) Update(fn func(set *AuthoritySet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.inner)
}
