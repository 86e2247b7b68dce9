package syncstate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mezonai/lightsync/chainspec"
	lserrors "github.com/mezonai/lightsync/errors"
	"github.com/mezonai/lightsync/interfaces"
	"github.com/mezonai/lightsync/logx"
	"github.com/mezonai/lightsync/monitoring"
)

// Gate decides whether an unsafe call may proceed.
type Gate interface {
	CheckIfSafe() error
}

// Service produces chain specs carrying a fresh light sync state. It holds
// its own copy of the chain spec and never modifies it.
type Service struct {
	spec    *chainspec.ChainSpec
	builder builder
	gate    Gate

	metrics   bool
	requestID func() string
}

type Option func(*Service)

// WithoutMetrics stops the service from recording prometheus metrics.
func WithoutMetrics() Option {
	return func(s *Service) { s.metrics = false }
}

// WithRequestID overrides how request ids are generated.
func WithRequestID(fn func() string) Option {
	return func(s *Service) { s.requestID = fn }
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// New fails with ExtensionNotFound when spec does not declare a light sync
// state slot.
func New(
	spec *chainspec.ChainSpec,
	backend interfaces.Backend,
	epochChanges EpochChangesSource,
	authoritySet AuthoritySetSource,
	gate Gate,
	opts ...Option,
) (*Service, error) {
	if !spec.Extensions().Has(chainspec.LightSyncStateKind) {
		return nil, lserrors.ExtensionNotFound()
	}

	s := &Service{
		spec: spec.Clone(),
		builder: builder{
			backend:      backend,
			epochChanges: epochChanges,
			authoritySet: authoritySet,
		},
		gate:      gate,
		metrics:   true,
		requestID: newRequestID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GenerateSyncSpec returns the chain spec as JSON with the light sync state
// slot filled from the current finalized block. With raw set, genesis is
// rendered as raw storage only.
func (s *Service) GenerateSyncSpec(ctx context.Context, raw bool) (string, error) {
	start := time.Now()
	reqID := s.requestID()

	out, err := s.generate(ctx, raw)

	outcome := monitoring.OutcomeSuccess
	if err != nil {
		outcome = monitoring.SyncSpecOutcome(lserrors.CodeOf(err))
		if outcome == "" {
			outcome = "other"
		}
		logx.Warn("SYNCSTATE", "request", reqID, "raw:", raw, "failed:", err)
	} else {
		logx.Info("SYNCSTATE", "request", reqID, "raw:", raw, "generated", len(out), "bytes in", time.Since(start))
	}

	if s.metrics {
		monitoring.RecordSyncSpec(outcome, time.Since(start))
		if err == nil {
			monitoring.RecordSyncSpecSizeBytes(len(out))
		}
	}
	return out, err
}

func (s *Service) generate(ctx context.Context, raw bool) (string, error) {
	if err := s.gate.CheckIfSafe(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	state, err := s.builder.build()
	if err != nil {
		return "", err
	}
	if s.metrics {
		monitoring.SetSyncSpecFinalizedNumber(uint32(state.FinalizedBlockHeader.BlockNumber()))
	}

	value, err := Encode(state)
	if err != nil {
		return "", err
	}

	doc := s.spec.Clone()
	if err := patch(doc, value); err != nil {
		return "", err
	}

	out, err := doc.AsJSON(raw)
	if err != nil {
		return "", lserrors.SerializationFailure(err)
	}
	return out, nil
}
