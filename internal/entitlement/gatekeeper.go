package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Gatekeeper resolves a user's ledger row, runs the decision rules and
// applies the resulting mutation through the repository's conditional
// updates. It is the only component allowed to mutate balances.
type Gatekeeper struct {
	repo     domain.EntitlementRepository
	resolver *Resolver
	logger   zerolog.Logger
}

func NewGatekeeper(repo domain.EntitlementRepository, logger zerolog.Logger) *Gatekeeper {
	return &Gatekeeper{
		repo:     repo,
		resolver: NewResolver(repo),
		logger:   logger,
	}
}

// Snapshot ensures a record exists for userID and returns it without
// deciding or mutating anything.
func (g *Gatekeeper) Snapshot(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	return g.resolver.EnsureRecord(ctx, userID)
}

// Authorize decides one access attempt and commits its mutation. When
// a conditional update loses a race (trial already claimed, balance
// drained by a concurrent spend) the decision is recomputed against
// fresh state rather than served stale.
func (g *Gatekeeper) Authorize(ctx context.Context, userID string, req Request) (*domain.AccessResult, error) {
	if req.Cost < 0 {
		return nil, fmt.Errorf("%w: negative cost %d", domain.ErrInvalidInput, req.Cost)
	}
	if req.Kind != domain.FeatureDaily && req.Kind != domain.FeatureVoice {
		return nil, fmt.Errorf("%w: unknown feature kind %q", domain.ErrInvalidInput, req.Kind)
	}

	record, err := g.resolver.EnsureRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	// At most two passes: the second only runs after a lost trial
	// race, with free_trial_used now observed true.
	for attempt := 0; attempt < 2; attempt++ {
		decision := Decide(record, req)
		if !decision.Allow {
			return &domain.AccessResult{Allow: false, Mode: decision.Mode, Record: record}, nil
		}

		switch {
		case decision.ConsumeTrial:
			updated, err := g.repo.ConsumeFreeTrial(ctx, userID)
			if errors.Is(err, domain.ErrTrialConsumed) {
				g.logger.Debug().Str("user_id", userID).Msg("free trial lost to concurrent request")
				record, err = g.repo.Get(ctx, userID)
				if err != nil {
					return nil, fmt.Errorf("refetch after trial conflict: %w", err)
				}
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("consume free trial: %w", err)
			}
			return &domain.AccessResult{Allow: true, Mode: domain.ModeFreeTrial, Record: updated}, nil

		case decision.Spend > 0:
			updated, err := g.repo.SpendCredits(ctx, userID, req.Kind, decision.Spend)
			if errors.Is(err, domain.ErrInsufficientCredits) {
				// The guard failed at commit time: balance was drained
				// between decide and update. Report a fresh deny.
				record, err = g.repo.Get(ctx, userID)
				if err != nil {
					return nil, fmt.Errorf("refetch after spend conflict: %w", err)
				}
				return &domain.AccessResult{Allow: false, Mode: domain.ModeNoCredits, Record: record}, nil
			}
			if err != nil {
				return nil, fmt.Errorf("spend credits: %w", err)
			}
			return &domain.AccessResult{Allow: true, Mode: domain.ModePaid, Record: updated}, nil

		default:
			// VIP and zero-cost requests never write.
			return &domain.AccessResult{Allow: true, Mode: decision.Mode, Record: record}, nil
		}
	}

	return nil, fmt.Errorf("authorize %s: decision did not converge", userID)
}
