package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// EntitlementRepositoryPG implements domain.EntitlementRepository
// backed by PostgreSQL. All balance mutations are single conditional
// statements so concurrent spends can never overdraw a row.
type EntitlementRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewEntitlementRepository creates a new EntitlementRepositoryPG.
func NewEntitlementRepository(pool *pgxpool.Pool) *EntitlementRepositoryPG {
	return &EntitlementRepositoryPG{pool: pool}
}

const entitlementColumns = `user_id, plan, credits_remaining, voice_credits_remaining, free_trial_used, last_reset_at, created_at, updated_at`

// Get fetches the entitlement record for a user.
func (r *EntitlementRepositoryPG) Get(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entitlementColumns+` FROM user_credits WHERE user_id = $1`, userID)
	return scanEntitlement(row)
}

// Create inserts a new record. The primary key on user_id makes the
// insert race-safe: a concurrent winner leaves this statement with no
// returned row, reported as ErrDuplicateOperation.
func (r *EntitlementRepositoryPG) Create(ctx context.Context, record *domain.EntitlementRecord) (*domain.EntitlementRecord, error) {
	query := `
INSERT INTO user_credits (user_id, plan, credits_remaining, voice_credits_remaining, free_trial_used, last_reset_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO NOTHING
RETURNING ` + entitlementColumns + `;
`
	row := r.pool.QueryRow(ctx, query,
		record.UserID,
		record.Plan,
		record.CreditsRemaining,
		record.VoiceCreditsRemaining,
		record.FreeTrialUsed,
		record.LastResetAt,
	)

	created, err := scanEntitlement(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrDuplicateOperation
	}
	return created, err
}

// SpendCredits decrements one balance, guarded so the stored value can
// never go negative. Zero affected rows means the guard failed.
func (r *EntitlementRepositoryPG) SpendCredits(ctx context.Context, userID string, kind domain.FeatureKind, cost int) (*domain.EntitlementRecord, error) {
	column := "credits_remaining"
	if kind == domain.FeatureVoice {
		column = "voice_credits_remaining"
	}

	query := fmt.Sprintf(`
UPDATE user_credits
SET %[1]s = %[1]s - $2, updated_at = NOW()
WHERE user_id = $1 AND %[1]s >= $2
RETURNING %[2]s;
`, column, entitlementColumns)

	record, err := scanEntitlement(r.pool.QueryRow(ctx, query, userID, cost))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInsufficientCredits
	}
	return record, err
}

// ConsumeFreeTrial claims the one-time trial. The WHERE clause is the
// race guard: only one request ever observes free_trial_used = false.
func (r *EntitlementRepositoryPG) ConsumeFreeTrial(ctx context.Context, userID string) (*domain.EntitlementRecord, error) {
	query := `
UPDATE user_credits
SET free_trial_used = TRUE, updated_at = NOW()
WHERE user_id = $1 AND free_trial_used = FALSE
RETURNING ` + entitlementColumns + `;
`
	record, err := scanEntitlement(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrTrialConsumed
	}
	return record, err
}

// ResetDailyCredits restores the daily quota for free-plan rows whose
// last reset happened before today.
func (r *EntitlementRepositoryPG) ResetDailyCredits(ctx context.Context, quota int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE user_credits
SET credits_remaining = $1, last_reset_at = NOW(), updated_at = NOW()
WHERE plan = 'free' AND last_reset_at::date < CURRENT_DATE;
`, quota)
	if err != nil {
		return 0, fmt.Errorf("reset daily credits: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntitlement(row pgx.Row) (*domain.EntitlementRecord, error) {
	var rec domain.EntitlementRecord
	if err := row.Scan(
		&rec.UserID,
		&rec.Plan,
		&rec.CreditsRemaining,
		&rec.VoiceCreditsRemaining,
		&rec.FreeTrialUsed,
		&rec.LastResetAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

var _ domain.EntitlementRepository = (*EntitlementRepositoryPG)(nil)
