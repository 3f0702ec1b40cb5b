package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/sqlinline"
)

// resolveUser maps an email to the identity provider's user ID,
// writing the error response itself on failure. A miss never creates
// an identity.
func (a *App) resolveUser(w http.ResponseWriter, r *http.Request, email string) (*domain.DirectoryUser, bool) {
	if email == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email required")
		return nil, false
	}
	user, err := a.Directory.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Msg("identity lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "identity lookup failed")
		return nil, false
	}
	return user, true
}

// recordUsage appends one audit row for a gate decision. Best effort:
// a failed insert is logged, never surfaced to the caller.
func (a *App) recordUsage(ctx context.Context, userID, eventType string, result *domain.AccessResult, cost int, start time.Time) {
	if a.SQL == nil {
		return
	}

	props := map[string]any{
		"mode": string(result.Mode),
		"cost": cost,
	}
	if country := middleware.CountryFromContext(ctx); country != "" {
		props["country"] = country
	}
	propsJSON, _ := json.Marshal(props)

	_, err := a.SQL.Exec(ctx, sqlinline.QInsertUsageEvent,
		userID,
		middleware.RequestIDFromContext(ctx),
		eventType,
		string(result.Mode),
		result.Allow,
		int(time.Since(start).Milliseconds()),
		propsJSON,
	)
	if err != nil {
		a.Logger.Error().Err(err).Str("event_type", eventType).Msg("record usage event failed")
	}
}
