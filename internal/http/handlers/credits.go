package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/entitlement"
)

type creditsCheckResponse struct {
	OK                    bool      `json:"ok"`
	UserID                string    `json:"user_id"`
	Email                 string    `json:"email"`
	Plan                  string    `json:"plan"`
	CreditsRemaining      int       `json:"credits_remaining"`
	VoiceCreditsRemaining int       `json:"voice_credits_remaining"`
	LastResetAt           time.Time `json:"last_reset_at"`
}

// CreditsCheck reports the caller's balances, lazily creating the
// default record on first sight of the user.
func (a *App) CreditsCheck(w http.ResponseWriter, r *http.Request) {
	user, ok := a.resolveUser(w, r, r.URL.Query().Get("email"))
	if !ok {
		return
	}

	record, err := a.Gate.Snapshot(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("ensure entitlement record failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load credits")
		return
	}

	a.json(w, http.StatusOK, creditsCheckResponse{
		OK:                    true,
		UserID:                record.UserID,
		Email:                 user.Email,
		Plan:                  string(record.Plan),
		CreditsRemaining:      record.CreditsRemaining,
		VoiceCreditsRemaining: record.VoiceCreditsRemaining,
		LastResetAt:           record.LastResetAt,
	})
}

type creditsSpendRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	Cost  *int   `json:"cost"`
}

type creditsSpendResponse struct {
	OK                    bool   `json:"ok"`
	Plan                  string `json:"plan"`
	CreditsRemaining      int    `json:"credits_remaining"`
	VoiceCreditsRemaining int    `json:"voice_credits_remaining"`
	SkippedDecrement      bool   `json:"skipped_decrement,omitempty"`
}

type creditsDeniedResponse struct {
	Error                 string `json:"error"`
	Mode                  string `json:"mode"`
	Plan                  string `json:"plan"`
	CreditsRemaining      int    `json:"credits_remaining"`
	VoiceCreditsRemaining int    `json:"voice_credits_remaining"`
}

// CreditsSpend consumes credits from one balance. The decrement is a
// conditional update; a deny leaves the stored record untouched.
func (a *App) CreditsSpend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req creditsSpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Cost == nil || *req.Cost < 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "cost must be a non-negative integer")
		return
	}
	kind := domain.FeatureKind(req.Type)
	if kind != domain.FeatureDaily && kind != domain.FeatureVoice {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown credit type")
		return
	}

	user, ok := a.resolveUser(w, r, req.Email)
	if !ok {
		return
	}

	result, err := a.Gate.Authorize(r.Context(), user.ID, entitlement.Request{Kind: kind, Cost: *req.Cost})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("credits spend failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to spend credits")
		return
	}

	a.recordUsage(r.Context(), user.ID, "credits_spend", result, *req.Cost, start)

	if !result.Allow {
		a.json(w, http.StatusPaymentRequired, creditsDeniedResponse{
			Error:                 insufficientMessage(r.Context()),
			Mode:                  string(result.Mode),
			Plan:                  string(result.Record.Plan),
			CreditsRemaining:      result.Record.CreditsRemaining,
			VoiceCreditsRemaining: result.Record.VoiceCreditsRemaining,
		})
		return
	}

	a.json(w, http.StatusOK, creditsSpendResponse{
		OK:                    true,
		Plan:                  string(result.Record.Plan),
		CreditsRemaining:      result.Record.CreditsRemaining,
		VoiceCreditsRemaining: result.Record.VoiceCreditsRemaining,
		SkippedDecrement:      result.SkippedDecrement(),
	})
}
